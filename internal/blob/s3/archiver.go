package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ratiowatch/internal/domain"
	"ratiowatch/internal/monitor"
)

// BlobWriter is the narrow upload interface the archiver needs. *Writer
// satisfies it.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// ArchiveImpl serializes aged rows to JSONL and uploads them to object
// storage. Each batch becomes one object under a year-month prefix, named
// by the millisecond timestamps of its oldest and newest rows so repeated
// batches within a month never overwrite each other.
//
// Deletion of the archived rows from the primary store is intentionally NOT
// performed here; the retention job deletes only after the upload succeeds.
type ArchiveImpl struct {
	writer BlobWriter
}

var _ monitor.Archiver = (*ArchiveImpl)(nil)

// NewArchiver creates an ArchiveImpl that uploads through the given writer.
func NewArchiver(writer BlobWriter) *ArchiveImpl {
	return &ArchiveImpl{writer: writer}
}

// ArchiveSnapshots uploads a batch of ratio snapshot rows as JSONL.
func (a *ArchiveImpl) ArchiveSnapshots(ctx context.Context, recs []domain.RatioRecord) error {
	if len(recs) == 0 {
		return nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
	}

	path := archivePath("snapshots", recs[0].Timestamp, recs[len(recs)-1].Timestamp)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive snapshots upload: %w", err)
	}
	return nil
}

// ArchiveAlerts uploads a batch of alert rows as JSONL.
func (a *ArchiveImpl) ArchiveAlerts(ctx context.Context, recs []domain.AlertRecord) error {
	if len(recs) == 0 {
		return nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return fmt.Errorf("s3blob: archive alerts marshal: %w", err)
	}

	path := archivePath("alerts", recs[0].Timestamp, recs[len(recs)-1].Timestamp)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive alerts upload: %w", err)
	}
	return nil
}

// archivePath builds the S3 key for an archive batch, partitioned by the
// year-month of the oldest row.
//
//	archive/snapshots/2025-01/1736208000000-1736294400000.jsonl
//	archive/alerts/2025-01/1736208000000-1736294400000.jsonl
func archivePath(kind string, oldest, newest time.Time) string {
	return fmt.Sprintf("archive/%s/%s/%d-%d.jsonl",
		kind, oldest.UTC().Format("2006-01"), oldest.UnixMilli(), newest.UnixMilli())
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
