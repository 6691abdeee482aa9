package s3blob

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"ratiowatch/internal/domain"
)

type fakeWriter struct {
	path        string
	contentType string
	body        string
	calls       int
	err         error
}

func (f *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	f.calls++
	f.path = path
	f.contentType = contentType
	b, _ := io.ReadAll(data)
	f.body = string(b)
	return f.err
}

func TestArchiveSnapshots(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w)

	oldest := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	newest := oldest.Add(24 * time.Hour)
	recs := []domain.RatioRecord{
		{ID: 1, PairName: "BTC/ETH", Ratio: 16.5, Timestamp: oldest},
		{ID: 2, PairName: "BTC/ETH", Ratio: 16.7, Timestamp: newest},
	}

	if err := a.ArchiveSnapshots(context.Background(), recs); err != nil {
		t.Fatalf("ArchiveSnapshots: %v", err)
	}

	if w.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", w.contentType)
	}
	if !strings.HasPrefix(w.path, "archive/snapshots/2025-01/") {
		t.Errorf("path = %q, want archive/snapshots/2025-01/ prefix", w.path)
	}
	if !strings.HasSuffix(w.path, ".jsonl") {
		t.Errorf("path = %q, want .jsonl suffix", w.path)
	}

	lines := strings.Split(strings.TrimRight(w.body, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d JSONL lines, want 2", len(lines))
	}
	var rec domain.RatioRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec.ID != 2 || rec.Ratio != 16.7 {
		t.Errorf("decoded record = %+v", rec)
	}
}

func TestArchiveAlertsPath(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []domain.AlertRecord{
		{ID: "a1", PairName: "BTC/ETH", Ratio: 16.5, ChangePct: 5.2, Threshold: 5, Timestamp: ts},
	}

	if err := a.ArchiveAlerts(context.Background(), recs); err != nil {
		t.Fatalf("ArchiveAlerts: %v", err)
	}
	if !strings.HasPrefix(w.path, "archive/alerts/2025-03/") {
		t.Errorf("path = %q", w.path)
	}
}

func TestArchiveEmptyBatchSkipsUpload(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w)

	if err := a.ArchiveSnapshots(context.Background(), nil); err != nil {
		t.Fatalf("ArchiveSnapshots: %v", err)
	}
	if err := a.ArchiveAlerts(context.Background(), nil); err != nil {
		t.Fatalf("ArchiveAlerts: %v", err)
	}
	if w.calls != 0 {
		t.Errorf("writer called %d times for empty batches", w.calls)
	}
}
