package notify

import (
	"fmt"
	"strings"
	"time"

	"ratiowatch/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// FormatAlert renders a threshold breach as a title and message body.
func FormatAlert(a domain.RatioAlert) (title, message string) {
	marker := "\U0001F4C8" // chart increasing
	if a.ChangePct < 0 {
		marker = "\U0001F4C9" // chart decreasing
	}
	title = fmt.Sprintf("%s Ratio Alert: %s", marker, a.PairName)
	message = fmt.Sprintf("Current Ratio: `%.8f`\nChange: `%+.2f%%` in %s\nTime: %s",
		a.Ratio, a.ChangePct, a.Window, a.Timestamp.UTC().Format(timeLayout))
	return title, message
}

// FormatDigest renders the periodic update from the pairs that computed
// successfully. The caller must not call it with an empty slice.
func FormatDigest(ratios []domain.SimpleRatio, now time.Time) (title, message string) {
	blocks := make([]string, 0, len(ratios))
	for _, r := range ratios {
		blocks = append(blocks, fmt.Sprintf("*%s*\n`%.8f`\n%s $%.2f / %s $%.2f",
			r.PairName, r.Ratio, r.SymbolA, r.PriceA, r.SymbolB, r.PriceB))
	}
	title = "\U0001F4CA Periodic Ratio Update"
	message = fmt.Sprintf("%s\n\n_Time: %s_",
		strings.Join(blocks, "\n\n"), now.UTC().Format(timeLayout))
	return title, message
}

// FormatSlippage renders a slippage report inside a code block.
func FormatSlippage(r domain.SlippageReport) (title, message string) {
	return "\U0001F50D Slippage Analysis", fmt.Sprintf("```\n%s\n```", r.Summary())
}

// FormatTest is the startup connectivity probe message.
func FormatTest() (title, message string) {
	return "ratiowatch", "✅ ratiowatch is connected and ready!"
}

// FormatWindow renders a duration in whole seconds as a compact unit string,
// e.g. 90 -> "90s", 300 -> "5m", 7200 -> "2h".
func FormatWindow(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh", seconds/3600)
	}
}
