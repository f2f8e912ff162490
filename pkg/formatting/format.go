package formatting

import (
	"fmt"
	"time"
)

// TimestampLayout matches the timestamp format the detection pipeline
// writes into its exports.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp renders t in the pipeline's date-time form, or "N/A" for
// the zero value.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(TimestampLayout)
}

// Percent renders a 0..1 fraction as a percentage with two decimals,
// such as "92.35%".
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
