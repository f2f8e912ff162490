package results

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the calendar-date form used by queries and the workflow.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in DateLayout form.
// Malformed values wrap ErrInvalidDate.
func ParseDate(value string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return day, nil
}

// AnomaliesOn returns the anomalies recorded on the given calendar day,
// in store order. Rows with a zero timestamp never match. An empty
// result is a valid answer, not an error.
func (s *Store) AnomaliesOn(day time.Time) []Anomaly {
	anomalies := make([]Anomaly, 0)
	for row, rec := range s.Records {
		if rec.Timestamp.IsZero() || !sameDay(rec.Timestamp, day) {
			continue
		}
		anomalies = append(anomalies, newAnomaly(len(anomalies), row, rec))
	}
	return anomalies
}

// Dates returns the distinct calendar dates carrying at least one
// anomaly, in ascending order.
func (s *Store) Dates() []string {
	seen := make(map[string]bool)
	dates := make([]string, 0)

	for _, rec := range s.Records {
		if rec.Timestamp.IsZero() {
			continue
		}
		d := rec.Timestamp.Format(DateLayout)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}

	// DateLayout is fixed-width, so lexical order is chronological order.
	slices.Sort(dates)
	return dates
}

func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
