package results

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// memorySource synthesizes a small deterministic result table so the
// app stays demonstrable when every provisioned source is unavailable.
// Rows are anchored to the configured default date so the demo lands
// inside the picker window.
type memorySource struct {
	defaultDate string
}

var demoColumns = []string{"D002", "M003", "M005", "M007", "M009", "M014", "M019", "M021", "T002"}

var demoRows = []struct {
	day        int
	clock      string
	activity   string
	confidence float64
	sensors    []string
}{
	{0, "02:17:43", "Sleeping", 0.91, []string{"M003", "M009"}},
	{0, "08:05:12", "Meal_Preparation", 0.97, []string{"M014", "M019", "T002"}},
	{0, "18:42:05", "Relax", 0.84, []string{"M007", "M021"}},
	{1, "07:55:30", "Meal_Preparation", 0.88, []string{"M014", "M019"}},
	{1, "21:10:11", "Work", 0.93, []string{"M005", "M021"}},
	{2, "12:33:27", "Housekeeping", 0.79, []string{"D002", "M007", "M009"}},
}

func (s memorySource) Name() string {
	return "memory"
}

func (s memorySource) Load(_ context.Context) (*Store, error) {
	anchor, err := time.ParseInLocation(DateLayout, s.defaultDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing anchor date: %w", ErrSourceUnavailable, err)
	}

	store := &Store{
		Columns: demoColumns,
		Records: make([]Record, 0, len(demoRows)),
	}

	for _, row := range demoRows {
		clock, err := time.ParseInLocation("15:04:05", row.clock, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing demo clock: %w", ErrSourceUnavailable, err)
		}

		features := make([]float64, len(demoColumns))
		for _, sensor := range row.sensors {
			if i := slices.Index(demoColumns, sensor); i >= 0 {
				features[i] = 1
			}
		}

		store.Records = append(store.Records, Record{
			Timestamp: anchor.AddDate(0, 0, row.day).
				Add(time.Duration(clock.Hour())*time.Hour +
					time.Duration(clock.Minute())*time.Minute +
					time.Duration(clock.Second())*time.Second),
			Activity:   row.activity,
			Confidence: row.confidence,
			Features:   features,
		})
	}

	return store, nil
}
