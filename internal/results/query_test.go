package results_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"argus/internal/results"
)

func TestParseDate(t *testing.T) {
	got, err := results.ParseDate("2011-06-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	want := time.Date(2011, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got, want)
	}
}

func TestParseDateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"prose", "June 1, 2011"},
		{"impossible date", "2011-13-99"},
		{"unpadded", "2011-6-1"},
		{"timestamp instead of date", "2011-06-01 08:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := results.ParseDate(tt.input)
			if !errors.Is(err, results.ErrInvalidDate) {
				t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", tt.input, err)
			}
		})
	}
}

func dayStore(t *testing.T) *results.Store {
	t.Helper()

	input := `Timestamp,Activity,Confidence,M001
2011-06-01 08:00:00,Meal_Preparation,0.97,1
2011-06-01 12:30:00,Work,0.85,0
2011-06-02 09:15:00,Sleeping,0.42,1
not-a-timestamp,Relax,0.50,0
2011-06-01 18:45:00,Relax,0.73,1
`
	store, err := results.DecodeSnapshot(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return store
}

func TestAnomaliesOnPreservesOrder(t *testing.T) {
	store := dayStore(t)
	day, err := results.ParseDate("2011-06-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	anomalies := store.AnomaliesOn(day)
	if len(anomalies) != 3 {
		t.Fatalf("anomalies: got %d, want 3", len(anomalies))
	}

	wantActivities := []string{"Meal_Preparation", "Work", "Relax"}
	for i, a := range anomalies {
		if a.Activity != wantActivities[i] {
			t.Errorf("anomaly %d activity: got %s, want %s", i, a.Activity, wantActivities[i])
		}
		if a.Index != i {
			t.Errorf("anomaly %d index: got %d, want %d", i, a.Index, i)
		}
	}
}

func TestAnomaliesOnRowTracksStorePosition(t *testing.T) {
	store := dayStore(t)
	day, err := results.ParseDate("2011-06-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	anomalies := store.AnomaliesOn(day)
	wantRows := []int{0, 1, 4}
	for i, a := range anomalies {
		if a.Row != wantRows[i] {
			t.Errorf("anomaly %d row: got %d, want %d", i, a.Row, wantRows[i])
		}
	}
}

func TestAnomaliesOnExcludesMalformedTimestamps(t *testing.T) {
	store := dayStore(t)

	total := 0
	for _, a := range store.Dates() {
		day, err := results.ParseDate(a)
		if err != nil {
			t.Fatalf("ParseDate failed: %v", err)
		}
		total += len(store.AnomaliesOn(day))
	}

	if total != 4 {
		t.Errorf("dated anomalies: got %d, want 4 (row with bad timestamp excluded)", total)
	}
}

func TestAnomaliesOnEmptyDay(t *testing.T) {
	store := dayStore(t)
	day, err := results.ParseDate("2011-06-03")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	anomalies := store.AnomaliesOn(day)
	if anomalies == nil {
		t.Fatal("empty day should return empty slice, not nil")
	}
	if len(anomalies) != 0 {
		t.Errorf("anomalies: got %d, want 0", len(anomalies))
	}
}

func TestDates(t *testing.T) {
	input := `Timestamp,Activity,Confidence
2011-06-02 09:15:00,Sleeping,0.42
2011-06-01 08:00:00,Meal_Preparation,0.97
2011-06-01 12:30:00,Work,0.85
bad,Relax,0.50
`
	store, err := results.DecodeSnapshot(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	got := store.Dates()
	want := []string{"2011-06-01", "2011-06-02"}
	if len(got) != len(want) {
		t.Fatalf("dates: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dates[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFiltersMatch(t *testing.T) {
	rec := results.Record{Activity: "Meal_Preparation", Confidence: 0.85}

	tests := []struct {
		name    string
		filters results.Filters
		want    bool
	}{
		{"no filters", results.Filters{}, true},
		{"activity exact", results.Filters{Activity: ptr("Meal_Preparation")}, true},
		{"activity case-insensitive", results.Filters{Activity: ptr("meal_preparation")}, true},
		{"activity mismatch", results.Filters{Activity: ptr("Work")}, false},
		{"confidence at threshold", results.Filters{MinConfidence: fptr(0.85)}, true},
		{"confidence above threshold", results.Filters{MinConfidence: fptr(0.5)}, true},
		{"confidence below threshold", results.Filters{MinConfidence: fptr(0.9)}, false},
		{
			"both filters pass",
			results.Filters{Activity: ptr("MEAL_PREPARATION"), MinConfidence: fptr(0.8)},
			true,
		},
		{
			"activity passes confidence fails",
			results.Filters{Activity: ptr("Meal_Preparation"), MinConfidence: fptr(0.9)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Match(rec); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("activity", "Work")
	values.Set("min_confidence", "0.75")

	f := results.FiltersFromQuery(values)
	if f.Activity == nil || *f.Activity != "Work" {
		t.Errorf("activity: got %v, want Work", f.Activity)
	}
	if f.MinConfidence == nil || *f.MinConfidence != 0.75 {
		t.Errorf("min_confidence: got %v, want 0.75", f.MinConfidence)
	}
}

func TestFiltersFromQueryAbsent(t *testing.T) {
	f := results.FiltersFromQuery(url.Values{})
	if f.Activity != nil {
		t.Errorf("activity should be nil, got %v", *f.Activity)
	}
	if f.MinConfidence != nil {
		t.Errorf("min_confidence should be nil, got %v", *f.MinConfidence)
	}
}

func TestFiltersFromQueryMalformedConfidence(t *testing.T) {
	values := url.Values{}
	values.Set("min_confidence", "very high")

	f := results.FiltersFromQuery(values)
	if f.MinConfidence != nil {
		t.Errorf("unparseable min_confidence should be ignored, got %v", *f.MinConfidence)
	}
}

func ptr(s string) *string { return &s }

func fptr(v float64) *float64 { return &v }

func bptr(v bool) *bool { return &v }
