package explain_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"argus/internal/explain"
	"argus/internal/results"
)

// fakeResults serves a fixed two-row day so anomaly indexes resolve to
// known store rows.
type fakeResults struct {
	store *results.Store
	days  map[string][]results.Anomaly
	err   error
}

func (f *fakeResults) Handler() *results.Handler { return nil }

func (f *fakeResults) Load(context.Context) (*results.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

func (f *fakeResults) AnomaliesOn(_ context.Context, date string) ([]results.Anomaly, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := results.ParseDate(date); err != nil {
		return nil, err
	}
	return f.days[date], nil
}

func (f *fakeResults) Calendar(context.Context) (*results.Calendar, error) {
	return &results.Calendar{}, nil
}

func (f *fakeResults) Status(context.Context) (*results.Status, error) {
	return &results.Status{}, nil
}

// spyGenerator records the request it was handed.
type spyGenerator struct {
	calls     int
	last      explain.Request
	narrative *explain.Narrative
	err       error
}

func (g *spyGenerator) Generate(_ context.Context, req explain.Request) (*explain.Narrative, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return g.narrative, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResults() *fakeResults {
	return &fakeResults{
		store: &results.Store{
			Columns: []string{"M003", "M009", "T002"},
			Records: []results.Record{
				{
					Timestamp:  time.Date(2011, 6, 1, 2, 17, 43, 0, time.UTC),
					Activity:   "Sleeping",
					Confidence: 0.91,
					Features:   []float64{1, 1, 0},
				},
				{
					Timestamp:  time.Date(2011, 6, 1, 8, 5, 12, 0, time.UTC),
					Activity:   "Meal_Preparation",
					Confidence: 0.97,
					Features:   []float64{0, 0, 0},
				},
			},
		},
		days: map[string][]results.Anomaly{
			"2011-06-01": {
				{Index: 0, Row: 0, Time: "2011-06-01 02:17:43", Activity: "Sleeping", Confidence: 0.91},
				{Index: 1, Row: 1, Time: "2011-06-01 08:05:12", Activity: "Meal_Preparation", Confidence: 0.97},
			},
			"2011-06-02": {},
		},
	}
}

func okNarrative() *explain.Narrative {
	return &explain.Narrative{
		Analysis: "Motion during deep-night hours diverges from the resident's routine.",
		Context:  "Confirm whether the resident was home overnight.",
		Model:    "test-model",
	}
}

func newRequester(res results.System, gen explain.Generator, attr *explain.Attribution) *explain.Requester {
	return explain.NewRequester(res, gen, attr, discardLogger())
}

func TestExplainBuildsCompleteReport(t *testing.T) {
	gen := &spyGenerator{narrative: okNarrative()}
	req := newRequester(testResults(), gen, nil)

	exp, err := req.Explain(context.Background(), "2011-06-01", 0)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if exp.ID == uuid.Nil {
		t.Error("explanation should carry an id")
	}
	if exp.Date != "2011-06-01" || exp.Index != 0 || exp.Row != 0 {
		t.Errorf("identity: got %s/%d/%d", exp.Date, exp.Index, exp.Row)
	}
	if exp.Activity != "Sleeping" {
		t.Errorf("activity: got %s", exp.Activity)
	}
	if exp.Confidence != "91.00%" {
		t.Errorf("confidence: got %s, want 91.00%%", exp.Confidence)
	}
	if len(exp.Sensors) != 2 || exp.Sensors[0] != "M003" || exp.Sensors[1] != "M009" {
		t.Errorf("sensors: got %v, want [M003 M009]", exp.Sensors)
	}
	if exp.Analysis != okNarrative().Analysis {
		t.Errorf("analysis: got %q", exp.Analysis)
	}
	if exp.Model != "test-model" {
		t.Errorf("model: got %s", exp.Model)
	}
	if exp.GeneratedAt.IsZero() {
		t.Error("generated_at should be set")
	}

	for _, line := range []string{
		"ANOMALY ANALYSIS REPORT",
		"Date: 2011-06-01",
		"Time: 2011-06-01 02:17:43",
		"Activity: Sleeping",
		"Confidence: 91.00%",
		"ACTIVE SENSORS:",
		"  • M003",
		"  • M009",
		"LLM ANALYSIS:",
		okNarrative().Analysis,
		"CONTEXT:",
		okNarrative().Context,
	} {
		if !strings.Contains(exp.Report, line) {
			t.Errorf("report missing %q\n%s", line, exp.Report)
		}
	}
}

func TestExplainPassesContextToGenerator(t *testing.T) {
	gen := &spyGenerator{narrative: okNarrative()}
	req := newRequester(testResults(), gen, nil)

	if _, err := req.Explain(context.Background(), "2011-06-01", 0); err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if gen.calls != 1 {
		t.Fatalf("generator calls: got %d, want 1", gen.calls)
	}
	if gen.last.Date != "2011-06-01" || gen.last.Activity != "Sleeping" {
		t.Errorf("request: got %+v", gen.last)
	}
	if gen.last.Confidence != "91.00%" {
		t.Errorf("request confidence: got %s", gen.last.Confidence)
	}
	if len(gen.last.Sensors) != 2 {
		t.Errorf("request sensors: got %v", gen.last.Sensors)
	}
}

func TestExplainInvalidIndexSkipsGenerator(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		index int
	}{
		{"negative", "2011-06-01", -1},
		{"beyond end", "2011-06-01", 2},
		{"empty day", "2011-06-02", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &spyGenerator{narrative: okNarrative()}
			req := newRequester(testResults(), gen, nil)

			_, err := req.Explain(context.Background(), tt.date, tt.index)
			if !errors.Is(err, explain.ErrInvalidIndex) {
				t.Fatalf("Explain() = %v, want ErrInvalidIndex", err)
			}
			if gen.calls != 0 {
				t.Errorf("generator must not run for an invalid index, calls %d", gen.calls)
			}
		})
	}
}

func TestExplainPropagatesResultErrors(t *testing.T) {
	tests := []struct {
		name string
		res  *fakeResults
		date string
		want error
	}{
		{"invalid date", testResults(), "junk", results.ErrInvalidDate},
		{"data unavailable", &fakeResults{err: results.ErrUnavailable}, "2011-06-01", results.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &spyGenerator{narrative: okNarrative()}
			req := newRequester(tt.res, gen, nil)

			_, err := req.Explain(context.Background(), tt.date, 0)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Explain() = %v, want %v", err, tt.want)
			}
			if gen.calls != 0 {
				t.Errorf("generator must not run, calls %d", gen.calls)
			}
		})
	}
}

func TestExplainGenerationFailure(t *testing.T) {
	gen := &spyGenerator{err: errors.New("model offline")}
	req := newRequester(testResults(), gen, nil)

	_, err := req.Explain(context.Background(), "2011-06-01", 0)
	if !errors.Is(err, explain.ErrGenerationFailed) {
		t.Fatalf("Explain() = %v, want ErrGenerationFailed", err)
	}
	if !strings.Contains(err.Error(), "model offline") {
		t.Errorf("cause should be preserved: %v", err)
	}
}

func TestExplainFillsDefaultContext(t *testing.T) {
	gen := &spyGenerator{narrative: &explain.Narrative{
		Analysis: "Pattern diverges from routine.",
		Model:    "test-model",
	}}
	req := newRequester(testResults(), gen, nil)

	exp, err := req.Explain(context.Background(), "2011-06-01", 0)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if exp.Context == "" {
		t.Error("context should fall back to a default when the model omits it")
	}
}

func TestExplainNoActiveSensors(t *testing.T) {
	gen := &spyGenerator{narrative: okNarrative()}
	req := newRequester(testResults(), gen, nil)

	exp, err := req.Explain(context.Background(), "2011-06-01", 1)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if len(exp.Sensors) != 0 {
		t.Errorf("sensors: got %v, want none", exp.Sensors)
	}
	if !strings.Contains(exp.Report, "No sensor activity recorded for this reading.") {
		t.Errorf("report should note the quiet reading\n%s", exp.Report)
	}
}

func TestExplainWithAttribution(t *testing.T) {
	attr := &explain.Attribution{
		Columns: []string{"M003", "M009", "T002"},
		Values:  [][]float64{{0.5, -0.8, 0}},
		Mean:    []float64{0.1, 0.2, 0.3},
		Scale:   []float64{1, 1, 1},
	}
	gen := &spyGenerator{narrative: okNarrative()}
	req := newRequester(testResults(), gen, attr)

	exp, err := req.Explain(context.Background(), "2011-06-01", 0)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if len(exp.Attribution) != 2 {
		t.Fatalf("attribution: got %v", exp.Attribution)
	}
	if exp.Attribution[0].Sensor != "M009" || exp.Attribution[1].Sensor != "M003" {
		t.Errorf("attribution should be ordered by absolute weight: %v", exp.Attribution)
	}

	if !gen.last.Standardized {
		t.Error("generator should be told the weights are standardized")
	}

	for _, line := range []string{
		"Top contributing sensors (SHAP):",
		"  - M009 (-0.800)",
		"  - M003 (+0.500)",
		"computed on standardized sensor readings",
	} {
		if !strings.Contains(exp.Report, line) {
			t.Errorf("report missing %q\n%s", line, exp.Report)
		}
	}
}

func TestExplainWithoutAttribution(t *testing.T) {
	gen := &spyGenerator{narrative: okNarrative()}
	req := newRequester(testResults(), gen, nil)

	exp, err := req.Explain(context.Background(), "2011-06-01", 0)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if exp.Attribution != nil {
		t.Errorf("attribution: got %v, want none", exp.Attribution)
	}
	if strings.Contains(exp.Report, "SHAP") {
		t.Errorf("report should not mention attribution\n%s", exp.Report)
	}
}
