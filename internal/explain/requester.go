package explain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"argus/internal/results"
	"argus/pkg/formatting"
)

// Explanation is a completed analysis report. Every field is populated
// before it is returned; callers never see a partially built report.
type Explanation struct {
	ID          uuid.UUID      `json:"id"`
	Date        string         `json:"date"`
	Index       int            `json:"index"`
	Row         int            `json:"row"`
	Time        string         `json:"time"`
	Activity    string         `json:"activity"`
	Confidence  string         `json:"confidence"`
	Analysis    string         `json:"analysis"`
	Context     string         `json:"context"`
	Report      string         `json:"report"`
	Sensors     []string       `json:"sensors"`
	Attribution []Contribution `json:"attribution,omitempty"`
	Model       string         `json:"model"`
	ElapsedMS   int64          `json:"elapsed_ms"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Requester builds explanations for anomalies selected out of a day's
// list. It resolves the anomaly, gathers sensor and attribution
// context, and delegates the narrative to the generator.
type Requester struct {
	results     results.System
	generator   Generator
	attribution *Attribution
	logger      *slog.Logger
}

// NewRequester creates a Requester. attribution may be nil, in which
// case reports simply carry no attribution section.
func NewRequester(
	res results.System,
	generator Generator,
	attribution *Attribution,
	logger *slog.Logger,
) *Requester {
	return &Requester{
		results:     res,
		generator:   generator,
		attribution: attribution,
		logger:      logger.With("system", "explain"),
	}
}

// Explain generates the report for the index-th anomaly of the given
// calendar date. The index is validated against that day's list before
// any generation work starts. Generation failures, including an empty
// analysis, wrap ErrGenerationFailed.
func (r *Requester) Explain(ctx context.Context, date string, index int) (*Explanation, error) {
	anomalies, err := r.results.AnomaliesOn(ctx, date)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(anomalies) {
		return nil, fmt.Errorf("%w: index %d, %d anomalies on %s", ErrInvalidIndex, index, len(anomalies), date)
	}
	anomaly := anomalies[index]

	store, err := r.results.Load(ctx)
	if err != nil {
		return nil, err
	}

	req := Request{
		Date:         date,
		Time:         anomaly.Time,
		Activity:     anomaly.Activity,
		Confidence:   formatting.Percent(anomaly.Confidence),
		Sensors:      store.ActiveSensors(anomaly.Row),
		Attribution:  r.attribution.Top(anomaly.Row),
		Standardized: r.attribution.Standardized(),
	}

	started := time.Now()
	narrative, err := r.generator.Generate(ctx, req)
	if err != nil {
		r.logger.Warn("explanation generation failed", "date", date, "index", index, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	elapsed := time.Since(started)

	r.logger.Info(
		"explanation generated",
		"date", date,
		"index", index,
		"model", narrative.Model,
		"duration", elapsed,
	)

	if narrative.Context == "" {
		narrative.Context = defaultContext
	}

	return &Explanation{
		ID:          uuid.New(),
		Date:        date,
		Index:       index,
		Row:         anomaly.Row,
		Time:        anomaly.Time,
		Activity:    anomaly.Activity,
		Confidence:  req.Confidence,
		Analysis:    narrative.Analysis,
		Context:     narrative.Context,
		Report:      buildReport(req, narrative),
		Sensors:     req.Sensors,
		Attribution: req.Attribution,
		Model:       narrative.Model,
		ElapsedMS:   elapsed.Milliseconds(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
