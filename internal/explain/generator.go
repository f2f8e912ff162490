// Package explain produces analyst-facing reports for individual
// anomalies: the anomaly's recorded facts, the sensors involved,
// optional feature attribution, and a model-written narrative. A report
// is returned whole or not at all.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"argus/internal/llm"
	"argus/pkg/formatting"
)

// Request carries the anomaly context handed to a generator. All
// display fields are pre-formatted; the generator never re-derives
// them. Standardized notes that attribution weights were computed on
// scaled readings.
type Request struct {
	Date         string
	Time         string
	Activity     string
	Confidence   string
	Sensors      []string
	Attribution  []Contribution
	Standardized bool
}

// Narrative is a generator's product: the analysis of the anomaly and
// operational context for whoever triages it. Model names the producer.
type Narrative struct {
	Analysis string
	Context  string
	Model    string
}

// Generator turns an anomaly request into a narrative. Implementations
// are free to use any backing model; the requester treats them as a
// black box and only enforces that the analysis is non-empty.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Narrative, error)
}

// narrativePayload is the JSON shape the model is instructed to emit.
type narrativePayload struct {
	Analysis string `json:"analysis"`
	Context  string `json:"context"`
}

// LLMGenerator produces narratives through the chat client.
type LLMGenerator struct {
	client *llm.Client
}

// NewGenerator creates an LLM-backed generator.
func NewGenerator(client *llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Generate asks the model for a structured narrative. A response that
// is not the requested JSON is still accepted as a plain analysis;
// models small enough to run beside the app drift from format
// instructions routinely.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Narrative, error) {
	content, err := g.client.Chat(ctx, systemPrompt, userPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("requesting narrative: %w", err)
	}

	narrative := &Narrative{Model: g.client.Model()}

	payload, err := formatting.Parse[narrativePayload](content)
	switch {
	case err == nil:
		narrative.Analysis = strings.TrimSpace(payload.Analysis)
		narrative.Context = strings.TrimSpace(payload.Context)
	case errors.Is(err, formatting.ErrNoJSON):
		narrative.Analysis = strings.TrimSpace(content)
	default:
		return nil, fmt.Errorf("decoding narrative: %w", err)
	}

	if narrative.Analysis == "" {
		return nil, errors.New("model produced an empty analysis")
	}

	return narrative, nil
}
