package api

import (
	"errors"
	"fmt"
	"log/slog"

	"argus/internal/config"
	"argus/internal/explain"
	"argus/internal/llm"
	"argus/internal/results"
	"argus/internal/session"
	"argus/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Results  results.System
	Explain  explain.System
	Sessions *session.Manager

	logger *slog.Logger
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	resultsSystem := results.New(
		&cfg.Results,
		runtime.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	requester := explain.NewRequester(
		resultsSystem,
		explain.NewGenerator(llm.New(&cfg.Generator, runtime.Logger)),
		loadAttribution(cfg.Results.AttributionPath, runtime.Logger),
		runtime.Logger,
	)

	sessions := session.NewManager(
		&cfg.Session,
		resultsSystem,
		requester,
		runtime.Logger,
	)

	return &Domain{
		Results:  resultsSystem,
		Explain:  requester,
		Sessions: sessions,
		logger:   runtime.Logger,
	}
}

// Start registers domain lifecycle hooks: the session expiry janitor
// and a warm-up load so the first request does not pay for the source
// chain walk. An exhausted chain does not abort startup, but it marks
// the coordinator failed so readiness stays false; the process keeps
// serving so requests surface the unavailability.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	if err := d.Sessions.Start(lc); err != nil {
		return fmt.Errorf("session manager start failed: %w", err)
	}

	lc.OnStartup(func() {
		if _, err := d.Results.Load(lc.Context()); err != nil {
			d.logger.Error("result warm-up failed", "error", err)
			if errors.Is(err, results.ErrUnavailable) {
				lc.FailStartup()
			}
		}
	})

	return nil
}

// loadAttribution reads the optional attribution artifact. A missing or
// unreadable artifact degrades to explanations without attribution.
func loadAttribution(path string, logger *slog.Logger) *explain.Attribution {
	if path == "" {
		return nil
	}

	attribution, err := explain.LoadAttribution(path)
	if err != nil {
		logger.Warn("attribution artifact unavailable", "path", path, "error", err)
		return nil
	}

	return attribution
}
