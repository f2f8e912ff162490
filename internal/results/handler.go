package results

import (
	"log/slog"
	"net/http"

	"argus/pkg/handlers"
	"argus/pkg/pagination"
	"argus/pkg/routes"
)

// Handler provides HTTP endpoints for browsing the result table.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "results"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for result endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/results",
		Routes: []routes.Route{
			routes.GET("", h.Browse),
			routes.GET("/anomalies", h.Anomalies),
			routes.GET("/calendar", h.Calendar),
			routes.GET("/export", h.Export),
			routes.GET("/status", h.Status),
		},
	}
}

// Browse returns a paginated window over the result table, optionally
// filtered by activity and minimum confidence.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	store, err := h.sys.Load(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	views := make([]Anomaly, 0, store.Len())
	for row, rec := range store.Records {
		if !filters.Match(rec) {
			continue
		}
		views = append(views, newAnomaly(row, row, rec))
	}

	result := pagination.Window(views, page)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Anomalies returns the anomalies for the calendar date in the "date"
// query parameter. A date with no anomalies yields an empty list.
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	anomalies, err := h.sys.AnomaliesOn(r.Context(), date)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Day{
		Date:      date,
		Count:     len(anomalies),
		Anomalies: anomalies,
	})
}

// Export streams the loaded result table as a CSV snapshot download.
// The export round-trips through DecodeSnapshot, so it doubles as a way
// to seed a snapshot file from the in-memory or database sources.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	store, err := h.sys.Load(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := EncodeSnapshot(w, store); err != nil {
		h.logger.Error("snapshot export failed", "error", err)
	}
}

// Calendar returns the picker bounds and the dates carrying anomalies.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.sys.Calendar(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cal)
}

// Status reports which source the fallback chain settled on.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.sys.Status(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}
