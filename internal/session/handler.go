package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"argus/internal/explain"
	"argus/pkg/handlers"
	"argus/pkg/routes"
)

const cookieName = "argus_session"

// Handler provides HTTP endpoints for the workflow. Sessions are
// addressed by an HTTP-only cookie; requests without a live session
// get a fresh one transparently.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

type confirmRequest struct {
	Date string `json:"date"`
}

type chooseRequest struct {
	Index *int `json:"index"`
}

// NewHandler creates a Handler backed by the given manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger.With("handler", "session"),
	}
}

// Routes returns the route group definition for workflow endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/session",
		Routes: []routes.Route{
			routes.GET("", h.State),
			routes.POST("/date", h.ConfirmDate),
			routes.POST("/selection", h.Choose),
			routes.POST("/explanation", h.Explain),
			routes.DELETE("", h.Reset),
		},
	}
}

// State returns the current workflow snapshot.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s := h.resolve(w, r)
	handlers.RespondJSON(w, http.StatusOK, s.Snapshot())
}

// ConfirmDate confirms a calendar date and materializes its anomaly
// list.
func (h *Handler) ConfirmDate(w http.ResponseWriter, r *http.Request) {
	s := h.resolve(w, r)

	var req confirmRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	state, err := s.Confirm(r.Context(), req.Date)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

// Choose selects an anomaly from the confirmed day's list.
func (h *Handler) Choose(w http.ResponseWriter, r *http.Request) {
	s := h.resolve(w, r)

	var req chooseRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.Index == nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("index is required"))
		return
	}

	state, err := s.Choose(*req.Index)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

// Explain generates the explanation for the current selection. The
// request blocks for the duration of model inference; closing the
// connection cancels it.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	s := h.resolve(w, r)

	state, err := s.RequestExplanation(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, explanationStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

// Reset returns the session to Idle.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.resolve(w, r)
	handlers.RespondJSON(w, http.StatusOK, s.Reset())
}

// explanationStatus maps explanation-time errors. An out-of-range
// index here means the session and its list disagree, which is an
// internal fault, not a caller mistake.
func explanationStatus(err error) int {
	if errors.Is(err, explain.ErrInvalidIndex) {
		return http.StatusInternalServerError
	}
	return MapHTTPStatus(err)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			if s, ok := h.manager.Session(id); ok {
				return s
			}
		}
	}

	s := h.manager.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    s.ID().String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}
