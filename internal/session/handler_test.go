package session_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"argus/internal/explain"
	"argus/internal/results"
	"argus/internal/session"
	"argus/pkg/routes"
)

func workflowMux(exp explain.System) *http.ServeMux {
	m := newManager(&fakeResults{days: testDays()}, exp)
	mux := http.NewServeMux()
	routes.Register(mux, m.Handler().Routes())
	return mux
}

// do runs one request, carrying the session cookie across calls.
func do(t *testing.T, mux *http.ServeMux, cookies []*http.Cookie, method, url, body string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if fresh := w.Result().Cookies(); len(fresh) > 0 {
		cookies = fresh
	}
	return w, cookies
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) *session.State {
	t.Helper()

	var state session.State
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return &state
}

func TestStateIssuesSessionCookie(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	w, cookies := do(t, mux, nil, http.MethodGet, "/session", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	if len(cookies) != 1 || cookies[0].Name != "argus_session" {
		t.Fatalf("cookies: got %v, want argus_session", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be http-only")
	}

	state := decodeState(t, w)
	if state.Phase != session.PhaseIdle {
		t.Errorf("phase: got %s, want idle", state.Phase)
	}
}

func TestCookieAddressesSameSession(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	_, cookies := do(t, mux, nil, http.MethodGet, "/session", "")
	w, cookies := do(t, mux, cookies, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status: got %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, mux, cookies, http.MethodGet, "/session", "")
	state := decodeState(t, w)
	if state.Phase != session.PhaseDateConfirmed || state.Date != "2011-06-01" {
		t.Errorf("state not carried across requests: %+v", state)
	}
}

func TestUnknownCookieGetsFreshSession(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	stale := []*http.Cookie{{Name: "argus_session", Value: "cc5f546e-8541-4d87-9b18-34a639af2d7b"}}
	w, cookies := do(t, mux, stale, http.MethodGet, "/session", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if len(cookies) != 1 || cookies[0].Value == stale[0].Value {
		t.Error("stale cookie should be replaced with a fresh session")
	}
}

func TestConfirmDateRejectsBadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown field", `{"date":"2011-06-01","extra":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := workflowMux(&fakeExplain{})

			w, _ := do(t, mux, nil, http.MethodPost, "/session/date", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
}

func TestConfirmDateInvalidDate(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	w, _ := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"junk"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestChooseRequiresIndex(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	_, cookies := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	w, _ := do(t, mux, cookies, http.MethodPost, "/session/selection", `{}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "index is required") {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestChooseWithoutDateConflicts(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	w, _ := do(t, mux, nil, http.MethodPost, "/session/selection", `{"index":0}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", w.Code)
	}
}

func TestChooseOutOfRangeIsBadRequest(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	_, cookies := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	w, _ := do(t, mux, cookies, http.MethodPost, "/session/selection", `{"index":5}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestExplainEndpoint(t *testing.T) {
	mux := workflowMux(&fakeExplain{result: okExplanation()})

	_, cookies := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	_, cookies = do(t, mux, cookies, http.MethodPost, "/session/selection", `{"index":0}`)
	w, _ := do(t, mux, cookies, http.MethodPost, "/session/explanation", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	state := decodeState(t, w)
	if state.Phase != session.PhaseExplanationReady {
		t.Errorf("phase: got %s, want explanation_ready", state.Phase)
	}
	if state.Explanation == nil || state.Explanation.Report == "" {
		t.Error("explanation report should be present")
	}
}

func TestExplainWithoutSelectionConflicts(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	_, cookies := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	w, _ := do(t, mux, cookies, http.MethodPost, "/session/explanation", "")

	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", w.Code)
	}
}

func TestExplainFailureIsBadGateway(t *testing.T) {
	exp := &fakeExplain{err: fmt.Errorf("%w: model offline", explain.ErrGenerationFailed)}
	mux := workflowMux(exp)

	_, cookies := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	_, cookies = do(t, mux, cookies, http.MethodPost, "/session/selection", `{"index":0}`)
	w, _ := do(t, mux, cookies, http.MethodPost, "/session/explanation", "")

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", w.Code)
	}

	w, _ = do(t, mux, cookies, http.MethodGet, "/session", "")
	state := decodeState(t, w)
	if state.Phase != session.PhaseExplanationFailed {
		t.Errorf("phase: got %s, want explanation_failed", state.Phase)
	}
	if state.Failure == "" {
		t.Error("failure message should be present")
	}
}

func TestResetEndpoint(t *testing.T) {
	mux := workflowMux(&fakeExplain{})

	_, cookies := do(t, mux, nil, http.MethodPost, "/session/date", `{"date":"2011-06-01"}`)
	w, _ := do(t, mux, cookies, http.MethodDelete, "/session", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	state := decodeState(t, w)
	if state.Phase != session.PhaseIdle {
		t.Errorf("phase: got %s, want idle", state.Phase)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no date", session.ErrNoDate, http.StatusConflict},
		{"no selection", session.ErrNoSelection, http.StatusConflict},
		{"in flight", session.ErrExplanationInFlight, http.StatusConflict},
		{"superseded", session.ErrSuperseded, http.StatusConflict},
		{"invalid index", explain.ErrInvalidIndex, http.StatusBadRequest},
		{"generation failed", explain.ErrGenerationFailed, http.StatusBadGateway},
		{"invalid date", results.ErrInvalidDate, http.StatusBadRequest},
		{"data unavailable", results.ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
