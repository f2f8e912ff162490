package results_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"argus/internal/config"
	"argus/internal/results"
	"argus/pkg/pagination"
	"argus/pkg/routes"
)

func resultsMux(t *testing.T, cfg *config.ResultsConfig) *http.ServeMux {
	t.Helper()

	system := newSystem(t, cfg)
	mux := http.NewServeMux()
	routes.Register(mux, system.Handler().Routes())
	return mux
}

func loadedMux(t *testing.T) *http.ServeMux {
	t.Helper()

	path := writeSnapshot(t, t.TempDir(), "full.csv", canonicalSnapshot)
	return resultsMux(t, &config.ResultsConfig{SnapshotPath: path})
}

func unavailableMux(t *testing.T) *http.ServeMux {
	t.Helper()

	return resultsMux(t, &config.ResultsConfig{
		SnapshotPath:   filepath.Join(t.TempDir(), "missing.csv"),
		MemoryFallback: bptr(false),
	})
}

func TestBrowseReturnsPage(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var page pagination.PageResult[results.Anomaly]
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if page.Total != 3 {
		t.Errorf("total: got %d, want 3", page.Total)
	}
	if len(page.Data) != 3 {
		t.Fatalf("data: got %d rows, want 3", len(page.Data))
	}
	if page.Data[0].Activity != "Meal_Preparation" {
		t.Errorf("first activity: got %s", page.Data[0].Activity)
	}
	if page.Data[2].Index != 2 {
		t.Errorf("browse index should be the store row, got %d", page.Data[2].Index)
	}
}

func TestBrowsePagination(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results?page=2&page_size=2", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var page pagination.PageResult[results.Anomaly]
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if page.Page != 2 || page.PageSize != 2 {
		t.Errorf("page: got %d/%d, want 2/2", page.Page, page.PageSize)
	}
	if page.TotalPages != 2 {
		t.Errorf("total pages: got %d, want 2", page.TotalPages)
	}
	if len(page.Data) != 1 {
		t.Fatalf("data: got %d rows, want 1", len(page.Data))
	}
	if page.Data[0].Activity != "Sleeping" {
		t.Errorf("second page activity: got %s", page.Data[0].Activity)
	}
}

func TestBrowseFilters(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantTotal    int
		wantActivity string
	}{
		{"activity case-insensitive", "activity=work", 1, "Work"},
		{"min confidence", "min_confidence=0.9", 1, "Meal_Preparation"},
		{"no match", "activity=Swimming", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := loadedMux(t)

			req := httptest.NewRequest(http.MethodGet, "/results?"+tt.query, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			var page pagination.PageResult[results.Anomaly]
			if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			if page.Total != tt.wantTotal {
				t.Fatalf("total: got %d, want %d", page.Total, tt.wantTotal)
			}
			if tt.wantTotal > 0 && page.Data[0].Activity != tt.wantActivity {
				t.Errorf("activity: got %s, want %s", page.Data[0].Activity, tt.wantActivity)
			}
		})
	}
}

func TestBrowseUnavailable(t *testing.T) {
	mux := unavailableMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "error") {
		t.Errorf("body should carry an error payload: %s", w.Body.String())
	}
}

func TestAnomaliesEndpoint(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results/anomalies?date=2011-06-01", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var day results.Day
	if err := json.NewDecoder(w.Body).Decode(&day); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if day.Date != "2011-06-01" {
		t.Errorf("date: got %s", day.Date)
	}
	if day.Count != 2 || len(day.Anomalies) != 2 {
		t.Fatalf("count: got %d (%d rows), want 2", day.Count, len(day.Anomalies))
	}
	if day.Anomalies[0].Index != 0 || day.Anomalies[1].Index != 1 {
		t.Errorf("day indexes should start at zero: %+v", day.Anomalies)
	}
	if day.Anomalies[1].Activity != "Work" {
		t.Errorf("second anomaly: got %s, want Work", day.Anomalies[1].Activity)
	}
}

func TestAnomaliesEmptyDay(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results/anomalies?date=2011-06-20", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("empty day is not an error, got %d", w.Code)
	}

	var day results.Day
	if err := json.NewDecoder(w.Body).Decode(&day); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if day.Count != 0 || len(day.Anomalies) != 0 {
		t.Errorf("count: got %d (%d rows), want 0", day.Count, len(day.Anomalies))
	}
}

func TestAnomaliesBadDate(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"malformed date", "/results/anomalies?date=junk"},
		{"missing date", "/results/anomalies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := loadedMux(t)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
}

func TestCalendarEndpoint(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results/calendar", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var cal results.Calendar
	if err := json.NewDecoder(w.Body).Decode(&cal); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if cal.MinDate != "2011-06-01" || cal.MaxDate != "2011-06-30" || cal.DefaultDate != "2011-06-01" {
		t.Errorf("bounds: got %s..%s default %s", cal.MinDate, cal.MaxDate, cal.DefaultDate)
	}
	if len(cal.Dates) != 2 {
		t.Errorf("dates: got %v, want two entries", cal.Dates)
	}
}

func TestExportEndpoint(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results/export", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="results.csv"` {
		t.Errorf("content disposition: got %q", cd)
	}

	store, err := results.DecodeSnapshot(w.Body)
	if err != nil {
		t.Fatalf("exported snapshot should decode: %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("exported records: got %d, want 3", store.Len())
	}
}

func TestStatusEndpoint(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/results/status", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var status results.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !strings.HasPrefix(status.Source, "file:") {
		t.Errorf("source: got %q, want file-backed winner", status.Source)
	}
	if status.Records != 3 || status.Sensors != 2 {
		t.Errorf("shape: got %d records / %d sensors, want 3 / 2", status.Records, status.Sensors)
	}
}

func TestResultsMethodNotAllowed(t *testing.T) {
	mux := loadedMux(t)

	req := httptest.NewRequest(http.MethodPost, "/results", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", w.Code)
	}
}
