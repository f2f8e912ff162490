package results

import (
	"database/sql"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"argus/pkg/formatting"
	"argus/pkg/repository"
)

// Anomaly is the presentation view of a result row within one calendar
// day. Index is the zero-based position in that day's list and is the
// handle the workflow selects by. Row is the absolute store row backing
// the anomaly, used to align feature attribution.
type Anomaly struct {
	Index      int       `json:"index"`
	Row        int       `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	Time       string    `json:"time"`
	Activity   string    `json:"activity"`
	Confidence float64   `json:"confidence"`
}

// Day is one calendar day's anomaly list. Count equals len(Anomalies);
// zero is the empty-day answer, distinct from a load failure.
type Day struct {
	Date      string    `json:"date"`
	Count     int       `json:"count"`
	Anomalies []Anomaly `json:"anomalies"`
}

// Calendar carries the configured picker bounds alongside the dates
// that actually hold anomalies.
type Calendar struct {
	MinDate     string   `json:"min_date"`
	MaxDate     string   `json:"max_date"`
	DefaultDate string   `json:"default_date"`
	Dates       []string `json:"dates"`
}

// Status reports which source won the fallback chain and the shape of
// the loaded table.
type Status struct {
	Source  string `json:"source"`
	Records int    `json:"records"`
	Sensors int    `json:"sensors"`
}

// Filters contains optional filtering criteria for browse queries.
// Nil fields are ignored. Activity matches case-insensitively.
type Filters struct {
	Activity      *string  `json:"activity,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
}

// Match reports whether a record passes the filters.
func (f Filters) Match(rec Record) bool {
	if f.Activity != nil && !strings.EqualFold(rec.Activity, *f.Activity) {
		return false
	}
	if f.MinConfidence != nil && rec.Confidence < *f.MinConfidence {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if a := values.Get("activity"); a != "" {
		f.Activity = &a
	}

	if mc := values.Get("min_confidence"); mc != "" {
		if v, err := strconv.ParseFloat(mc, 64); err == nil {
			f.MinConfidence = &v
		}
	}

	return f
}

func newAnomaly(index, row int, rec Record) Anomaly {
	return Anomaly{
		Index:      index,
		Row:        row,
		Timestamp:  rec.Timestamp,
		Time:       formatting.Timestamp(rec.Timestamp),
		Activity:   rec.Activity,
		Confidence: rec.Confidence,
	}
}

// databaseRecord is the row shape of the results table. Features are
// stored as a jsonb object keyed by sensor name; column order is
// rebuilt by the database source after all rows are read.
type databaseRecord struct {
	recordedAt sql.NullTime
	activity   string
	confidence float64
	features   map[string]float64
}

func scanRecord(s repository.Scanner) (databaseRecord, error) {
	var (
		rec databaseRecord
		raw []byte
	)

	if err := s.Scan(&rec.recordedAt, &rec.activity, &rec.confidence, &raw); err != nil {
		return rec, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.features); err != nil {
			return rec, err
		}
	}

	return rec, nil
}
