package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"argus/pkg/formatting"
)

// Snapshot header spellings produced by the detection pipeline over its
// lifetime. Matching is case-insensitive; every unrecognized column is
// treated as a sensor feature column.
const (
	headerTimestamp     = "timestamp"
	headerActivity      = "activity"
	headerConfidence    = "prediction_confidence"
	headerConfidenceAlt = "confidence"
)

// defaultActivity labels rows whose activity cell is missing or blank.
const defaultActivity = "Unknown"

var timestampLayouts = []string{
	formatting.TimestampLayout,
	time.RFC3339,
	DateLayout,
}

// DecodeSnapshot reads a result-table snapshot in CSV form. The header
// row locates the timestamp, activity, and confidence columns; the rest
// become feature columns in file order. Missing activity or confidence
// cells fall back to defaults, and unparseable timestamps decode as the
// zero time so row positions are preserved.
func DecodeSnapshot(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("snapshot is empty")
		}
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}

	layout, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	store := &Store{
		Columns: layout.columns,
		Records: make([]Record, 0),
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot row %d: %w", len(store.Records)+2, err)
		}
		store.Records = append(store.Records, layout.decode(row))
	}

	return store, nil
}

// EncodeSnapshot writes the store as a CSV snapshot using the canonical
// pipeline header spellings. Zero timestamps encode as empty cells.
func EncodeSnapshot(w io.Writer, s *Store) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Timestamp", "Activity", "Prediction_Confidence"}, s.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range s.Records {
		row[0] = ""
		if !rec.Timestamp.IsZero() {
			row[0] = rec.Timestamp.Format(formatting.TimestampLayout)
		}
		row[1] = rec.Activity
		row[2] = strconv.FormatFloat(rec.Confidence, 'f', -1, 64)

		for c := range s.Columns {
			v := 0.0
			if c < len(rec.Features) {
				v = rec.Features[c]
			}
			row[3+c] = strconv.FormatFloat(v, 'f', -1, 64)
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing snapshot row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// snapshotLayout records which CSV column feeds which record field.
type snapshotLayout struct {
	timestamp  int
	activity   int
	confidence int
	features   []int
	columns    []string
}

func resolveHeader(header []string) (*snapshotLayout, error) {
	layout := &snapshotLayout{timestamp: -1, activity: -1, confidence: -1}

	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		switch strings.ToLower(trimmed) {
		case headerTimestamp:
			layout.timestamp = i
		case headerActivity:
			layout.activity = i
		case headerConfidence, headerConfidenceAlt:
			layout.confidence = i
		default:
			layout.features = append(layout.features, i)
			layout.columns = append(layout.columns, trimmed)
		}
	}

	if layout.timestamp == -1 {
		return nil, errors.New("snapshot has no timestamp column")
	}

	return layout, nil
}

func (l *snapshotLayout) decode(row []string) Record {
	rec := Record{
		Timestamp: parseTimestamp(cell(row, l.timestamp)),
		Activity:  defaultActivity,
		Features:  make([]float64, len(l.features)),
	}

	if v := cell(row, l.activity); v != "" {
		rec.Activity = v
	}

	if v := cell(row, l.confidence); v != "" {
		if c, err := strconv.ParseFloat(v, 64); err == nil {
			rec.Confidence = clampConfidence(c)
		}
	}

	for n, i := range l.features {
		if v := cell(row, i); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				rec.Features[n] = f
			}
		}
	}

	return rec
}

// clampConfidence bounds a decoded confidence to the [0, 1] probability
// range. NaN collapses to 0.
func clampConfidence(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v > 0:
		return v
	default:
		return 0
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
