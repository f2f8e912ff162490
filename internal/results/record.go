// Package results implements the anomaly result domain for Argus.
// It loads the detection result table through an ordered fallback chain
// of sources, caches it for the process lifetime, and answers
// calendar-date queries against it.
package results

import "time"

// Record is a single row of the detection result table: the moment an
// anomaly was flagged, the activity label the pipeline assigned, the
// model confidence, and the sensor feature vector the detector saw.
//
// A zero Timestamp marks a row whose source value was missing or
// unparseable. The row is retained so feature attribution stays aligned
// with row positions, but it never matches a calendar-date query.
type Record struct {
	Timestamp  time.Time
	Activity   string
	Confidence float64
	Features   []float64
}

// Store is the full result table: feature column names plus rows in
// source order. Features in each Record align positionally with Columns.
type Store struct {
	Columns []string
	Records []Record
}

// Len returns the number of rows in the store.
func (s *Store) Len() int {
	return len(s.Records)
}

// ActiveSensors returns the names of the feature columns with a positive
// reading in row i. Returns nil if i is out of range.
func (s *Store) ActiveSensors(i int) []string {
	if i < 0 || i >= len(s.Records) {
		return nil
	}

	var active []string
	for c, v := range s.Records[i].Features {
		if c < len(s.Columns) && v > 0 {
			active = append(active, s.Columns[c])
		}
	}
	return active
}
