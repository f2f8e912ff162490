package explain

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
)

// attributionTop caps how many contributions a report carries.
const attributionTop = 5

// Contribution is one sensor's signed attribution weight for a single
// anomaly row.
type Contribution struct {
	Sensor string  `json:"sensor"`
	Weight float64 `json:"weight"`
}

// Attribution holds the per-row feature attribution matrix exported by
// the detection pipeline. Values rows align with result table rows;
// each row aligns positionally with Columns. Mean and Scale, when
// present, are the standardization parameters the explainer applied to
// the inputs before scoring.
type Attribution struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
	Mean    []float64   `json:"mean,omitempty"`
	Scale   []float64   `json:"scale,omitempty"`
}

// Standardized reports whether the artifact carries scaler parameters,
// meaning the weights were computed on standardized readings.
func (a *Attribution) Standardized() bool {
	return a != nil && len(a.Mean) > 0 && len(a.Scale) > 0
}

// LoadAttribution reads an attribution artifact from path. The artifact
// is optional equipment: callers treat a load failure as "no
// attribution", not as a fault.
func LoadAttribution(path string) (*Attribution, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attribution artifact: %w", err)
	}

	var attr Attribution
	if err := json.Unmarshal(raw, &attr); err != nil {
		return nil, fmt.Errorf("decoding attribution artifact: %w", err)
	}

	if len(attr.Columns) == 0 {
		return nil, fmt.Errorf("attribution artifact has no columns")
	}

	return &attr, nil
}

// Top returns the strongest contributions for the given result row,
// ordered by absolute weight. Returns nil when the row has no
// attribution, so a misaligned artifact degrades to a report without
// an attribution section.
func (a *Attribution) Top(row int) []Contribution {
	if a == nil || row < 0 || row >= len(a.Values) {
		return nil
	}

	values := a.Values[row]
	contributions := make([]Contribution, 0, len(a.Columns))
	for i, name := range a.Columns {
		if i >= len(values) || values[i] == 0 {
			continue
		}
		contributions = append(contributions, Contribution{Sensor: name, Weight: values[i]})
	}

	slices.SortStableFunc(contributions, func(x, y Contribution) int {
		ax, ay := math.Abs(x.Weight), math.Abs(y.Weight)
		switch {
		case ax > ay:
			return -1
		case ax < ay:
			return 1
		default:
			return 0
		}
	})

	if len(contributions) > attributionTop {
		contributions = contributions[:attributionTop]
	}
	if len(contributions) == 0 {
		return nil
	}
	return contributions
}
