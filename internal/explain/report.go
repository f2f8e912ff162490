package explain

import (
	"fmt"
	"strings"
)

// defaultContext fills the CONTEXT section when the model returns no
// structured context of its own.
const defaultContext = "Readings come from the home's ambient sensor network. " +
	"Review the active sensors against the resident's usual routine for this " +
	"time of day before escalating."

// buildReport assembles the plain-text analysis report. Line prefixes
// are a stable contract with the dashboard renderer: the title line
// renders as a heading, Date/Time/Activity lines render bold, the
// SENSORS/ANALYSIS/CONTEXT section labels render as subheadings, and
// two-space bullet lines render as list items.
func buildReport(req Request, narrative *Narrative) string {
	var sb strings.Builder

	sb.WriteString("ANOMALY ANALYSIS REPORT\n\n")
	fmt.Fprintf(&sb, "Date: %s\n", req.Date)
	fmt.Fprintf(&sb, "Time: %s\n", req.Time)
	fmt.Fprintf(&sb, "Activity: %s\n", req.Activity)
	fmt.Fprintf(&sb, "Confidence: %s\n", req.Confidence)

	sb.WriteString("\nACTIVE SENSORS:\n")
	if len(req.Sensors) > 0 {
		for _, sensor := range req.Sensors {
			fmt.Fprintf(&sb, "  • %s\n", sensor)
		}
	} else {
		sb.WriteString("No sensor activity recorded for this reading.\n")
	}

	if len(req.Attribution) > 0 {
		sb.WriteString("\nTop contributing sensors (SHAP):\n")
		for _, c := range req.Attribution {
			fmt.Fprintf(&sb, "  - %s (%+.3f)\n", c.Sensor, c.Weight)
		}
	}

	sb.WriteString("\nLLM ANALYSIS:\n")
	sb.WriteString(narrative.Analysis)
	sb.WriteString("\n")

	sb.WriteString("\nCONTEXT:\n")
	sb.WriteString(narrative.Context)
	sb.WriteString("\n")
	if len(req.Attribution) > 0 {
		sb.WriteString("Contribution weights are SHAP values")
		if req.Standardized {
			sb.WriteString(" computed on standardized sensor readings")
		}
		sb.WriteString(".\n")
	}

	return sb.String()
}
