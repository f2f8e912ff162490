package explain

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a smart-home security analyst. You explain why " +
	"an activity-recognition model flagged a sensor reading as anomalous. " +
	"Return only JSON."

// userPrompt renders the anomaly context into the generation request.
// The model is asked for strict JSON so the narrative can be split into
// report sections.
func userPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Anomaly under review:\n")
	fmt.Fprintf(&sb, "- Date: %s\n", req.Date)
	fmt.Fprintf(&sb, "- Time: %s\n", req.Time)
	fmt.Fprintf(&sb, "- Activity: %s\n", req.Activity)
	fmt.Fprintf(&sb, "- Model confidence: %s\n", req.Confidence)

	if len(req.Sensors) > 0 {
		fmt.Fprintf(&sb, "- Active sensors: %s\n", strings.Join(req.Sensors, ", "))
	} else {
		fmt.Fprintf(&sb, "- Active sensors: none recorded\n")
	}

	if len(req.Attribution) > 0 {
		fmt.Fprintf(&sb, "- Sensors weighted most by the model:\n")
		for _, c := range req.Attribution {
			fmt.Fprintf(&sb, "  - %s (%+.3f)\n", c.Sensor, c.Weight)
		}
		if req.Standardized {
			fmt.Fprintf(&sb, "- Weights are computed on standardized readings, not raw values.\n")
		}
	}

	sb.WriteString(`
Rules:
- Explain in plain language why this reading stands out for the resident's routine.
- Ground every claim in the sensors and times above; do not invent readings.
- Suggest what an operator should check next.
- Output JSON only, with this schema:
  {"analysis":"2-4 sentences explaining the anomaly","context":"1-2 sentences of operational guidance"}
`)

	return sb.String()
}
