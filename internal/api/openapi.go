package api

import (
	"argus/internal/config"
	"argus/pkg/openapi"
)

// specJSON builds the OpenAPI document for the API module and returns
// it pre-serialized for ServeSpec.
func specJSON(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(schemas())

	addResultPaths(spec)
	addSessionPaths(spec)

	return openapi.MarshalJSON(spec)
}

func addResultPaths(spec *openapi.Spec) {
	spec.Paths["/results"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Browse the result table",
			Tags:    []string{"results"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
				openapi.QueryParam("page_size", "integer", "Results per page", false),
				openapi.QueryParam("activity", "string", "Only rows with this activity label", false),
				openapi.QueryParam("min_confidence", "number", "Only rows at or above this confidence", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("A page of result rows", "AnomalyPage"),
				503: openapi.ResponseRef("ServiceUnavailable"),
			},
		},
	}

	spec.Paths["/results/anomalies"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "List anomalies for a calendar date",
			Description: "A date with no anomalies yields an empty list, not an error.",
			Tags:        []string{"results"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("date", "string", "Calendar date (YYYY-MM-DD)", true),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("The day's anomalies", "Day"),
				400: openapi.ResponseRef("BadRequest"),
				503: openapi.ResponseRef("ServiceUnavailable"),
			},
		},
	}

	spec.Paths["/results/calendar"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Date picker bounds and anomaly dates",
			Tags:    []string{"results"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Picker bounds and the dates carrying anomalies", "Calendar"),
				503: openapi.ResponseRef("ServiceUnavailable"),
			},
		},
	}

	spec.Paths["/results/export"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Download the result table as a CSV snapshot",
			Tags:    []string{"results"},
			Responses: map[int]*openapi.Response{
				200: {
					Description: "CSV snapshot attachment",
					Content: map[string]*openapi.MediaType{
						"text/csv": {Schema: &openapi.Schema{Type: "string"}},
					},
				},
				503: openapi.ResponseRef("ServiceUnavailable"),
			},
		},
	}

	spec.Paths["/results/status"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Which source the fallback chain settled on",
			Tags:    []string{"results"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Source name and table dimensions", "Status"),
				503: openapi.ResponseRef("ServiceUnavailable"),
			},
		},
	}
}

func addSessionPaths(spec *openapi.Spec) {
	stateResponses := func(extra map[int]*openapi.Response) map[int]*openapi.Response {
		responses := map[int]*openapi.Response{
			200: openapi.ResponseJSON("Workflow state after the operation", "SessionState"),
		}
		for code, response := range extra {
			responses[code] = response
		}
		return responses
	}

	spec.Paths["/session"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Current workflow state",
			Description: "Sessions are addressed by an HTTP-only cookie; requests without one get a fresh idle session.",
			Tags:        []string{"session"},
			Responses:   stateResponses(nil),
		},
		Delete: &openapi.Operation{
			Summary:   "Reset the workflow to idle",
			Tags:      []string{"session"},
			Responses: stateResponses(nil),
		},
	}

	spec.Paths["/session/date"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Confirm an analysis date",
			Description: "Valid from any state. Confirming replaces the anomaly list and discards any selection or explanation.",
			Tags:        []string{"session"},
			RequestBody: openapi.RequestBodyJSON("ConfirmDate", true),
			Responses: stateResponses(map[int]*openapi.Response{
				400: openapi.ResponseRef("BadRequest"),
				503: openapi.ResponseRef("ServiceUnavailable"),
			}),
		},
	}

	spec.Paths["/session/selection"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Select an anomaly from the confirmed day",
			Tags:        []string{"session"},
			RequestBody: openapi.RequestBodyJSON("ChooseAnomaly", true),
			Responses: stateResponses(map[int]*openapi.Response{
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			}),
		},
	}

	spec.Paths["/session/explanation"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Generate an explanation for the selected anomaly",
			Description: "Blocks for the duration of model inference. At most one explanation per session may be in flight.",
			Tags:        []string{"session"},
			Responses: stateResponses(map[int]*openapi.Response{
				409: openapi.ResponseRef("Conflict"),
				502: openapi.ResponseRef("BadGateway"),
				503: openapi.ResponseRef("ServiceUnavailable"),
			}),
		},
	}
}

func schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Anomaly": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"index":      {Type: "integer", Description: "Position within the day's list"},
				"timestamp":  {Type: "string", Format: "date-time"},
				"time":       {Type: "string", Example: "08:15:30"},
				"activity":   {Type: "string", Example: "Meal_Preparation"},
				"confidence": {Type: "number", Description: "Detection confidence in [0,1]"},
			},
		},
		"AnomalyPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Anomaly")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"Day": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"date":      {Type: "string", Example: "2011-06-01"},
				"count":     {Type: "integer"},
				"anomalies": {Type: "array", Items: openapi.SchemaRef("Anomaly")},
			},
		},
		"Calendar": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"min_date":     {Type: "string", Example: "2011-01-01"},
				"max_date":     {Type: "string", Example: "2011-12-31"},
				"default_date": {Type: "string", Example: "2011-06-01"},
				"dates":        {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"Status": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"source":  {Type: "string", Description: "Winning source name", Example: "snapshot"},
				"records": {Type: "integer"},
				"sensors": {Type: "integer"},
			},
		},
		"Contribution": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"sensor": {Type: "string"},
				"weight": {Type: "number", Description: "Signed attribution weight"},
			},
		},
		"Explanation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"date":         {Type: "string"},
				"index":        {Type: "integer"},
				"row":          {Type: "integer"},
				"time":         {Type: "string"},
				"activity":     {Type: "string"},
				"confidence":   {Type: "string", Example: "97.00%"},
				"analysis":     {Type: "string"},
				"context":      {Type: "string"},
				"report":       {Type: "string", Description: "Renderable plain-text report"},
				"sensors":      {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"attribution":  {Type: "array", Items: openapi.SchemaRef("Contribution")},
				"model":        {Type: "string"},
				"elapsed_ms":   {Type: "integer"},
				"generated_at": {Type: "string", Format: "date-time"},
			},
		},
		"SessionState": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"phase": {
					Type: "string",
					Enum: []any{"idle", "date_confirmed", "anomaly_chosen", "explanation_ready", "explanation_failed"},
				},
				"date":        {Type: "string"},
				"count":       {Type: "integer"},
				"anomalies":   {Type: "array", Items: openapi.SchemaRef("Anomaly")},
				"selected":    {Type: "integer", Description: "Selected index, -1 when nothing is selected"},
				"explanation": openapi.SchemaRef("Explanation"),
				"failure":     {Type: "string"},
				"in_flight":   {Type: "boolean"},
			},
		},
		"ConfirmDate": {
			Type:     "object",
			Required: []string{"date"},
			Properties: map[string]*openapi.Schema{
				"date": {Type: "string", Example: "2011-06-01"},
			},
		},
		"ChooseAnomaly": {
			Type:     "object",
			Required: []string{"index"},
			Properties: map[string]*openapi.Schema{
				"index": {Type: "integer", Minimum: floatPtr(0)},
			},
		},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
