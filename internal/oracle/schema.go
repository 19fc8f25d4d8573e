package oracle

// BuildCitationJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the oracle as a structured output constraint
// and also use it locally to validate what comes back.
func BuildCitationJSONSchema() map[string]any {
	statuses := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		statuses = append(statuses, string(s))
	}

	record := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"original_text":  map[string]any{"type": "string", "minLength": 1},
			"corrected_text": map[string]any{"type": "string"},
			"status":         map[string]any{"type": "string", "enum": statuses},
			"court_name":     map[string]any{"type": "string"},
			"decision_date":  map[string]any{"type": "string", "pattern": `^\d{4}(-\d{2}(-\d{2})?)?$`},
			"note":           map[string]any{"type": "string"},
			"sources": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"pinpoint_reference": map[string]any{"type": "string"},
		},
		"required": []string{"original_text", "status"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"citations": map[string]any{
				"type":  "array",
				"items": record,
			},
		},
		"required": []string{"citations"},
	}
}
