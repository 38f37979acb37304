package llm

// SchemaHint is the example shape embedded in the prompt.
func SchemaHint() map[string]any {
	return map[string]any{
		"meta": map[string]any{"units": "string|null", "ttm_present": true, "warnings": []string{"string"}},
		"rows": []map[string]any{
			{
				"account_number":     "string|null",
				"account_name":       "string",
				"y2022":              0,
				"y2023":              0,
				"y2024":              0,
				"ttm":                0,
				"mapped_coa_code":    "string|null",
				"mapped_coa_name":    "string|null",
				"mapping_confidence": 0.0,
				"confidence":         0.0,
				"notes":              "string|null",
			},
		},
	}
}

// BuildConsolidatedJSONSchema returns the JSON Schema (draft 2020-12 subset) a sanitized
// model reply must satisfy before it is decoded.
func BuildConsolidatedJSONSchema() map[string]any {
	row := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"account_number":     nullable("string"),
			"account_name":       map[string]any{"type": "string"},
			"y2022":              nullable("number"),
			"y2023":              nullable("number"),
			"y2024":              nullable("number"),
			"ttm":                nullable("number"),
			"mapped_coa_code":    nullable("string"),
			"mapped_coa_name":    nullable("string"),
			"mapping_confidence": unitInterval(),
			"confidence":         unitInterval(),
			"notes":              nullable("string"),
		},
		"required": []string{"account_name"},
	}
	meta := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"units":       nullable("string"),
			"ttm_present": map[string]any{"type": "boolean"},
			"warnings":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"ttm_present"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"meta": meta,
			"rows": map[string]any{"type": "array", "items": row},
		},
		"required": []string{"meta", "rows"},
	}
}

func nullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

func unitInterval() map[string]any {
	return map[string]any{"type": []string{"number", "null"}, "minimum": 0.0, "maximum": 1.0}
}
