package llm

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is deliberately permissive: every field is optional and
// only types are constrained, because a partially-filled record is still
// usable downstream. Unknown keys are tolerated.
func BuildDocumentJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"category":    map[string]any{"type": "string"},
			"author":      map[string]any{"type": "string"},
			"published":   map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"summary": map[string]any{"type": "string"},
		},
	}
}
