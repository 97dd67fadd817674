package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/arjunrs/paperbank/internal/model"
)

// questionArraySchema describes the shape the model must return: a JSON array
// of question records. The completion body is untrusted, so it is validated
// against this schema before any field is decoded into a typed record.
func questionArraySchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question_number":    map[string]any{"type": "string"},
				"question_statement": map[string]any{"type": "string"},
				"question_type":      map[string]any{"type": "string"},
				"options": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"has_image":         map[string]any{"type": "boolean"},
				"image_description": map[string]any{"type": "string"},
				"marks":             map[string]any{"type": "number"},
				"difficulty":        map[string]any{"type": "string"},
				"subject":           map[string]any{"type": "string"},
				"topic":             map[string]any{"type": "string"},
			},
			"required": []string{"question_number", "question_statement", "question_type"},
		},
	}
}

// validateAgainstSchema checks data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// decodeQuestions validates the raw completion body and decodes it into typed
// records. Any malformed JSON or field-shape mismatch is an error; the caller
// treats it as retryable.
func decodeQuestions(raw []byte) ([]model.ExtractedQuestion, error) {
	if err := validateAgainstSchema(questionArraySchema(), raw); err != nil {
		return nil, err
	}
	var qs []model.ExtractedQuestion
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return qs, nil
}
