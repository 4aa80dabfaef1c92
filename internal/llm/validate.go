package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/verifactura/invoice-extractor/internal/common"
)

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
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

// ParseModelResponse interprets the model's textual response as a single
// JSON object conforming to the invoice schema. Anything else is
// InvalidModelOutput; raw unparsed text is never handed back to callers.
func ParseModelResponse(raw string) (map[string]any, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil, common.Errorf(common.KindInvalidModelOutput, "model returned an empty response")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, common.NewError(common.KindInvalidModelOutput,
			"model did not return a valid JSON object", err)
	}
	if err := ValidateJSONAgainstSchema(BuildInvoiceSchema(), []byte(content)); err != nil {
		return nil, common.NewError(common.KindInvalidModelOutput,
			"model response does not match the invoice schema", err)
	}
	return fields, nil
}
