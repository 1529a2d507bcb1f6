package scoring

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks decoded model output against the scoring schema. It is compiled once and is
// safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schemaMap map[string]any) (*Validator, error) {
	if len(schemaMap) == 0 {
		return nil, fmt.Errorf("scoring schema is empty")
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("compile scoring schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate returns "" when doc conforms, otherwise "field: reason" pairs joined by "; ".
func (v *Validator) Validate(doc any) (string, error) {
	res, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return "", fmt.Errorf("validation error: %w", err)
	}
	if res.Valid() {
		return "", nil
	}
	errs := make([]string, len(res.Errors()))
	for i, re := range res.Errors() {
		errs[i] = re.Field() + ": " + re.Description()
	}
	return strings.Join(errs, "; "), nil
}
