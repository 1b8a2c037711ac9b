package recipe

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hagay3/baker/errors"
)

// builtinSchema is the default recipe document schema. A deployment can
// replace it through validation.schema-file.
const builtinSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "bakery recipe",
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string"},
    "interactions": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "events": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

// Validator checks recipe documents against a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the recipe schema. An empty schemaFile selects the
// built-in schema; otherwise the file is loaded and compiled instead.
func NewValidator(schemaFile string) (*Validator, error) {
	var loader gojsonschema.JSONLoader

	if schemaFile == "" {
		loader = gojsonschema.NewStringLoader(builtinSchema)
	} else {
		abs, err := filepath.Abs(schemaFile)
		if err != nil {
			return nil, errors.WrapInvalid(err, "RecipeValidator", "NewValidator", "schema file path")
		}
		loader = gojsonschema.NewReferenceLoader("file://" + abs)
	}

	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, errors.WrapInvalid(err, "RecipeValidator", "NewValidator", "schema compilation")
	}

	return &Validator{schema: schema}, nil
}

// Validate checks one JSON document against the schema. Violations are
// reported together, one per schema error.
func (v *Validator) Validate(document []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("%w: %s", errors.ErrRecipeInvalid, strings.Join(details, "; "))
	}

	return nil
}
