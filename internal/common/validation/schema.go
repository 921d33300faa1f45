// internal/common/validation/schema.go
package validation

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"

	apperrors "infinz-leadgen/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schema names.
const (
	SchemaSessionStart    = "session-start"
	SchemaMobile          = "mobile"
	SchemaOTPVerify       = "otp-verify"
	SchemaPersonalDetails = "personal-details"
	SchemaLoan            = "loan"
	SchemaEMI             = "emi"
)

// SchemaValidator checks raw request bodies against the embedded JSON schemas.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator compiles every schema under schemas/.
func NewSchemaValidator() (*SchemaValidator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	schemas := make(map[string]*gojsonschema.Schema, len(entries))
	for _, entry := range entries {
		raw, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		schemas[strings.TrimSuffix(entry.Name(), ".json")] = schema
	}
	return &SchemaValidator{schemas: schemas}, nil
}

// Validate returns a VALIDATION_FAILED StandardError listing every offending field.
func (v *SchemaValidator) Validate(name string, body []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return apperrors.NewInternalError(fmt.Errorf("unknown schema %q", name))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.NewFieldValidationError("body", "Request body must be valid JSON")
	}
	if result.Valid() {
		return nil
	}

	fields := FieldErrors{}
	for _, desc := range result.Errors() {
		fields.Add(fieldName(desc), desc.Description())
	}
	return apperrors.NewValidationError(fields)
}

// rootField is how gojsonschema names the document itself.
const rootField = "(root)"

// fieldName maps a schema error to the JSON property it concerns.
func fieldName(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if prop, ok := desc.Details()["property"].(string); ok && prop != "" {
		if field == rootField {
			return prop
		}
		return field + "." + prop
	}
	if field == rootField {
		return "body"
	}
	return field
}
