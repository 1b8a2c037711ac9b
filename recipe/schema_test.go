package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hagay3/baker/errors"
)

func TestValidator_BuiltinSchema(t *testing.T) {
	validator, err := NewValidator("")
	require.NoError(t, err)

	tests := []struct {
		name     string
		document string
		wantErr  bool
	}{
		{
			name:     "complete recipe",
			document: `{"id": "rye", "name": "Rye", "version": "1", "interactions": ["echo"], "events": ["baked"]}`,
			wantErr:  false,
		},
		{
			name:     "minimal recipe",
			document: `{"id": "rye", "name": "Rye"}`,
			wantErr:  false,
		},
		{
			name:     "missing name",
			document: `{"id": "rye"}`,
			wantErr:  true,
		},
		{
			name:     "missing id",
			document: `{"name": "Rye"}`,
			wantErr:  true,
		},
		{
			name:     "empty id",
			document: `{"id": "", "name": "Rye"}`,
			wantErr:  true,
		},
		{
			name:     "interactions not strings",
			document: `{"id": "rye", "name": "Rye", "interactions": [7]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate([]byte(tt.document))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pkgerrors.ErrRecipeInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ReportsAllViolations(t *testing.T) {
	validator, err := NewValidator("")
	require.NoError(t, err)

	err = validator.Validate([]byte(`{}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
	assert.Contains(t, err.Error(), "name")
}

func TestValidator_SchemaFile(t *testing.T) {
	schemaFile := filepath.Join(t.TempDir(), "recipe.schema.json")
	schema := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["id", "flavor"],
		"properties": {
			"id": {"type": "string"},
			"flavor": {"type": "string"}
		}
	}`
	require.NoError(t, os.WriteFile(schemaFile, []byte(schema), 0o600))

	validator, err := NewValidator(schemaFile)
	require.NoError(t, err)

	assert.NoError(t, validator.Validate([]byte(`{"id": "rye", "flavor": "caraway"}`)))

	err = validator.Validate([]byte(`{"id": "rye", "name": "Rye"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flavor")
}

func TestValidator_BadSchemaFile(t *testing.T) {
	schemaFile := filepath.Join(t.TempDir(), "broken.schema.json")
	require.NoError(t, os.WriteFile(schemaFile, []byte(`{"type": 42}`), 0o600))

	_, err := NewValidator(schemaFile)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalid(err))
}

func TestValidator_MalformedDocument(t *testing.T) {
	validator, err := NewValidator("")
	require.NoError(t, err)

	err = validator.Validate([]byte(`{"id":`))

	require.Error(t, err)
}
