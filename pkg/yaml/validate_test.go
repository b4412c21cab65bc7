package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/yaml"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"apiVersion": {"type": "string"},
		"policies": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"rules": {"type": "array", "items": {"type": "string"}},
					"severityOverride": {
						"type": "object",
						"additionalProperties": {"enum": ["info", "warn", "error"]}
					}
				},
				"required": ["id"]
			}
		}
	},
	"required": ["apiVersion"]
}`

func TestNewValidator(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errMsg     string
		schemaData string
		wantErr    bool
	}{
		"valid schema": {
			schemaData: testSchema,
		},
		"empty schema": {
			schemaData: `{}`,
		},
		"invalid json": {
			schemaData: `{"invalid": json}`,
			wantErr:    true,
			errMsg:     "unmarshal schema",
		},
		"invalid schema": {
			schemaData: `{"type": "invalid_type"}`,
			wantErr:    true,
			errMsg:     "compile schema",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			validator, err := yaml.NewValidator("test.json", []byte(tc.schemaData))
			if tc.wantErr {
				require.ErrorContains(t, err, tc.errMsg)
				assert.Nil(t, validator)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, validator)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	validator := yaml.MustNewValidator("test.json", []byte(testSchema))

	tcs := map[string]struct {
		data     any
		wantPath string
	}{
		"valid": {
			data: map[string]any{
				"apiVersion": "v1",
				"policies": []any{
					map[string]any{"id": "a", "rules": []any{"peer-in-external"}},
				},
			},
		},
		"missing required root field": {
			data:     map[string]any{},
			wantPath: "$",
		},
		"wrong type": {
			data:     map[string]any{"apiVersion": 1},
			wantPath: "$.apiVersion",
		},
		"missing id in second policy": {
			data: map[string]any{
				"apiVersion": "v1",
				"policies": []any{
					map[string]any{"id": "a"},
					map[string]any{"rules": []any{}},
				},
			},
			wantPath: "$.policies[1]",
		},
		"bad rule entry": {
			data: map[string]any{
				"apiVersion": "v1",
				"policies": []any{
					map[string]any{"id": "a", "rules": []any{"x", 5}},
				},
			},
			wantPath: "$.policies[0].rules[1]",
		},
		"bad severity": {
			data: map[string]any{
				"apiVersion": "v1",
				"policies": []any{
					map[string]any{
						"id":               "a",
						"severityOverride": map[string]any{"custom": "fatal"},
					},
				},
			},
			wantPath: "$.policies[0].severityOverride.custom",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := validator.Validate(tc.data)
			if tc.wantPath == "" {
				require.NoError(t, err)

				return
			}

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			require.NotNil(t, yamlErr.Path)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
		})
	}
}

func TestValidator_ValidateBytes(t *testing.T) {
	t.Parallel()

	validator := yaml.MustNewValidator("test.json", []byte(testSchema))

	src := []byte(`apiVersion: v1
policies:
  - id: ui
    rules:
      - peer-in-external
      - 42
`)

	err := validator.ValidateBytes(src)

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	assert.Equal(t, src, yamlErr.Source)
	assert.Equal(t, "$.policies[0].rules[1]", yamlErr.Path.String())
	assert.Contains(t, err.Error(), "[6:")
	assert.Contains(t, err.Error(), "42")

	require.NoError(t, validator.ValidateBytes([]byte("apiVersion: v1\n")))
}
