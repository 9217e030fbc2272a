package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfit/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	for _, format := range configured {
		assert.NoError(t, ValidateOutputFormat(format, configured), format)
	}

	tests := []struct {
		name      string
		format    string
		supported []string
		message   string
	}{
		{"unknown format", "xml", configured, "INVALID_FORMAT: unsupported output format 'xml'. Supported formats: [json text markdown]"},
		{"formats are case sensitive", "JSON", configured, ""},
		{"empty format", "", configured, ""},
		{"not in a narrowed list", "text", []string{"json"}, "INVALID_FORMAT: unsupported output format 'text'. Supported formats: [json]"},
		{"registry fallback rejects unknown", "xml", nil, "INVALID_FORMAT: unsupported output format 'xml'. Supported formats: [json markdown text]"},
		{"configured without formatter", "yaml", []string{"json", "yaml"}, "INVALID_FORMAT: output format 'yaml' is configured but has no formatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			if tt.message != "" {
				assert.EqualError(t, err, tt.message)
			}
		})
	}
}

func TestValidateOutputFormatRegistryFallback(t *testing.T) {
	assert.NoError(t, ValidateOutputFormat("markdown", nil))
	assert.NoError(t, ValidateOutputFormat("text", []string{}))
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}
	for i := 0; i < b.N; i++ {
		_ = ValidateOutputFormat("json", supported)
	}
}
