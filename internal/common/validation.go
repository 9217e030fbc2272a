package common

import (
	"fmt"
	"slices"

	"jobfit/internal/errors"
	"jobfit/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and the
// formatter registry. An empty configured list allows any registered format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	allowed := supportedFormats
	if len(allowed) == 0 {
		allowed = formatters.GlobalRegistry.GetSupportedFormats()
	}

	if !slices.Contains(allowed, format) {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, allowed), nil)
	}
	if !slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format) {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("output format '%s' is configured but has no formatter", format), nil)
	}
	return nil
}
