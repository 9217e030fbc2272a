package common

import (
	"fmt"
	"io"
	"os"

	"jobfit/internal/errors"
	"jobfit/internal/formatters"
)

// CommandConfig holds the output options shared by every command.
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders a report and sends it to stdout or a file.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
	stdout   io.Writer
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		stdout:   os.Stdout,
	}
}

// HandleOutput renders data in the configured format. An empty OutputFile
// means stdout.
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	rendered, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		_, err := io.WriteString(oh.stdout, rendered)
		return err
	}

	if err := oh.files.WriteOutput(config.OutputFile, rendered); err != nil {
		return err
	}
	if oh.logger != nil {
		oh.logger.Info("Output written", "file", config.OutputFile, "format", config.OutputFormat)
	}
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
