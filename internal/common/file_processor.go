package common

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"jobfit/internal/errors"
	"jobfit/internal/utils"
)

// FileProcessor reads skills files and writes command output.
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

func (fp *FileProcessor) warn(message string, args ...any) {
	if fp.logger != nil {
		fp.logger.Warn(message, args...)
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %s %v\n", message, args)
}

// ReadSkillsFile validates and parses a skills file, one skill per line or
// comma separated.
func (fp *FileProcessor) ReadSkillsFile(filename string, maxSize int64) ([]string, error) {
	if err := utils.ValidateInputFile(filename, maxSize); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Invalid skills file %s", filename), err)
	}
	if !utils.IsTextFile(filename) {
		fp.warn("Skills file may not be a text file", "filename", filename)
	}

	raw, err := os.ReadFile(filename)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	case err != nil:
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}

	skills := utils.ParseSkillList(string(raw))
	if fp.logger != nil {
		fp.logger.Debug("Read skills file", "filename", filename, "skills", len(skills))
	}
	return skills, nil
}

// WriteOutput writes rendered output, creating parent directories.
func (fp *FileProcessor) WriteOutput(filename, content string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidOutput,
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	if err := os.WriteFile(filepath.Clean(filename), []byte(content), 0600); err != nil {
		return errors.NewIOError(errors.ErrCodeFileWriteFailed,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
