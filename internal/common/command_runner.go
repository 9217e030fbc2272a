package common

import (
	"context"

	"jobfit/internal/errors"
)

// SkillInput gathers the skills a command runs against. Skills come from
// positional arguments, the --skills flag and an optional skills file, in
// that order.
type SkillInput struct {
	Args        []string
	Skills      []string
	SkillsFile  string
	MaxFileSize int64
}

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(skills []string, cfg CommandConfig)

// OperationFunc runs a model operation over the collected skills.
type OperationFunc[Output any] func(ctx context.Context, skills []string) (Output, error)

// CollectSkills merges every skill source of a command into one list.
func CollectSkills(fp *FileProcessor, input SkillInput) ([]string, error) {
	skills := make([]string, 0, len(input.Args)+len(input.Skills))
	skills = append(skills, input.Args...)
	skills = append(skills, input.Skills...)

	if input.SkillsFile != "" {
		fromFile, err := fp.ReadSkillsFile(input.SkillsFile, input.MaxFileSize)
		if err != nil {
			return nil, err
		}
		skills = append(skills, fromFile...)
	}
	return skills, nil
}

// RunSkillsCommand encapsulates the common logic for skill-list CLI commands:
// collect skills, run the operation and write the formatted result.
func RunSkillsCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	input SkillInput,
	operation OperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	skills, err := CollectSkills(fileProcessor, input)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(skills, cmdConfig)
	}

	result, err := operation(ctx, skills)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
