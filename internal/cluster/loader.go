package cluster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "jobfit/internal/errors"
)

// LoadFile reads a cluster definition YAML file.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewConfigError(apperrors.ErrCodeFileNotFound,
				"cluster config not found", err).WithContext("path", path)
		}
		return nil, apperrors.NewConfigError(apperrors.ErrCodeFileNotReadable,
			"failed to read cluster config", err).WithContext("path", path)
	}

	idx, err := Parse(data)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return idx, nil
}

// Parse decodes a mapping of cluster name to a sequence of skill names.
//
//	backend:
//	  - Python
//	  - Go
//	frontend: [JavaScript, CSS]
//
// A null value is an empty cluster. Anything else is rejected.
func Parse(data []byte) (*Index, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid("cluster config is not valid YAML", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, invalid("cluster config is empty", nil)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, invalid(fmt.Sprintf("cluster config root must be a mapping (line %d)", root.Line), nil)
	}

	clusters := make(map[string][]string, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, invalid(fmt.Sprintf("cluster name must be a scalar (line %d)", key.Line), nil)
		}
		if _, dup := clusters[key.Value]; dup {
			return nil, invalid(fmt.Sprintf("duplicate cluster %q (line %d)", key.Value, key.Line), nil)
		}

		skills, err := parseSkills(key.Value, value)
		if err != nil {
			return nil, err
		}
		clusters[key.Value] = skills
	}

	return New(clusters)
}

func parseSkills(cluster string, node *yaml.Node) ([]string, error) {
	switch {
	case node.Kind == yaml.ScalarNode && node.Tag == "!!null":
		return []string{}, nil
	case node.Kind != yaml.SequenceNode:
		return nil, invalid(fmt.Sprintf("skills of cluster %q must be a list (line %d)", cluster, node.Line), nil)
	}

	skills := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.Tag == "!!null" || item.Value == "" {
			return nil, invalid(fmt.Sprintf("cluster %q has a non-scalar or empty skill (line %d)", cluster, item.Line), nil)
		}
		skills = append(skills, item.Value)
	}
	return skills, nil
}

func invalid(message string, cause error) error {
	return apperrors.NewConfigError(apperrors.ErrCodeInvalidClusterConfig, message, cause)
}
