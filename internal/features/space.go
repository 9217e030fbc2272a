// Package features turns a set of skills into the ordered numeric vector a
// trained model expects.
package features

import (
	"fmt"

	apperrors "jobfit/internal/errors"
)

// Space is the ordered list of feature names fixed when the model was trained.
type Space struct {
	names []string
	index map[string]int
}

// NewSpace validates and freezes a feature name list.
func NewSpace(names []string) (*Space, error) {
	if len(names) == 0 {
		return nil, apperrors.NewArtifactError(apperrors.ErrCodeArtifactInconsistent,
			"feature space is empty", nil)
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, apperrors.NewArtifactError(apperrors.ErrCodeArtifactInconsistent,
				fmt.Sprintf("feature %d has an empty name", i), nil)
		}
		if prev, dup := index[name]; dup {
			return nil, apperrors.NewArtifactError(apperrors.ErrCodeArtifactInconsistent,
				fmt.Sprintf("feature %q appears at positions %d and %d", name, prev, i), nil)
		}
		index[name] = i
	}

	return &Space{names: append([]string(nil), names...), index: index}, nil
}

// Names returns the feature names in model order.
func (s *Space) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of features.
func (s *Space) Len() int {
	return len(s.names)
}

// Position returns the index of a feature name.
func (s *Space) Position(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// SkillSet collapses a skill list into a set. Order and duplicates are irrelevant.
func SkillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		set[skill] = struct{}{}
	}
	return set
}
