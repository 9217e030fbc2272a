// Package cluster maps cluster names to the skills that belong to them.
package cluster

import (
	"sort"

	"github.com/go-playground/validator/v10"

	apperrors "jobfit/internal/errors"
)

// Pair is one (cluster, skill) membership row.
type Pair struct {
	Cluster string
	Skill   string
}

// Index is an immutable bidirectional cluster membership table.
type Index struct {
	names     []string
	members   map[string][]string
	memberSet map[string]map[string]struct{}
	bySkill   map[string][]string
	pairs     []Pair
}

type definition struct {
	Clusters map[string][]string `validate:"required,dive,keys,required,endkeys,dive,required"`
}

var validate = validator.New()

// New builds an Index from cluster name to member skills. Duplicate members
// collapse; a skill may belong to any number of clusters. An empty mapping
// is valid and yields an index with no clusters.
func New(clusters map[string][]string) (*Index, error) {
	if err := validate.Struct(definition{Clusters: clusters}); err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidClusterConfig,
			"cluster definition is missing or contains blank names", err)
	}

	idx := &Index{
		names:     make([]string, 0, len(clusters)),
		members:   make(map[string][]string, len(clusters)),
		memberSet: make(map[string]map[string]struct{}, len(clusters)),
		bySkill:   make(map[string][]string),
	}

	for name := range clusters {
		idx.names = append(idx.names, name)
	}
	sort.Strings(idx.names)

	for _, name := range idx.names {
		set := make(map[string]struct{}, len(clusters[name]))
		for _, skill := range clusters[name] {
			set[skill] = struct{}{}
		}
		skills := make([]string, 0, len(set))
		for skill := range set {
			skills = append(skills, skill)
		}
		sort.Strings(skills)

		idx.members[name] = skills
		idx.memberSet[name] = set
		for _, skill := range skills {
			idx.bySkill[skill] = append(idx.bySkill[skill], name)
			idx.pairs = append(idx.pairs, Pair{Cluster: name, Skill: skill})
		}
	}

	return idx, nil
}

// Clusters returns the cluster names in lexical order.
func (i *Index) Clusters() []string {
	return append([]string(nil), i.names...)
}

// Has reports whether name is a known cluster.
func (i *Index) Has(name string) bool {
	_, ok := i.members[name]
	return ok
}

// MembersOf returns the skills of a cluster, or nil for an unknown cluster.
func (i *Index) MembersOf(name string) []string {
	return append([]string(nil), i.members[name]...)
}

// ClustersContaining returns every cluster the skill belongs to.
func (i *Index) ClustersContaining(skill string) []string {
	return append([]string(nil), i.bySkill[skill]...)
}

// Pairs returns the flattened membership table ordered by cluster then skill.
func (i *Index) Pairs() []Pair {
	return append([]Pair(nil), i.pairs...)
}

// Skills returns every skill that belongs to at least one cluster.
func (i *Index) Skills() []string {
	out := make([]string, 0, len(i.bySkill))
	for skill := range i.bySkill {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// Count returns how many members of the cluster are in available.
func (i *Index) Count(name string, available map[string]struct{}) int {
	set := i.memberSet[name]
	if len(available) < len(set) {
		n := 0
		for skill := range available {
			if _, ok := set[skill]; ok {
				n++
			}
		}
		return n
	}
	n := 0
	for skill := range set {
		if _, ok := available[skill]; ok {
			n++
		}
	}
	return n
}
