package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"jobfit/internal/cluster"
	apperrors "jobfit/internal/errors"
)

type slotKind int

const (
	indicatorSlot slotKind = iota
	aggregateSlot
)

type slot struct {
	kind slotKind
	name string
}

// Options tunes builder construction.
type Options struct {
	// StrictClusters rejects configured clusters that have no feature in the space.
	StrictClusters bool
}

// Summary describes how a builder maps the feature space.
type Summary struct {
	Features        int      `json:"features"`
	Aggregates      []string `json:"aggregates"`
	Indicators      int      `json:"indicators"`
	IgnoredClusters []string `json:"ignored_clusters,omitempty"`
}

// Builder produces feature vectors. It is immutable and safe for concurrent use.
type Builder struct {
	space    *Space
	clusters *cluster.Index
	slots    []slot
	skills   []string
	ignored  []string
	universe []string
	known    map[string]struct{}
	relevant map[string]struct{}
	digest   string
}

// NewBuilder resolves every feature of the space to either a cluster aggregate
// or a skill indicator.
func NewBuilder(space *Space, clusters *cluster.Index, opts Options) (*Builder, error) {
	if space == nil || clusters == nil {
		return nil, apperrors.NewInternalError(apperrors.ErrCodeFeatureMismatch,
			"feature space and cluster index are required", nil)
	}

	// Names produced by aggregation and by indicators.
	produced := make(map[string]slotKind, space.Len())
	for _, name := range clusters.Clusters() {
		produced[name] = aggregateSlot
	}
	for _, name := range space.names {
		if _, isCluster := produced[name]; !isCluster {
			produced[name] = indicatorSlot
		}
	}

	b := &Builder{space: space, clusters: clusters, slots: make([]slot, space.Len())}
	var missing []string
	for i, name := range space.names {
		kind, ok := produced[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		b.slots[i] = slot{kind: kind, name: name}
		if kind == indicatorSlot {
			b.skills = append(b.skills, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeFeatureMismatch,
			"features not produced by clusters or skills: "+strings.Join(missing, ", "), nil)
	}

	for _, name := range clusters.Clusters() {
		if _, ok := space.Position(name); !ok {
			b.ignored = append(b.ignored, name)
		}
	}
	b.known = SkillSet(b.skills)
	for _, skill := range clusters.Skills() {
		if !clusters.Has(skill) {
			b.known[skill] = struct{}{}
		}
	}
	b.relevant = SkillSet(b.skills)
	for _, skill := range clusters.Skills() {
		b.relevant[skill] = struct{}{}
	}
	b.digest = b.layoutDigest()
	b.universe = make([]string, 0, len(b.known))
	for skill := range b.known {
		b.universe = append(b.universe, skill)
	}
	sort.Strings(b.universe)

	if opts.StrictClusters && len(b.ignored) > 0 {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeFeatureMismatch,
			fmt.Sprintf("clusters without a model feature: %s", strings.Join(b.ignored, ", ")), nil).
			WithContext("clusters", b.ignored)
	}

	return b, nil
}

// Build returns the feature vector for a skill set, in feature space order.
// Skills outside the universe contribute nothing.
func (b *Builder) Build(available map[string]struct{}) []float64 {
	vec := make([]float64, len(b.slots))
	for i, s := range b.slots {
		switch s.kind {
		case aggregateSlot:
			vec[i] = float64(b.clusters.Count(s.name, available))
		default:
			if _, ok := available[s.name]; ok {
				vec[i] = 1
			}
		}
	}
	return vec
}

// BuildFromList is Build over a list with set semantics.
func (b *Builder) BuildFromList(skills []string) []float64 {
	return b.Build(SkillSet(skills))
}

// Space returns the feature space the builder targets.
func (b *Builder) Space() *Space {
	return b.space
}

// Skills returns the indicator features in model order.
func (b *Builder) Skills() []string {
	return append([]string(nil), b.skills...)
}

// Universe returns every skill a caller can meaningfully hold: indicator
// features plus cluster members, sorted.
func (b *Builder) Universe() []string {
	return append([]string(nil), b.universe...)
}

// Knows reports whether skill is part of the universe.
func (b *Builder) Knows(skill string) bool {
	_, ok := b.known[skill]
	return ok
}

// Affects reports whether holding skill can change a feature vector: it is
// an indicator feature or a member of some cluster. Unlike Knows it also
// covers members that share a name with a cluster.
func (b *Builder) Affects(skill string) bool {
	_, ok := b.relevant[skill]
	return ok
}

// Digest identifies the resolved layout: slot kinds and names in order plus
// the members of every aggregated cluster. Two builders with the same digest
// produce the same vector for every input.
func (b *Builder) Digest() string {
	return b.digest
}

func (b *Builder) layoutDigest() string {
	h := sha256.New()
	for _, s := range b.slots {
		fmt.Fprintf(h, "%d\x1e%s\x1e", s.kind, s.name)
		if s.kind == aggregateSlot {
			members := b.clusters.MembersOf(s.name)
			sort.Strings(members)
			fmt.Fprintf(h, "%s\x1e", strings.Join(members, "\x1f"))
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Summary reports the resolved layout.
func (b *Builder) Summary() Summary {
	var aggregates []string
	for _, s := range b.slots {
		if s.kind == aggregateSlot {
			aggregates = append(aggregates, s.name)
		}
	}
	return Summary{
		Features:        len(b.slots),
		Aggregates:      aggregates,
		Indicators:      len(b.skills),
		IgnoredClusters: append([]string(nil), b.ignored...),
	}
}
