// Package predict scores skill sets against job titles and ranks the skills
// that would most improve the fit for a target job.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
)

// JobProbability is the fit probability for one job title.
type JobProbability struct {
	Job         string  `json:"job"`
	Probability float64 `json:"probability"`
}

// Prediction holds one probability per job title, in model target order.
// It marshals to a JSON object whose keys keep that order.
type Prediction []JobProbability

// Probability looks up a job title.
func (p Prediction) Probability(job string) (float64, bool) {
	for _, jp := range p {
		if jp.Job == job {
			return jp.Probability, true
		}
	}
	return 0, false
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(p))
	values := make([]float64, len(p))
	for i, jp := range p {
		keys[i], values[i] = jp.Job, jp.Probability
	}
	return marshalOrdered(keys, values)
}

// SkillUplift is the relative change in target probability from adding a skill.
type SkillUplift struct {
	Skill  string  `json:"skill"`
	Uplift float64 `json:"uplift"`
}

// Simulation is a ranked recommendation together with the baseline it was
// measured against and the number of candidates simulated.
type Simulation struct {
	Baseline        float64
	Candidates      int
	Recommendations Recommendations
}

// Recommendations are ranked by uplift, highest first. They marshal to a JSON
// object whose keys keep the ranking.
type Recommendations []SkillUplift

func (r Recommendations) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(r))
	values := make([]float64, len(r))
	for i, su := range r {
		keys[i], values[i] = su.Skill, su.Uplift
	}
	return marshalOrdered(keys, values)
}

func marshalOrdered(keys []string, values []float64) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Cache stores probability vectors by key. Implementations swallow their own
// failures: a miss or a failed write must never fail a prediction.
type Cache interface {
	Get(ctx context.Context, key string) ([]float64, bool)
	Set(ctx context.Context, key string, probabilities []float64)
}
