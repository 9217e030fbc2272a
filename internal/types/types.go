package types

import "jobfit/internal/predict"

// PredictionReport is the CLI result of scoring a skill list.
type PredictionReport struct {
	Skills     []string           `json:"skills"`
	Prediction predict.Prediction `json:"prediction"`
}

// RecommendationReport is the CLI result of a skill recommendation run.
type RecommendationReport struct {
	Skills          []string                `json:"skills"`
	TargetJob       string                  `json:"target_job"`
	Threshold       float64                 `json:"threshold"`
	Baseline        float64                 `json:"baseline"`
	Candidates      int                     `json:"candidates"`
	Recommendations predict.Recommendations `json:"recommendations"`
}

// Listing is a titled list of names, used for skills and jobs.
type Listing struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// ModelReport summarizes a loaded run for the validate command.
type ModelReport struct {
	Info     predict.Info        `json:"info"`
	Clusters map[string][]string `json:"clusters"`
}
