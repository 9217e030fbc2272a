package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfit/internal/features"
	"jobfit/internal/predict"
	"jobfit/internal/types"
)

func samplePrediction() types.PredictionReport {
	return types.PredictionReport{
		Skills: []string{"Python"},
		Prediction: predict.Prediction{
			{Job: "Developer, back-end", Probability: 0.5},
			{Job: "Developer, front-end", Probability: 0.125},
		},
	}
}

func sampleRecommendation() types.RecommendationReport {
	return types.RecommendationReport{
		Skills:     []string{"Python"},
		TargetJob:  "Developer, back-end",
		Threshold:  0,
		Baseline:   0.5,
		Candidates: 3,
		Recommendations: predict.Recommendations{
			{Skill: "Go", Uplift: 0.5},
			{Skill: "SQL", Uplift: 0.1},
		},
	}
}

func TestJSONFormatterKeepsModelOrder(t *testing.T) {
	out, err := GlobalRegistry.Format(samplePrediction(), "json")
	require.NoError(t, err)

	back := strings.Index(out, `"Developer, back-end"`)
	front := strings.Index(out, `"Developer, front-end"`)
	require.True(t, back >= 0 && front >= 0)
	assert.Less(t, back, front)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 0.5, decoded["prediction"].(map[string]any)["Developer, back-end"])
}

func TestPredictionText(t *testing.T) {
	out, err := GlobalRegistry.Format(samplePrediction(), "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Skills: Python")
	assert.Contains(t, out, "50.00%  Developer, back-end")
	assert.Contains(t, out, "12.50%  Developer, front-end")
}

func TestPredictionMarkdown(t *testing.T) {
	out, err := GlobalRegistry.Format(samplePrediction(), "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| Developer, back-end | 0.5000 |")
}

func TestRecommendationText(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleRecommendation(), "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Target job: Developer, back-end")
	assert.Contains(t, out, "Baseline probability: 0.5000")
	assert.Less(t, strings.Index(out, "Go"), strings.Index(out, "SQL"))
	assert.Contains(t, out, "+50.00%")
}

func TestRecommendationEmpty(t *testing.T) {
	report := sampleRecommendation()
	report.Recommendations = nil

	out, err := GlobalRegistry.Format(report, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "No skill raises the probability")

	md, err := GlobalRegistry.Format(report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "_No skill raises the probability")
}

func TestRecommendationMarkdownEscapesPipes(t *testing.T) {
	report := sampleRecommendation()
	report.Recommendations = predict.Recommendations{{Skill: "A|B", Uplift: 1}}

	out, err := GlobalRegistry.Format(report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, `| 1 | A\|B | 1.0000 |`)
}

func TestListingFormats(t *testing.T) {
	listing := types.Listing{Title: "Jobs", Items: []string{"Data scientist", "DevOps specialist"}}

	text, err := GlobalRegistry.Format(listing, "text")
	require.NoError(t, err)
	assert.Equal(t, "=== JOBS (2) ===\nData scientist\nDevOps specialist\n", text)

	md, err := GlobalRegistry.Format(listing, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Jobs\n\n- Data scientist\n- DevOps specialist\n", md)
}

func TestModelReportText(t *testing.T) {
	report := types.ModelReport{
		Info: predict.Info{
			Backend:     "local",
			Location:    "/runs/1/2/artifacts",
			Fingerprint: "abc123",
			Jobs:        2,
			Universe:    7,
			Features: features.Summary{
				Features:        5,
				Aggregates:      []string{"Cloud"},
				Indicators:      4,
				IgnoredClusters: []string{"Mobile"},
			},
			Metrics: map[string]float64{"f1": 0.8},
		},
		Clusters: map[string][]string{"Cloud": {"AWS", "GCP"}},
	}

	out, err := GlobalRegistry.Format(report, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Features:    5 (1 cluster aggregates, 4 skill indicators)")
	assert.Contains(t, out, "Ignored clusters (not in feature space): Mobile")
	assert.Contains(t, out, "Cloud: AWS, GCP")
	assert.Contains(t, out, "f1: 0.8000")

	md, err := GlobalRegistry.Format(report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| Cloud | AWS, GCP |")
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(samplePrediction(), "xml")
	assert.Error(t, err)
}

func TestFallbackToJSONForUnregisteredTypes(t *testing.T) {
	out, err := GlobalRegistry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)

	_, err = GlobalRegistry.Format(map[string]int{"a": 1}, "text")
	assert.Error(t, err)
}

func TestTypeMismatch(t *testing.T) {
	_, err := (&PredictionTextFormatter{}).Format(types.Listing{})
	assert.Error(t, err)
}

func TestSupportedFormatsSorted(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
