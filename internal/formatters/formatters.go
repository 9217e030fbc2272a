package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"jobfit/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI.
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "PredictionReport", &PredictionTextFormatter{})
	registry.RegisterFormatter("markdown", "PredictionReport", &PredictionMarkdownFormatter{})
	registry.RegisterFormatter("text", "RecommendationReport", &RecommendationTextFormatter{})
	registry.RegisterFormatter("markdown", "RecommendationReport", &RecommendationMarkdownFormatter{})
	registry.RegisterFormatter("text", "Listing", &ListingTextFormatter{})
	registry.RegisterFormatter("markdown", "Listing", &ListingMarkdownFormatter{})
	registry.RegisterFormatter("text", "ModelReport", &ModelReportTextFormatter{})
	registry.RegisterFormatter("markdown", "ModelReport", &ModelReportMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.PredictionReport:
		return "PredictionReport"
	case types.RecommendationReport:
		return "RecommendationReport"
	case types.Listing:
		return "Listing"
	case types.ModelReport:
		return "ModelReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func skillsLine(skills []string) string {
	if len(skills) == 0 {
		return "(none)"
	}
	return strings.Join(skills, ", ")
}

// PredictionTextFormatter renders job probabilities in model order.
type PredictionTextFormatter struct{}

func (f *PredictionTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.PredictionReport)
	if !ok {
		return "", fmt.Errorf("expected PredictionReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== JOB PROBABILITIES ===\n")
	fmt.Fprintf(&output, "Skills: %s\n\n", skillsLine(report.Skills))
	for _, jp := range report.Prediction {
		fmt.Fprintf(&output, "%8.2f%%  %s\n", jp.Probability*100, jp.Job)
	}
	return output.String(), nil
}

func (f *PredictionTextFormatter) SupportedType() string {
	return "PredictionReport"
}

// PredictionMarkdownFormatter renders job probabilities as a table.
type PredictionMarkdownFormatter struct{}

func (f *PredictionMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.PredictionReport)
	if !ok {
		return "", fmt.Errorf("expected PredictionReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Job Probabilities\n\n")
	fmt.Fprintf(&output, "**Skills:** %s\n\n", skillsLine(report.Skills))
	output.WriteString("| Job | Probability |\n")
	output.WriteString("|-----|-------------|\n")
	for _, jp := range report.Prediction {
		fmt.Fprintf(&output, "| %s | %.4f |\n", escapeCell(jp.Job), jp.Probability)
	}
	return output.String(), nil
}

func (f *PredictionMarkdownFormatter) SupportedType() string {
	return "PredictionReport"
}

// RecommendationTextFormatter renders ranked skill uplifts.
type RecommendationTextFormatter struct{}

func (f *RecommendationTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.RecommendationReport)
	if !ok {
		return "", fmt.Errorf("expected RecommendationReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== SKILL RECOMMENDATIONS ===\n")
	fmt.Fprintf(&output, "Target job: %s\n", report.TargetJob)
	fmt.Fprintf(&output, "Skills: %s\n", skillsLine(report.Skills))
	fmt.Fprintf(&output, "Baseline probability: %.4f\n", report.Baseline)
	fmt.Fprintf(&output, "Candidates simulated: %d, threshold: %g\n\n", report.Candidates, report.Threshold)

	if len(report.Recommendations) == 0 {
		output.WriteString("No skill raises the probability above the threshold.\n")
		return output.String(), nil
	}
	for i, rec := range report.Recommendations {
		fmt.Fprintf(&output, "%3d. %-30s %+8.2f%%\n", i+1, rec.Skill, rec.Uplift*100)
	}
	return output.String(), nil
}

func (f *RecommendationTextFormatter) SupportedType() string {
	return "RecommendationReport"
}

// RecommendationMarkdownFormatter renders ranked skill uplifts as a table.
type RecommendationMarkdownFormatter struct{}

func (f *RecommendationMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.RecommendationReport)
	if !ok {
		return "", fmt.Errorf("expected RecommendationReport, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Skill Recommendations: %s\n\n", report.TargetJob)
	fmt.Fprintf(&output, "- **Skills:** %s\n", skillsLine(report.Skills))
	fmt.Fprintf(&output, "- **Baseline probability:** %.4f\n", report.Baseline)
	fmt.Fprintf(&output, "- **Candidates simulated:** %d\n", report.Candidates)
	fmt.Fprintf(&output, "- **Threshold:** %g\n\n", report.Threshold)

	if len(report.Recommendations) == 0 {
		output.WriteString("_No skill raises the probability above the threshold._\n")
		return output.String(), nil
	}
	output.WriteString("| Rank | Skill | Relative uplift |\n")
	output.WriteString("|------|-------|-----------------|\n")
	for i, rec := range report.Recommendations {
		fmt.Fprintf(&output, "| %d | %s | %.4f |\n", i+1, escapeCell(rec.Skill), rec.Uplift)
	}
	return output.String(), nil
}

func (f *RecommendationMarkdownFormatter) SupportedType() string {
	return "RecommendationReport"
}

// ListingTextFormatter prints one item per line.
type ListingTextFormatter struct{}

func (f *ListingTextFormatter) Format(data any) (string, error) {
	listing, ok := data.(types.Listing)
	if !ok {
		return "", fmt.Errorf("expected Listing, got %T", data)
	}
	var output strings.Builder
	fmt.Fprintf(&output, "=== %s (%d) ===\n", strings.ToUpper(listing.Title), len(listing.Items))
	for _, item := range listing.Items {
		output.WriteString(item)
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (f *ListingTextFormatter) SupportedType() string {
	return "Listing"
}

// ListingMarkdownFormatter prints a bullet list.
type ListingMarkdownFormatter struct{}

func (f *ListingMarkdownFormatter) Format(data any) (string, error) {
	listing, ok := data.(types.Listing)
	if !ok {
		return "", fmt.Errorf("expected Listing, got %T", data)
	}
	var output strings.Builder
	fmt.Fprintf(&output, "# %s\n\n", listing.Title)
	for _, item := range listing.Items {
		fmt.Fprintf(&output, "- %s\n", item)
	}
	return output.String(), nil
}

func (f *ListingMarkdownFormatter) SupportedType() string {
	return "Listing"
}

// ModelReportTextFormatter prints the feature plan of a loaded run.
type ModelReportTextFormatter struct{}

func (f *ModelReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ModelReport)
	if !ok {
		return "", fmt.Errorf("expected ModelReport, got %T", data)
	}
	info := report.Info

	var output strings.Builder
	output.WriteString("=== MODEL ===\n")
	fmt.Fprintf(&output, "Location:    %s\n", info.Location)
	fmt.Fprintf(&output, "Backend:     %s\n", info.Backend)
	fmt.Fprintf(&output, "Fingerprint: %s\n", info.Fingerprint)
	fmt.Fprintf(&output, "Jobs:        %d\n", info.Jobs)
	fmt.Fprintf(&output, "Features:    %d (%d cluster aggregates, %d skill indicators)\n",
		info.Features.Features, len(info.Features.Aggregates), info.Features.Indicators)
	fmt.Fprintf(&output, "Candidates:  %d\n", info.Universe)

	if len(info.Features.IgnoredClusters) > 0 {
		fmt.Fprintf(&output, "Ignored clusters (not in feature space): %s\n", strings.Join(info.Features.IgnoredClusters, ", "))
	}

	if len(report.Clusters) > 0 {
		output.WriteString("\n=== CLUSTERS ===\n")
		for _, name := range sortedKeys(report.Clusters) {
			fmt.Fprintf(&output, "%s: %s\n", name, strings.Join(report.Clusters[name], ", "))
		}
	}

	if len(info.Metrics) > 0 {
		output.WriteString("\n=== TRAINING METRICS ===\n")
		for _, name := range sortedKeys(info.Metrics) {
			fmt.Fprintf(&output, "%s: %.4f\n", name, info.Metrics[name])
		}
	}
	return output.String(), nil
}

func (f *ModelReportTextFormatter) SupportedType() string {
	return "ModelReport"
}

// ModelReportMarkdownFormatter prints the feature plan as markdown.
type ModelReportMarkdownFormatter struct{}

func (f *ModelReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ModelReport)
	if !ok {
		return "", fmt.Errorf("expected ModelReport, got %T", data)
	}
	info := report.Info

	var output strings.Builder
	output.WriteString("# Model\n\n")
	fmt.Fprintf(&output, "- **Location:** `%s`\n", info.Location)
	fmt.Fprintf(&output, "- **Backend:** %s\n", info.Backend)
	fmt.Fprintf(&output, "- **Fingerprint:** `%s`\n", info.Fingerprint)
	fmt.Fprintf(&output, "- **Jobs:** %d\n", info.Jobs)
	fmt.Fprintf(&output, "- **Features:** %d (%d aggregates, %d indicators)\n",
		info.Features.Features, len(info.Features.Aggregates), info.Features.Indicators)

	if len(report.Clusters) > 0 {
		output.WriteString("\n## Clusters\n\n")
		output.WriteString("| Cluster | Skills |\n")
		output.WriteString("|---------|--------|\n")
		for _, name := range sortedKeys(report.Clusters) {
			fmt.Fprintf(&output, "| %s | %s |\n", escapeCell(name), escapeCell(strings.Join(report.Clusters[name], ", ")))
		}
	}
	return output.String(), nil
}

func (f *ModelReportMarkdownFormatter) SupportedType() string {
	return "ModelReport"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
