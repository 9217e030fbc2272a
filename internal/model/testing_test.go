package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeRun writes artifact files into a fresh run directory and returns it.
// Values are JSON-encoded unless they are already raw strings.
func writeRun(t *testing.T, files map[string]any) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		var raw []byte
		switch v := content.(type) {
		case string:
			raw = []byte(v)
		default:
			var err error
			raw, err = json.Marshal(v)
			require.NoError(t, err)
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
	}
	return dir
}

func sampleData() map[string]any {
	return map[string]any{
		"features_names": []string{"backend", "Python", "JavaScript"},
		"targets_names":  []string{"Developer, back-end", "Developer, front-end"},
	}
}

func sampleModel() LogisticSpec {
	return LogisticSpec{
		ModelType: logisticModelType,
		Estimators: []Estimator{
			{Target: "Developer, back-end", Intercept: -1, Coefficients: []float64{0.8, 0.5, -0.4}},
			{Target: "Developer, front-end", Intercept: -1, Coefficients: []float64{-0.2, 0, 1.5}},
		},
	}
}
