package model

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobfit/internal/config"
	"jobfit/internal/errors"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxInvocationResponse = 1 << 20

// RemoteClassifier calls an HTTP inference endpoint that serves the run's
// model: POST <url>/invocations {"instances": [[...]]} answering
// {"predictions": [[p0, p1], ...]} with one pair per target.
type RemoteClassifier struct {
	endpoint string
	token    string
	timeout  time.Duration
	targets  int
	client   *http.Client
	breaker  *CircuitBreaker
}

type invocationRequest struct {
	Instances [][]float64 `json:"instances"`
}

type invocationResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// NewRemoteClassifier builds a classifier for a model scoring targets labels.
func NewRemoteClassifier(cfg config.RemoteModelConfig, targets int, logger *errors.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		endpoint: cfg.URL + "/invocations",
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		targets:  targets,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker:  NewCircuitBreaker("Remote", cfg.CircuitBreaker, logger),
	}
}

func (c *RemoteClassifier) PredictProba(ctx context.Context, x []float64) ([]ProbabilityPair, error) {
	pairs, err := c.breaker.Execute(ctx, func() ([]ProbabilityPair, error) {
		return c.invoke(ctx, x)
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.NewModelError(errors.ErrCodeModelUnavailable,
				"remote model is unavailable (circuit open)", err)
		}
		return nil, err
	}
	return pairs, nil
}

func (c *RemoteClassifier) invoke(ctx context.Context, x []float64) ([]ProbabilityPair, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(invocationRequest{Instances: [][]float64{x}})
	if err != nil {
		return nil, errors.NewModelError(errors.ErrCodeModelInvocation, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewModelError(errors.ErrCodeModelInvocation, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewContextModelError("remote model request", ctx.Err())
		}
		return nil, errors.NewModelError(errors.ErrCodeModelInvocation, "remote model request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxInvocationResponse))
	if err != nil {
		return nil, errors.NewModelError(errors.ErrCodeModelInvocation, "failed to read remote response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewModelError(errors.ErrCodeModelInvocation,
			fmt.Sprintf("remote model returned HTTP %d", resp.StatusCode), nil).
			WithContext("body", truncate(string(raw), 256))
	}

	var out invocationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.NewModelError(errors.ErrCodeModelOutput, "remote response is not valid JSON", err)
	}
	pairs := make([]ProbabilityPair, len(out.Predictions))
	for i, p := range out.Predictions {
		if len(p) != 2 {
			return nil, errors.NewModelError(errors.ErrCodeModelOutput,
				fmt.Sprintf("prediction %d has %d classes, expected 2", i, len(p)), nil)
		}
		pairs[i] = ProbabilityPair{p[0], p[1]}
	}
	if err := ValidatePairs(pairs, c.targets); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Stats reports the circuit breaker state.
func (c *RemoteClassifier) Stats() map[string]any {
	return map[string]any{
		"backend":         "remote",
		"endpoint":        c.endpoint,
		"circuit_breaker": c.breaker.GetStats(),
	}
}

// IsHealthy is false while the circuit is open or half-open.
func (c *RemoteClassifier) IsHealthy() bool {
	return c.breaker.IsHealthy()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
