package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"jobfit/internal/errors"
)

// healthHandler reports whether a model is loaded and its backend reachable.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "jobfit",
		"version": s.Version,
	}

	status := http.StatusOK
	svc := s.Predictor.Current()
	if svc == nil {
		response["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		info := svc.Info()
		healthy := svc.IsHealthy()
		response["model"] = map[string]any{
			"available":   healthy,
			"backend":     info.Backend,
			"fingerprint": info.Fingerprint,
			"loaded_at":   info.LoadedAt,
			"jobs":        info.Jobs,
			"features":    info.Features.Features,
		}
		response["classifier"] = svc.ClassifierStats()
		if !healthy {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	if s.Watcher != nil {
		response["reload"] = map[string]any{
			"watcher_running": s.Watcher.IsRunning(),
			"watched_files":   s.Watcher.GetWatchedFiles(),
		}
	}

	if s.VaultWatcher != nil {
		response["vault"] = s.VaultWatcher.Status()
	}

	writeJSON(w, r, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	response := map[string]any{
		"service": "jobfit",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"simulation_timeout":     s.SimulationTimeout.String(),
		},
	}

	if svc := s.Predictor.Current(); svc != nil {
		response["model"] = svc.Info()
	}
	response["reload"] = s.Predictor.GetMetrics()

	if s.Cache != nil {
		response["cache"] = s.Cache.Stats()
	} else {
		response["cache"] = map[string]any{"enabled": false}
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, r, http.StatusOK, response)
}

// readJSONBody reads a JSON request body, enforcing the content type when one
// is given and translating the size limit into a validation error.
func readJSONBody(r *http.Request) ([]byte, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "content-type must be application/json", err)
		}
	}

	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}
	return body, nil
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	body, err := readJSONBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse JSON: "+err.Error(), err)
	}
	return nil
}

// statusFor maps an error to the HTTP status returned to the client.
// statusClientClosedRequest answers requests whose client went away first.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if stderrors.Is(err, context.Canceled) {
		return statusClientClosedRequest
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeDegenerate:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeModel:
		switch appErr.Code {
		case errors.ErrCodeModelUnavailable:
			return http.StatusServiceUnavailable
		case errors.ErrCodeModelTimeout:
			return http.StatusGatewayTimeout
		case errors.ErrCodeModelCanceled:
			return statusClientClosedRequest
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError logs err and writes it as an ErrorResponse.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	title := http.StatusText(status)
	if status == statusClientClosedRequest {
		title = "Client Closed Request"
	}
	message := err.Error()
	code := ""
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
		code = appErr.Code
	}
	if status == http.StatusGatewayTimeout && code == "" {
		message = "request timed out"
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed",
			"endpoint", r.URL.Path,
			"status", status,
			"request_id", requestIDFrom(r.Context()))
	} else {
		s.Logger.Info("Request rejected",
			"endpoint", r.URL.Path,
			"status", status,
			"code", code,
			"request_id", requestIDFrom(r.Context()))
	}

	writeErrorResponse(w, r, title, message, code, status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, r *http.Request, title, message, code string, statusCode int) {
	writeJSON(w, r, statusCode, ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, _ *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
