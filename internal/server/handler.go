package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"jobfit/internal/errors"
	"jobfit/internal/observability"
	"jobfit/internal/predict"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// createPredictHandler serves POST /predict_jobs_probs
func (s *Server) createPredictHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		svc := s.Predictor.Current()

		var req PredictRequest
		if err := decodePredictRequest(r, &req); err != nil {
			s.writeAppError(w, r, err)
			return
		}

		ctx := r.Context()
		span := oteltrace.SpanFromContext(ctx)
		span.SetAttributes(attribute.Int("request.skills", len(req.AvailableSkills)))

		var result predict.Prediction
		err := om.TrackOperation(ctx, "predict", func(ctx context.Context) error {
			var err error
			result, err = svc.PredictJobProbabilities(ctx, req.AvailableSkills)
			return err
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}

		om.GetMetrics().RecordPrediction(ctx, len(result))
		writeJSON(w, r, http.StatusOK, result)
	}
}

// createRecommendHandler serves POST /recommend_new_skills
func (s *Server) createRecommendHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		svc := s.Predictor.Current()

		var req RecommendRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if err := requestValidator.Struct(req); err != nil {
			s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
			return
		}

		threshold := svc.DefaultThreshold()
		if req.Threshold != nil {
			threshold = *req.Threshold
		}

		ctx := r.Context()
		if s.SimulationTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.SimulationTimeout)
			defer cancel()
		}

		candidates := svc.CandidateCount(req.AvailableSkills)
		oteltrace.SpanFromContext(ctx).SetAttributes(
			attribute.String("request.target_job", req.TargetJob),
			attribute.Int("request.skills", len(req.AvailableSkills)),
			attribute.Int("simulation.candidates", candidates),
		)

		var result predict.Recommendations
		err := om.TrackOperation(ctx, "recommend", func(ctx context.Context) error {
			var err error
			result, err = svc.RecommendSkills(ctx, req.AvailableSkills, req.TargetJob, threshold)
			return err
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}

		om.GetMetrics().RecordRecommendation(ctx, req.TargetJob, candidates, len(result))
		writeJSON(w, r, http.StatusOK, result)
	}
}

// skillsHandler serves GET /skills
func (s *Server) skillsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.Predictor.Current().ListSkills())
}

// jobsHandler serves GET /jobs
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.Predictor.Current().ListJobs())
}

// decodePredictRequest accepts either a bare array of skills or the object form.
func decodePredictRequest(r *http.Request, req *PredictRequest) error {
	body, err := readJSONBody(r)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &req.AvailableSkills)
	} else {
		err = json.Unmarshal(trimmed, req)
	}
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse JSON: "+err.Error(), err)
	}

	if err := requestValidator.Struct(req); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err)
	}
	return nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeErrorResponse(w, r, "Method not allowed", r.Method+" is not supported on "+r.URL.Path, "", http.StatusMethodNotAllowed)
	return false
}
