package inference

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
)

// MaxRequestBytes caps the size of a /predict body.
const MaxRequestBytes = 1 << 20

// PredictRequest is a batch of feature rows in schema order.
type PredictRequest struct {
	Instances [][]float64 `json:"instances" validate:"required,min=1"`
}

// PredictResponse holds one label per instance.
type PredictResponse struct {
	Predictions []string `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.model.Schema)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PredictRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, "invalid", "request body too large")
			return
		}
		s.fail(w, http.StatusBadRequest, "invalid", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid", "instances must be a non-empty array of feature rows")
		return
	}

	preds, err := s.model.Predict(req.Instances)
	if errors.Is(err, apperr.ErrSchemaMismatch) {
		s.fail(w, http.StatusUnprocessableEntity, "schema_mismatch", err.Error())
		return
	}
	if err != nil {
		s.log.Error("prediction failed", "error", err)
		s.fail(w, http.StatusInternalServerError, "error", "prediction failed")
		return
	}

	s.metrics.requests.WithLabelValues("ok").Inc()
	s.metrics.instances.Add(float64(len(preds)))
	for _, p := range preds {
		s.metrics.predictions.WithLabelValues(p).Inc()
	}
	s.metrics.latency.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, PredictResponse{Predictions: preds})
}

func (s *Server) fail(w http.ResponseWriter, status int, outcome, msg string) {
	s.metrics.requests.WithLabelValues(outcome).Inc()
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
