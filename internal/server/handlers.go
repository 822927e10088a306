package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickverol/docrag-go/internal/answer"
	"github.com/patrickverol/docrag-go/internal/logging"
	"github.com/patrickverol/docrag-go/internal/rag"
)

// handleQuery handles POST /api/query. It retrieves the top-k chunks for the
// query, asks the model for a cited answer, and returns both. When the model
// is unavailable the response still carries the retrieved context and
// mappings with answer_available=false — retrieval quality is observable even
// with no generator behind it.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()

	result, err := s.retriever.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		log.Error("retrieval failed", slog.Any("error", err))
		s.observeQuery("retrieval_error", start)
		http.Error(w, "retrieval failed", http.StatusInternalServerError)
		return
	}

	resp := queryResponse{
		Context:  result.Chunks,
		Mappings: result.Mappings,
	}
	if resp.Context == nil {
		resp.Context = []rag.RetrievedChunk{}
	}

	outcome := "ok"
	switch {
	case s.answerer == nil:
		outcome = "answer_unavailable"
	default:
		ans, genErr := s.answerer.Generate(ctx, req.Query, result.Context)
		switch {
		case genErr == nil:
			resp.Answer = ans
			resp.AnswerAvailable = true
		case errors.Is(genErr, answer.ErrUnavailable):
			// Degraded success: the caller still gets the retrieved context.
			log.Warn("answer generation unavailable", slog.Any("error", genErr))
			outcome = "answer_unavailable"
		default:
			log.Error("answer generation failed", slog.Any("error", genErr))
			s.observeQuery("answer_error", start)
			http.Error(w, "answer generation failed", http.StatusInternalServerError)
			return
		}
	}

	s.observeQuery(outcome, start)
	writeJSON(w, http.StatusOK, resp, log)
}

// observeQuery records the outcome and latency of one query request.
func (s *Server) observeQuery(outcome string, start time.Time) {
	s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// handleFeedback handles POST /api/feedback. Feedback is only accepted for
// queries that actually produced an answer — a rating with an empty answer is
// rejected rather than silently recorded.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.feedback == nil {
		http.Error(w, "feedback storage is disabled", http.StatusServiceUnavailable)
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.Answer == "" {
		http.Error(w, "answer is required — feedback on an unanswered query is not recorded", http.StatusBadRequest)
		return
	}
	if req.Rating != 0 && req.Rating != 1 {
		http.Error(w, "rating must be 0 or 1", http.StatusBadRequest)
		return
	}

	id, err := s.feedback.Record(r.Context(), req.Query, req.Answer, req.Rating)
	if err != nil {
		log.Error("feedback record failed", slog.Any("error", err))
		http.Error(w, "failed to record feedback", http.StatusInternalServerError)
		return
	}

	s.metrics.feedbackTotal.Inc()
	writeJSON(w, http.StatusOK, feedbackResponse{ID: id}, log)
}

// handleStatus handles GET /api/status, reporting the collection name and
// current point count.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.counter == nil {
		http.Error(w, "vector store status is unavailable", http.StatusServiceUnavailable)
		return
	}

	count, err := s.counter.Count(r.Context())
	if err != nil {
		log.Error("collection count failed", slog.Any("error", err))
		http.Error(w, "failed to query collection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Collection: s.counter.CollectionName(),
		Points:     count,
	}, log)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logging.FromContext(r.Context()))
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode error", slog.Any("error", err))
	}
}
