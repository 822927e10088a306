package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/patrickverol/docrag-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// QueryTimeout bounds the retrieval plus generation work of one
	// POST /api/query request. Defaults to 2 minutes.
	QueryTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives all server metric registrations. If nil a fresh
	// registry is created, keeping tests hermetic.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs the GET /metrics endpoint. Must gather from the
	// same registry metrics are registered into.
	MetricsGatherer prometheus.Gatherer
}

// answerer is the interface handleQuery calls to generate an answer from the
// retrieved context. *answer.Generator satisfies it; tests inject a fake.
type answerer interface {
	Generate(ctx context.Context, query, contextBlock string) (string, error)
}

// collectionCounter reports the state of the vector collection for
// GET /api/status. *rag.QdrantStore satisfies it.
type collectionCounter interface {
	Count(ctx context.Context) (uint64, error)
	CollectionName() string
}

// feedbackRecorder persists answer feedback. *feedback.SQLiteStore satisfies
// it; nil disables the endpoint.
type feedbackRecorder interface {
	Record(ctx context.Context, query, answer string, rating int) (int64, error)
}

// Server is the HTTP server that exposes the query API.
type Server struct {
	// retriever turns a query into a citeable context.
	retriever rag.Retriever
	// answerer generates answers; nil means retrieval-only mode.
	answerer answerer
	// counter reports collection state for /api/status; may be nil.
	counter collectionCounter
	// feedback persists answer ratings; nil disables POST /api/feedback.
	feedback feedbackRecorder
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds all Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	// Query is the user's natural language question.
	Query string `json:"query"`
	// TopK overrides the number of chunks to retrieve. Zero selects the default.
	TopK int `json:"top_k,omitempty"`
}

// queryResponse is the JSON response for POST /api/query.
type queryResponse struct {
	// Answer is the generated answer with bracketed citations. Empty when the
	// upstream model was unavailable.
	Answer string `json:"answer"`
	// AnswerAvailable is false when the model could not produce an answer;
	// the retrieval fields are still populated.
	AnswerAvailable bool `json:"answer_available"`
	// Context lists the retrieved chunks in rank order with local IDs 0..k-1.
	Context []rag.RetrievedChunk `json:"context"`
	// Mappings maps each local chunk ID to its source document reference.
	Mappings map[int]string `json:"mappings"`
}

// feedbackRequest is the JSON body for POST /api/feedback.
type feedbackRequest struct {
	// Query is the question the rated answer responded to.
	Query string `json:"query"`
	// Answer is the generated answer being rated. Required — feedback on an
	// absent answer is meaningless and is rejected.
	Answer string `json:"answer"`
	// Rating is 1 (helpful) or 0 (not helpful).
	Rating int `json:"rating"`
}

// feedbackResponse is the JSON response for POST /api/feedback.
type feedbackResponse struct {
	// ID is the persisted feedback entry's identifier.
	ID int64 `json:"id"`
}

// statusResponse is the JSON response for GET /api/status.
type statusResponse struct {
	// Collection is the vector collection name.
	Collection string `json:"collection"`
	// Points is the number of indexed vector records.
	Points uint64 `json:"points"`
}
