package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/CEA-LIST/sgntx/pkg/catalog"
	"github.com/CEA-LIST/sgntx/pkg/codec"
	"github.com/CEA-LIST/sgntx/pkg/convert"
	"github.com/CEA-LIST/sgntx/pkg/logger"
	"github.com/CEA-LIST/sgntx/pkg/metrics"
	"github.com/CEA-LIST/sgntx/pkg/store"
)

const (
	// DefaultMaxBodyBytes caps encode and decode request bodies.
	DefaultMaxBodyBytes = 32 << 20
	// DefaultRunLimit is used by GET /runs without a limit parameter.
	DefaultRunLimit = 20

	// HeaderRecordCount carries the number of records in an encode response.
	HeaderRecordCount = "X-Record-Count"
)

// Server holds the API server state
type Server struct {
	runs    RunStore
	config  ServerConfig
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewServer creates a new API server. runs may be nil, in which case the run
// endpoints answer 503.
func NewServer(runs RunStore, config ServerConfig, m *metrics.Metrics, log logger.Logger) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		runs:    runs,
		config:  config,
		metrics: m,
		logger:  log,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// requestMode reads the mode query parameter, falling back to the server default.
func (s *Server) requestMode(r *http.Request) (codec.Mode, error) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return s.config.DefaultMode, nil
	}
	return codec.ParseMode(raw)
}

// handleEncode turns a VCF body into a binary record stream.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	mode, err := s.requestMode(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	var out bytes.Buffer
	sink := convert.NewStreamSink(&out, mode)

	stats, err := convert.New(mode).Convert(r.Context(), body, sink)
	if err != nil {
		var maxErr *http.MaxBytesError
		var lineErr *convert.LineError
		switch {
		case errors.As(err, &maxErr):
			sendError(w, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
		case errors.As(err, &lineErr):
			sendError(w, lineErr.Error(), http.StatusBadRequest)
		default:
			s.logger.Error("encode failed", "error", err)
			sendError(w, "Failed to encode records", http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordRecords(stats.Records, sink.Size())

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.Header().Set(HeaderRecordCount, strconv.FormatInt(stats.Records, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

// handleDecode turns a binary record stream into JSON records.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	mode, err := s.requestMode(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	records, err := store.NewStreamReader(body, mode, 0).ReadAll()
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			sendError(w, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
		case errors.Is(err, store.ErrCorruption):
			sendError(w, err.Error(), http.StatusBadRequest)
		default:
			s.logger.Error("decode failed", "error", err)
			sendError(w, "Failed to decode records", http.StatusInternalServerError)
		}
		return
	}

	response := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, newRecordResponse(rec))
	}
	sendSuccess(w, response)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		sendError(w, "Run catalog is not available", http.StatusServiceUnavailable)
		return
	}

	limit := DefaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		sendError(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, newRunSummary(run))
	}
	sendSuccess(w, summaries)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		sendError(w, "Run catalog is not available", http.StatusServiceUnavailable)
		return
	}

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	run, err := s.runs.GetRun(id)
	if errors.Is(err, catalog.ErrRunNotFound) {
		sendError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("get run failed", "run_id", id.String(), "error", err)
		sendError(w, "Failed to read run", http.StatusInternalServerError)
		return
	}
	sendSuccess(w, run)
}
