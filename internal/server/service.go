// Package server provides the HTTP analysis service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
)

// Config controls the service runtime behavior.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	EventsBuffer   int
	Scale          cli.Scale
	Options        pipeline.Options
	Logger         *slog.Logger
}

// Run is a compact record of one handled upload, kept for /v1/runs and
// pushed to /v1/stream subscribers.
type Run struct {
	RequestID     string    `json:"request_id"`
	Endpoint      string    `json:"endpoint"`
	File          string    `json:"file,omitempty"`
	Tier          string    `json:"tier"`
	Rows          int       `json:"rows"`
	TotalPlanned  float64   `json:"total_planned"`
	TotalVariance float64   `json:"total_variance"`
	Crossings     int       `json:"crossings"`
	Status        int       `json:"status"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	At            time.Time `json:"at"`
}

// Event is emitted whenever a run completes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Run       Run       `json:"run"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time         `json:"started_at"`
	Addr            string            `json:"addr"`
	Tier            string            `json:"tier"`
	Features        pipeline.Features `json:"features"`
	MaxUploadBytes  int64             `json:"max_upload_bytes"`
	RunCount        int64             `json:"run_count"`
	ErrorCount      int64             `json:"error_count"`
	LastRunAt       time.Time         `json:"last_run_at"`
	LastError       string            `json:"last_error,omitempty"`
	EventCount      int               `json:"event_count"`
	SubscriberCount int               `json:"subscriber_count"`
}

// Service provides the analysis HTTP API.
type Service struct {
	cfg Config
	log *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	runCount    int64
	errorCount  int64
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new service with the provided config.
func New(cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8790"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.Scale == "" {
		cfg.Scale = cli.ScaleRaw
	}
	if cfg.Options.Tier == "" {
		cfg.Options = pipeline.DefaultOptions()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the service routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.HandleFunc("/v1/stream", s.handleStream)

	mux.HandleFunc("/v1/analyze", s.upload("analyze", nil, s.renderAnalyze))
	mux.HandleFunc("/v1/calculate", s.upload("calculate", nil, s.renderCalculate))
	mux.HandleFunc("/v1/scenarios", s.upload("scenarios", needScenarios, s.renderScenarios))
	mux.HandleFunc("/v1/alerts", s.upload("alerts", needAlerts, s.renderAlerts))
	mux.HandleFunc("/v1/suggest", s.upload("suggest", needRecommendations, s.renderSuggest))
	mux.HandleFunc("/v1/process", s.upload("process", needScaling, s.renderProcess))
	mux.HandleFunc("/v1/report", s.upload("report", nil, s.renderReport))
	mux.HandleFunc("/v1/report-exec", s.upload("report-exec", needExecBundle, s.renderReportExec))
	return mux
}

// Run serves HTTP until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("budgetlens server listening", "addr", s.cfg.Addr, "tier", s.cfg.Options.Tier)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("budgetlens http server: %w", err)
	}
}

// record stores a finished run and notifies subscribers.
func (s *Service) record(run Run) {
	s.mu.Lock()
	s.runCount++
	s.lastRunAt = run.At
	typ := "run"
	if run.Error != "" {
		s.errorCount++
		s.lastError = run.Error
		typ = "run_error"
	}
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: run.At,
		Run:       run,
	}
	s.mu.Unlock()

	s.publishEvent(ev)
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Addr:            s.cfg.Addr,
		Tier:            s.cfg.Options.Tier,
		Features:        s.cfg.Options.Features,
		MaxUploadBytes:  s.cfg.MaxUploadBytes,
		RunCount:        s.runCount,
		ErrorCount:      s.errorCount,
		LastRunAt:       s.lastRunAt,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleRuns(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
