package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-tokeval/internal/config"
	"github.com/example/go-tokeval/internal/eval"
	"github.com/example/go-tokeval/internal/metrics"
	"github.com/example/go-tokeval/internal/text"
	"github.com/example/go-tokeval/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Evaluator scores a batch of corpus lines against a tokenizer.
type Evaluator interface {
	Evaluate(ctx context.Context, lines []string) (eval.Result, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 20,
		workers:        2,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the maximum allowed request body size for POST /evaluate.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithWorkers sets the maximum number of concurrent evaluation calls.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request evaluation deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	eval Evaluator
	opts options
	sem  chan struct{} // semaphore for worker pool
	log  *slog.Logger
}

// NewHandler returns an http.Handler that serves /health and POST /evaluate.
func NewHandler(ev Evaluator, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		eval: ev,
		opts: opts,
		log:  opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/evaluate", h.handleEvaluate)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type evaluateRequest struct {
	Lines []string `json:"lines"`
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes)

	var req evaluateRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "lines field is required")
		return
	}

	// Acquire a worker slot while honouring context cancellation.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
			// slot acquired
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	// Apply per-request timeout.
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.eval.Evaluate(ctx, req.Lines)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			h.log.WarnContext(r.Context(), "evaluation timed out",
				slog.Int("lines", len(req.Lines)),
				slog.Int64("duration_ms", durationMS),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusGatewayTimeout, "evaluation timed out")
			return
		}
		h.log.ErrorContext(r.Context(), "evaluation failed",
			slog.Int("lines", len(req.Lines)),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "evaluation complete",
		slog.Int("lines", result.Lines),
		slog.Int64("duration_ms", durationMS),
		slog.String("verdict", result.Report.Verdict),
	)

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// tokenizerEvaluator
// ---------------------------------------------------------------------------

// tokenizerEvaluator normalizes the submitted lines and scores them with a
// fixed tokenizer backend.
type tokenizerEvaluator struct {
	tok tokenizer.Tokenizer
}

// NewEvaluator wraps a tokenizer in the Evaluator interface used by the
// HTTP handler.
func NewEvaluator(tok tokenizer.Tokenizer) Evaluator {
	return &tokenizerEvaluator{tok: tok}
}

func (e *tokenizerEvaluator) Evaluate(ctx context.Context, lines []string) (eval.Result, error) {
	if err := ctx.Err(); err != nil {
		return eval.Result{}, err
	}

	cleaned := make([]string, 0, len(lines))
	for _, n := range text.NormalizeAll(lines) {
		if n != "" {
			cleaned = append(cleaned, n)
		}
	}

	triple, err := metrics.Evaluate(cleaned, e.tok)
	if err != nil {
		return eval.Result{}, err
	}

	return eval.Result{
		Metrics: triple,
		Report:  metrics.Interpret(triple),
		Lines:   len(cleaned),
	}, nil
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	evaluator       Evaluator
	shutdownTimeout time.Duration
}

func New(cfg config.Config, ev Evaluator) *Server {
	return &Server{
		cfg:             cfg,
		evaluator:       ev,
		shutdownTimeout: 10 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	ev := s.evaluator
	if ev == nil {
		var err error
		ev, err = s.runtimeEvaluator()
		if err != nil {
			return err
		}
	}

	handlerOpts := []Option{
		WithWorkers(s.cfg.Server.Workers),
		WithMaxBodyBytes(int64(s.cfg.Server.MaxBodyBytes)),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second),
	}

	h := NewHandler(ev, handlerOpts...)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}

func (s *Server) runtimeEvaluator() (Evaluator, error) {
	backend, err := config.NormalizeBackend(s.cfg.Eval.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case config.BackendSentencePiece:
		tok, err := tokenizer.NewSentencePieceTokenizer(s.cfg.Paths.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sentencepiece backend: %w", err)
		}
		return NewEvaluator(tok), nil
	case config.BackendTiktoken:
		return NewEvaluator(tokenizer.NewTiktokenTokenizer(s.cfg.Eval.Encoding)), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}
