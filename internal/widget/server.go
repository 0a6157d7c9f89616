package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/bayesplot/internal/logging"
	"github.com/nvandessel/bayesplot/internal/plot"
	"github.com/nvandessel/bayesplot/internal/posterior"
	"github.com/nvandessel/bayesplot/internal/ratelimit"
	"github.com/nvandessel/bayesplot/internal/session"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "bayesplot_session"

const maxBodyBytes = 1 << 16

// Options configure a Server.
type Options struct {
	// Addr is the listen address; "localhost:0" lets the OS pick a port.
	Addr string

	// Sessions holds per-browser state. Required.
	Sessions *session.Store

	// Regenerate limits regenerate requests per session. Nil disables limiting.
	Regenerate *ratelimit.Limiter

	// SessionTTL is used for cookie lifetime and limiter pruning.
	SessionTTL time.Duration

	// ShutdownTimeout bounds graceful shutdown. Defaults to 5s.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
	Trace  *logging.TraceLogger
}

// Server serves the panel HTML and the update/regenerate API.
type Server struct {
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a new panel server.
func NewServer(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "localhost:0"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{opts: opts, logger: logger}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the HTTP routes of the panel.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/update", s.handleUpdate)
	mux.HandleFunc("POST /api/regenerate", s.handleRegenerate)
	mux.HandleFunc("GET /plot.png", s.handlePlot(plot.FormatPNG))
	mux.HandleFunc("GET /plot.svg", s.handlePlot(plot.FormatSVG))
	mux.HandleFunc("GET /plot.csv", s.handlePlot(plot.FormatCSV))
	return s.logRequests(mux)
}

// ListenAndServe starts the HTTP server on the configured address and
// blocks until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.logger.Info("panel server listening", "addr", s.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("panel server shutdown", "error", err)
		}
	}()

	if s.opts.Regenerate != nil {
		go s.pruneLimiter(ctx)
	}

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		s.logger.Info("panel server stopped")
		return nil
	}
	return err
}

// pruneLimiter drops rate-limit buckets of sessions that have gone idle.
func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SessionTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.opts.Regenerate.Prune(s.opts.SessionTTL); n > 0 {
				s.logger.Debug("pruned rate limit buckets", "count", n)
			}
		}
	}
}

// session resolves the caller's session from its cookie, creating one
// (and setting the cookie) when missing or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (session.State, error) {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	st, err := s.opts.Sessions.GetOrCreate(id)
	if err != nil {
		return session.State{}, err
	}

	if st.ID != id {
		s.logger.Debug("session created", "session", st.ID)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    st.ID,
			Path:     "/",
			MaxAge:   int(s.opts.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return st, nil
}

// handleIndex serves the panel page with the session's current snapshot.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st, err := s.session(w, r)
	if err != nil {
		s.fail(w, "session error", err, http.StatusInternalServerError)
		return
	}

	html, err := RenderHTML(posterior.Compute(st.Params, st.Seeds))
	if err != nil {
		s.fail(w, "render error", err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

// handleSnapshot returns the session's current snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	st, err := s.session(w, r)
	if err != nil {
		s.fail(w, "session error", err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, posterior.Compute(st.Params, st.Seeds))
}

// handleUpdate applies slider values and returns the recomputed snapshot.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	st, err := s.session(w, r)
	if err != nil {
		s.fail(w, "session error", err, http.StatusInternalServerError)
		return
	}

	p, err := decodeParams(r, st.Params)
	if err != nil {
		s.fail(w, "invalid request", err, http.StatusBadRequest)
		return
	}

	snap, err := s.opts.Sessions.UpdateParams(st.ID, p)
	s.trace("update", st.ID, snap, start, err)
	if err != nil {
		s.fail(w, "update failed", err, statusFor(err))
		return
	}
	writeJSON(w, snap)
}

// handleRegenerate draws fresh observation seeds for the session. A
// request body, if present, carries the current slider values, which are
// applied first.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	st, err := s.session(w, r)
	if err != nil {
		s.fail(w, "session error", err, http.StatusInternalServerError)
		return
	}

	if s.opts.Regenerate != nil {
		if err := s.opts.Regenerate.Check(st.ID); err != nil {
			s.fail(w, "too many regenerations", err, http.StatusTooManyRequests)
			return
		}
	}

	p, err := decodeParams(r, st.Params)
	if err != nil {
		s.fail(w, "invalid request", err, http.StatusBadRequest)
		return
	}
	if p != st.Params {
		if _, err := s.opts.Sessions.UpdateParams(st.ID, p); err != nil {
			s.fail(w, "update failed", err, statusFor(err))
			return
		}
	}

	snap, err := s.opts.Sessions.RegenerateSeeds(st.ID)
	s.trace("regenerate", st.ID, snap, start, err)
	if err != nil {
		s.fail(w, "regenerate failed", err, statusFor(err))
		return
	}
	writeJSON(w, snap)
}

// handlePlot renders the session's snapshot server-side.
func (s *Server) handlePlot(format plot.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		st, err := s.session(w, r)
		if err != nil {
			s.fail(w, "session error", err, http.StatusInternalServerError)
			return
		}

		snap := posterior.Compute(st.Params, st.Seeds)
		w.Header().Set("Content-Type", format.ContentType())
		err = plot.Render(w, snap, format)
		s.trace("render", st.ID, snap, start, err)
		if err != nil {
			s.logger.Error("render plot", "format", format, "error", err)
		}
	}
}

func (s *Server) trace(kind, id string, snap posterior.Snapshot, start time.Time, err error) {
	ev := logging.Event{
		Kind:              kind,
		Session:           id,
		Mu0:               snap.Params.Mu0,
		Sigma0:            snap.Params.Sigma0,
		Sigma:             snap.Params.Sigma,
		N:                 snap.Params.N,
		PosteriorMean:     snap.PosteriorMean,
		PosteriorVariance: snap.PosteriorVariance,
		DurationMicros:    time.Since(start).Microseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.opts.Trace.Log(ev)
	s.logger.Log(context.Background(), logging.LevelTrace, "recomputed",
		"kind", kind, "session", id, "mu_post", snap.PosteriorMean, "var_post", snap.PosteriorVariance)
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error, status int) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Debug(msg, "error", err, "status", status)
	}
	http.Error(w, msg+": "+err.Error(), status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// decodeParams reads Params from the request body, starting from current so
// that omitted fields keep their values. An empty body yields current.
func decodeParams(r *http.Request, current posterior.Params) (posterior.Params, error) {
	p := current
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return current, nil
		}
		return posterior.Params{}, fmt.Errorf("decode params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return posterior.Params{}, err
	}
	return p, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, posterior.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
