// Package server exposes matches over HTTP and websockets.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/scenario"
	"github.com/pefman/void-duel/internal/stats"
	"github.com/pefman/void-duel/internal/telemetry"
)

const (
	defaultIdleTimeout = 30 * time.Minute
	// finishedGrace keeps a finished match readable for a while after its
	// last request.
	finishedGrace = time.Minute
)

// Options configures a Server. Zero values fall back to an in-memory
// ledger, the default scenario, clock-seeded matches and a 30 minute idle
// timeout.
type Options struct {
	Logger         zerolog.Logger
	Recorder       stats.Recorder
	Metrics        *telemetry.Metrics
	Scenario       *scenario.Scenario
	Seed           int64
	IdleTimeout    time.Duration
	AllowedOrigins []string
	Version        string
	BuildTime      string
}

type Server struct {
	log      zerolog.Logger
	sessions *Registry
	rec      stats.Recorder
	results  *stats.Observer
	metrics  *telemetry.Metrics
	scenario scenario.Scenario
	seed     int64
	idle     time.Duration
	origins  []string
	version  string
	built    string
	router   *mux.Router
	now      func() time.Time
}

func New(opts Options) *Server {
	s := &Server{
		log:      opts.Logger,
		sessions: NewRegistry(),
		rec:      opts.Recorder,
		metrics:  opts.Metrics,
		scenario: scenario.Default(),
		seed:     opts.Seed,
		idle:     opts.IdleTimeout,
		origins:  opts.AllowedOrigins,
		version:  opts.Version,
		built:    opts.BuildTime,
		now:      time.Now,
	}
	if opts.Scenario != nil {
		s.scenario = *opts.Scenario
	}
	if s.rec == nil {
		s.rec = stats.NewMemory()
	}
	if s.idle <= 0 {
		s.idle = defaultIdleTimeout
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.results = stats.NewObserver(s.rec, s.log)
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/leaderboard/daily", s.handleLeaderboardDaily).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", s.handleCatalog).Methods(http.MethodGet)
	api.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	api.HandleFunc("/matches", s.handleCreateMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}", s.handleGetMatch).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}", s.handleDeleteMatch).Methods(http.MethodDelete)
	api.HandleFunc("/matches/{id}/log", s.handleMatchLog).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/move", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/weapon", s.handleWeapon).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/fire", s.handleFire).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/advance", s.handleAdvance).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/customize", s.handleCustomize).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	return r
}

// newMatch builds and registers a match wired to the results ledger and
// metrics.
func (s *Server) newMatch(ctx context.Context, sc scenario.Scenario, seed int64) *Session {
	if seed == 0 {
		seed = s.seed
	}
	opts := []match.Option{
		match.WithRNG(engine.NewRNG(seed)),
		match.WithLogger(s.log),
		match.WithObserver(s.results),
	}
	if s.metrics != nil {
		opts = append(opts, match.WithObserver(s.metrics))
		s.metrics.MatchStarted(ctx)
	}
	m := match.New(sc, opts...)
	s.log.Info().Str("match", m.ID()).Str("scenario", sc.Name).Msg("match created")
	return s.sessions.Add(m)
}

func (s *Server) dropMatch(id string) bool {
	if !s.sessions.Delete(id) {
		return false
	}
	s.results.Forget(id)
	s.log.Info().Str("match", id).Msg("match dropped")
	return true
}

// reap drops matches nobody has touched within the idle timeout and
// finished matches past their grace period.
func (s *Server) reap() int {
	n := 0
	for _, id := range s.sessions.Expired(s.now(), s.idle, min(finishedGrace, s.idle)) {
		if s.dropMatch(id) {
			n++
		}
	}
	if n > 0 {
		s.log.Info().Int("dropped", n).Int("live", s.sessions.Len()).Msg("reaped idle matches")
	}
	return n
}

func (s *Server) reaper(ctx context.Context) {
	every := max(s.idle/4, time.Second)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.reap()
		}
	}
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	go s.reaper(ctx)
	s.log.Info().Str("addr", addr).Str("version", s.version).Msg("void-duel listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}
