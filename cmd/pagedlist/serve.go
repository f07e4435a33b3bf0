package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/pagedlist/internal/movielist"
	"github.com/Sternrassler/pagedlist/pkg/metrics"
	"github.com/Sternrassler/pagedlist/pkg/movies"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// maxWait bounds GET /movies?wait=true.
const maxWait = 30 * time.Second

func serveAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := newAppContext(ctx, cmd.String("env"), cmd.String("sort"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	port := appCtx.Config.Port
	if p := int(cmd.Int("port")); p > 0 {
		port = p
	}

	list := movielist.New(appCtx.Factory, appCtx.Sort, appCtx.pagerConfig())
	defer list.Close()
	list.Start()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           newServer(list, appCtx.Redis).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("sort", string(appCtx.Sort)).
			Str("user_agent", appCtx.Config.Upstream.UserAgent).
			Msg("Starting pagedlist server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down pagedlist server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// server exposes one movie list over HTTP.
type server struct {
	list   *movielist.List
	redis  *redis.Client
	logger zerolog.Logger
}

func newServer(list *movielist.List, redisClient *redis.Client) *server {
	return &server{
		list:   list,
		redis:  redisClient,
		logger: log.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP routes.
func (s *server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Post("/more", s.handleMore)
		r.Post("/retry", s.handleRetry)
		r.Put("/sort", s.handleSort)
	})

	return r
}

// requestLogger logs every request with zerolog.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.redis.Ping(ctx).Err(); err != nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("redis: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()
		if err := s.list.Wait(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			writeErr(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.list.View())
}

func (s *server) handleMore(w http.ResponseWriter, _ *http.Request) {
	queued := s.list.LoadMore()
	code := http.StatusAccepted
	if !queued {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"queued": queued,
		"list":   s.list.View(),
	})
}

func (s *server) handleRetry(w http.ResponseWriter, _ *http.Request) {
	retried := s.list.Retry()
	writeJSON(w, http.StatusOK, map[string]any{
		"retried": retried,
		"list":    s.list.View(),
	})
}

type sortRequest struct {
	Sort string `json:"sort"`
}

func (s *server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	sort, err := movies.ParseSortOption(req.Sort)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	changed := s.list.SetSort(sort)
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"list":    s.list.View(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
