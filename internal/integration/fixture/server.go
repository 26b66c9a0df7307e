// Package fixture serves canned integration data over the same HTTP contract
// as the real integration backend. It backs local development
// (`dataload serve`) and the client tests.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leapstack-labs/dataload/internal/record"
	"golang.org/x/sync/errgroup"
)

// Data maps an endpoint ("notion", "hubspot", ...) to the records it returns.
type Data map[string][]record.Record

// LoadData reads fixture data from a JSON file shaped like
// {"hubspot": [{...}, ...], "slack": [...]}.
func LoadData(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture data: %w", err)
	}
	defer func() { _ = f.Close() }()

	var d Data
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode fixture data %s: %w", path, err)
	}
	return d, nil
}

// Config holds fixture server settings.
type Config struct {
	Data Data
	// DataFile, when set, is the file Data was read from. With Watch it is
	// re-read whenever it changes.
	DataFile string
	Watch    bool
	// RequireToken rejects credentials without an "access_token" member.
	RequireToken bool
	// Rejected maps access tokens to the detail message returned for them.
	Rejected map[string]string
	// AllowedOrigins for CORS. Defaults to localhost origins.
	AllowedOrigins []string
}

// Server is the fixture integration backend.
type Server struct {
	router *chi.Mux
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	data  Data
	loads map[string]int
}

// NewServer creates a fixture server.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		data:   cfg.Data,
		loads:  make(map[string]int),
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Loads returns how many load requests an endpoint has served.
func (s *Server) Loads(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[endpoint]
}

// Endpoints lists the endpoints that have data, sorted.
func (s *Server) Endpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for e := range s.data {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// SetData replaces the served data.
func (s *Server) SetData(d Data) {
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	s.router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"Ping": "Pong"})
	})
	s.router.Post("/integrations/{endpoint}/load", s.handleLoad)
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", r.Header.Get("X-Request-ID"))
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	endpoint := chi.URLParam(r, "endpoint")
	s.mu.Lock()
	records, ok := s.data[endpoint]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	// FormValue accepts both urlencoded and multipart bodies.
	raw := r.FormValue("credentials")
	if raw == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{
				"loc":  []string{"body", "credentials"},
				"msg":  "Field required",
				"type": "missing",
			}},
		})
		return
	}

	var creds map[string]any
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}

	token, _ := creds["access_token"].(string)
	if s.cfg.RequireToken && strings.TrimSpace(token) == "" {
		writeDetail(w, http.StatusBadRequest, "No credentials found.")
		return
	}
	if detail, rejected := s.cfg.Rejected[token]; rejected && token != "" {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}

	s.mu.Lock()
	s.loads[endpoint]++
	s.mu.Unlock()

	if records == nil {
		records = []record.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Run serves on addr until ctx is done, then shuts down gracefully. When
// the config asks for it, the data file is watched for changes meanwhile.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	if s.cfg.Watch && s.cfg.DataFile != "" {
		eg.Go(func() error {
			return s.watchData(egctx, s.cfg.DataFile)
		})
	}

	eg.Go(func() error {
		s.logger.Info("fixture backend listening", "addr", ln.Addr().String(), "endpoints", s.Endpoints())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down fixture backend")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
