// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/pgexplorer/binder"
)

// Server routes HTTP requests to a binder.
type Server struct {
	binder  *binder.Binder
	logger  *zap.Logger
	metrics *Metrics
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access logs and errors.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes m on /metrics. Without it a fresh set is created.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New builds the router and middleware chain for b.
func New(b *binder.Binder, opts ...Option) *Server {
	s := &Server{
		binder: b,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.metrics.DatasetRows.Set(float64(b.Table().Len()))

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods("GET").Name("Index")
	router.HandleFunc("/charts", s.handleCharts).Methods("GET").Name("Charts")
	router.HandleFunc("/api/state", s.handleGetState).Methods("GET").Name("GetState")
	router.HandleFunc("/api/dashboard", s.handleGetDashboard).Methods("GET").Name("GetDashboard")
	router.HandleFunc("/api/selection", s.handlePostSelection).Methods("POST").Name("PostSelection")
	router.HandleFunc("/api/countries", s.handleGetCountries).Methods("GET").Name("GetCountries")
	router.HandleFunc("/api/export.csv", s.handleExportCSV).Methods("GET").Name("ExportCSV")
	router.HandleFunc("/api/chart2d.csv", s.handleChartCSV).Methods("GET").Name("Chart2DCSV")
	router.HandleFunc("/api/chart2d.png", s.handleChartPNG).Methods("GET").Name("Chart2DPNG")
	router.HandleFunc("/healthz", s.handleHealthz).Methods("GET").Name("Healthz")
	router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")

	stdlog := zap.NewStdLog(s.logger.Named("http"))
	var h http.Handler = router
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(stdlog), handlers.PrintRecoveryStack(true))(h)
	h = handlers.CombinedLoggingHandler(stdlog.Writer(), h)
	s.handler = h
	return s
}

// ServeHTTP handles an HTTP request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	})
	return g.Wait()
}
