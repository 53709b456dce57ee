package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"investa/domain/interfaces"
	"investa/domain/services"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// MetricsRecorder receives per-request HTTP measurements
type MetricsRecorder interface {
	RecordHTTPRequest(route string, status int, duration time.Duration)
}

// HealthCheck reports whether a backing dependency is reachable
type HealthCheck func(ctx context.Context) error

// Dependencies are the services the HTTP transport dispatches to
type Dependencies struct {
	Gate      *services.AccessGate
	Investors interfaces.InvestorService
	Wallet    interfaces.WalletService
	Contracts interfaces.ContractService
	Approvals interfaces.ApprovalService

	Metrics MetricsRecorder
	Health  HealthCheck
}

// Options configure the listener and the auth layer
type Options struct {
	Addr        string
	JWTSecret   string
	CORSOrigins []string
}

// Server exposes the investa services over HTTP
type Server struct {
	deps      Dependencies
	jwtSecret []byte
	handler   http.Handler
	http      *http.Server
	now       func() time.Time
}

// New builds the router and wraps it with CORS
func New(opts Options, deps Dependencies) *Server {
	s := &Server{
		deps:      deps,
		jwtSecret: []byte(opts.JWTSecret),
		now:       func() time.Time { return time.Now().UTC() },
	}

	router := mux.NewRouter()
	router.Use(s.instrument)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)
	s.registerRoutes(api)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the root handler, including middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) registerRoutes(r *mux.Router) {
	// Investors
	r.HandleFunc("/investors", s.registerInvestor).Methods(http.MethodPost)
	r.HandleFunc("/investors/{id:[0-9]+}", s.getInvestor).Methods(http.MethodGet)
	r.HandleFunc("/investors/{id:[0-9]+}/profile", s.updateProfile).Methods(http.MethodPatch)
	r.HandleFunc("/investors/{id:[0-9]+}/active", s.setActive).Methods(http.MethodPost)

	// Wallet
	r.HandleFunc("/investors/{id:[0-9]+}/wallet", s.getWallet).Methods(http.MethodGet)
	r.HandleFunc("/investors/{id:[0-9]+}/wallet/pending", s.getPending).Methods(http.MethodGet)
	r.HandleFunc("/investors/{id:[0-9]+}/transactions", s.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/investors/{id:[0-9]+}/deposits", s.requestDeposit).Methods(http.MethodPost)
	r.HandleFunc("/investors/{id:[0-9]+}/withdrawals", s.requestWithdrawal).Methods(http.MethodPost)
	r.HandleFunc("/investors/{id:[0-9]+}/credits", s.adminCredit).Methods(http.MethodPost)

	// Contracts
	r.HandleFunc("/investors/{id:[0-9]+}/contracts", s.listInvestorContracts).Methods(http.MethodGet)
	r.HandleFunc("/investors/{id:[0-9]+}/contracts", s.createContract).Methods(http.MethodPost)
	r.HandleFunc("/investors/{id:[0-9]+}/reinvestments", s.reinvestProfit).Methods(http.MethodPost)
	r.HandleFunc("/contracts/{id:[0-9]+}/refund", s.requestRefund).Methods(http.MethodPost)
	r.HandleFunc("/admin/contracts", s.listAllContracts).Methods(http.MethodGet)
	r.HandleFunc("/admin/contracts/{id:[0-9]+}", s.adminUpdateContract).Methods(http.MethodPatch)
	r.HandleFunc("/admin/contracts/{id:[0-9]+}/accruals", s.accrueContract).Methods(http.MethodPost)

	// Approval requests
	r.HandleFunc("/investors/{id:[0-9]+}/requests", s.listInvestorRequests).Methods(http.MethodGet)
	r.HandleFunc("/admin/requests", s.listAllRequests).Methods(http.MethodGet)
	r.HandleFunc("/admin/requests/bulk-decision", s.bulkDecide).Methods(http.MethodPost)
	r.HandleFunc("/admin/requests/{id:[0-9]+}/decision", s.decideRequest).Methods(http.MethodPost)
	r.HandleFunc("/admin/requests/{id:[0-9]+}/amount", s.adjustRequestAmount).Methods(http.MethodPatch)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("Shutting down HTTP API")
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		log.WithFields(log.Fields{
			"method":   r.Method,
			"route":    route,
			"status":   m.Code,
			"duration": m.Duration,
		}).Debug("HTTP request")

		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordHTTPRequest(route, m.Code, m.Duration)
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			log.WithError(err).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
