package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/muhammadchandra19/matcha/internal/app/engine"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/muhammadchandra19/matcha/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

// Exchange is what the HTTP adapter needs from the engine.
type Exchange interface {
	CreateAccount(ctx context.Context, account exchangev1.Account) (exchangev1.Account, error)
	GetAccounts(ctx context.Context, query engine.AccountQuery) ([]exchangev1.Account, error)
	Deposit(ctx context.Context, id exchangev1.AccountID, balance exchangev1.Balance) (exchangev1.Account, error)
	SubmitIntent(ctx context.Context, intent exchangev1.Intent) (exchangev1.Receipt, error)
	ShowOrderBook(ctx context.Context) (exchangev1.Depth, error)
}

// Server holds the routes of the exchange.
type Server struct {
	exchange Exchange
	router   *mux.Router
	logger   *logger.Logger
}

// NewServer creates the HTTP adapter over exchange.
func NewServer(exchange Exchange, log *logger.Logger) *Server {
	s := &Server{
		exchange: exchange,
		router:   mux.NewRouter(),
		logger:   log.WithFields(logger.NewField("component", "http")),
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.requestID, s.logRequest)

	s.router.HandleFunc("/accounts", s.handleGetAccounts).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPut)
	s.router.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{id}/deposits", s.handleDeposit).Methods(http.MethodPost)

	s.router.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPut)
	s.router.HandleFunc("/orders/{id}", s.handleCancelOrder).Methods(http.MethodDelete)
	s.router.HandleFunc("/orderbook", s.handleGetOrderBook).Methods(http.MethodGet)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler returns the router wrapped with the health endpoint.
func (s *Server) Handler() http.Handler {
	health := healthcheck.HealthCheck{
		Check: func(ctx context.Context) error {
			_, err := s.exchange.ShowOrderBook(ctx)
			return err
		},
	}
	return health.Handler(s.router)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := util.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		w.Header().Set(requestIDHeader, util.GetRequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.DebugContext(r.Context(), "request served",
			logger.NewField("method", r.Method),
			logger.NewField("path", r.URL.Path),
			logger.NewField("status", rec.status),
			logger.NewField("duration", time.Since(start).String()),
		)
	})
}
