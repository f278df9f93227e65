package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"StakeLedger/internal/gateway"
	"StakeLedger/internal/ledger"
	"StakeLedger/internal/observability"
	"StakeLedger/internal/pool"
	"StakeLedger/internal/query"
)

// callerHeader carries the authenticated caller identity. Upstream
// authentication is handled at the ingress; this service trusts the
// header.
const callerHeader = "X-User-ID"

// Server is the HTTP API for the staking ledger. Mutating operations
// go straight to the engine with an explicit caller and timestamp;
// reads are served from the query service over Postgres, except
// pending-reward which is computed from live engine state.
type Server struct {
	engine  *ledger.Engine
	queries *query.QueryService
	health  *observability.HealthChecker
	metrics *observability.Metrics
	logger  zerolog.Logger

	httpServer *http.Server
}

func NewServer(
	addr string,
	engine *ledger.Engine,
	queries *query.QueryService,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		engine:  engine,
		queries: queries,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the mux with all routes registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.observe)

	r.HandleFunc("/healthz", s.health.LivenessHandler).Methods("GET")
	r.HandleFunc("/readyz", s.health.ReadinessHandler).Methods("GET")

	r.HandleFunc("/v1/pools", s.handleCreatePool).Methods("POST")
	r.HandleFunc("/v1/pools", s.handleListPools).Methods("GET")
	r.HandleFunc("/v1/pools/{id}", s.handleGetPool).Methods("GET")
	r.HandleFunc("/v1/pools/{id}/deposit", s.handleDeposit).Methods("POST")
	r.HandleFunc("/v1/pools/{id}/withdraw", s.handleWithdraw).Methods("POST")
	r.HandleFunc("/v1/pools/{id}/reward", s.handlePendingReward).Methods("GET")
	r.HandleFunc("/v1/pools/{id}/position", s.handleGetPosition).Methods("GET")
	r.HandleFunc("/v1/pools/{id}/notifications", s.handleListNotifications).Methods("GET")

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutCtx)
	}()

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- Handlers ---

type createPoolRequest struct {
	StakeToken     string `json:"stake_token"`
	RewardToken    string `json:"reward_token"`
	APYBasisPoints int64  `json:"apy_bps"`
	LockDays       int64  `json:"lock_days"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r, "create_pool")
	if !ok {
		return
	}

	var req createPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "create_pool", http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	id, err := s.engine.CreatePool(caller, req.StakeToken, req.RewardToken, req.APYBasisPoints, req.LockDays, time.Now())
	if err != nil {
		s.writeLedgerError(w, "create_pool", err)
		return
	}

	s.writeJSON(w, "create_pool", http.StatusCreated, map[string]any{"pool_id": int(id)})
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r, "deposit")
	if !ok {
		return
	}
	poolID, ok := s.poolID(w, r, "deposit")
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "deposit", http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	if err := s.engine.Deposit(r.Context(), poolID, caller, req.Amount, time.Now()); err != nil {
		s.writeLedgerError(w, "deposit", err)
		return
	}

	s.writeJSON(w, "deposit", http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r, "withdraw")
	if !ok {
		return
	}
	poolID, ok := s.poolID(w, r, "withdraw")
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "withdraw", http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	if err := s.engine.Withdraw(r.Context(), poolID, caller, req.Amount, time.Now()); err != nil {
		s.writeLedgerError(w, "withdraw", err)
		return
	}

	s.writeJSON(w, "withdraw", http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handlePendingReward(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r, "pending_reward")
	if !ok {
		return
	}
	poolID, ok := s.poolID(w, r, "pending_reward")
	if !ok {
		return
	}

	reward, err := s.engine.PendingReward(poolID, caller, time.Now())
	if err != nil {
		s.writeLedgerError(w, "pending_reward", err)
		return
	}

	s.writeJSON(w, "pending_reward", http.StatusOK, map[string]any{
		"pool_id": int(poolID),
		"user_id": caller.String(),
		"reward":  reward.String(),
	})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	poolID, ok := s.poolID(w, r, "get_pool")
	if !ok {
		return
	}

	info, err := s.queries.GetPool(r.Context(), int(poolID))
	if err != nil {
		s.writeQueryError(w, "get_pool", err)
		return
	}
	s.writeJSON(w, "get_pool", http.StatusOK, info)
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.queries.ListPools(r.Context())
	if err != nil {
		s.writeQueryError(w, "list_pools", err)
		return
	}
	s.writeJSON(w, "list_pools", http.StatusOK, map[string]any{"pools": pools})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r, "get_position")
	if !ok {
		return
	}
	poolID, ok := s.poolID(w, r, "get_position")
	if !ok {
		return
	}

	info, err := s.queries.GetPosition(r.Context(), int(poolID), caller.String())
	if err != nil {
		s.writeQueryError(w, "get_position", err)
		return
	}
	s.writeJSON(w, "get_position", http.StatusOK, info)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	poolID, ok := s.poolID(w, r, "list_notifications")
	if !ok {
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	var afterSeq *int64
	if v := r.URL.Query().Get("after"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			afterSeq = &n
		}
	}

	notifications, err := s.queries.ListNotifications(r.Context(), int(poolID), limit, afterSeq)
	if err != nil {
		s.writeQueryError(w, "list_notifications", err)
		return
	}
	s.writeJSON(w, "list_notifications", http.StatusOK, map[string]any{"notifications": notifications})
}

// observe records per-route latency using the route template so pool
// IDs do not explode label cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		if s.metrics == nil {
			return
		}
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// --- Helpers ---

func (s *Server) caller(w http.ResponseWriter, r *http.Request, endpoint string) (uuid.UUID, bool) {
	raw := r.Header.Get(callerHeader)
	if raw == "" {
		s.writeError(w, endpoint, http.StatusUnauthorized, fmt.Errorf("%s header is required", callerHeader))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, endpoint, http.StatusBadRequest, fmt.Errorf("invalid %s: %w", callerHeader, err))
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) poolID(w http.ResponseWriter, r *http.Request, endpoint string) (pool.ID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		s.writeError(w, endpoint, http.StatusBadRequest, fmt.Errorf("invalid pool id %q", raw))
		return 0, false
	}
	return pool.ID(id), true
}

func (s *Server) writeLedgerError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, pool.ErrInvalidPoolID):
		s.writeError(w, endpoint, http.StatusNotFound, err)
	case errors.Is(err, pool.ErrInvalidConfig), errors.Is(err, ledger.ErrInvalidAmount):
		s.writeError(w, endpoint, http.StatusBadRequest, err)
	case errors.Is(err, ledger.ErrUnauthorized):
		s.writeError(w, endpoint, http.StatusForbidden, err)
	case errors.Is(err, ledger.ErrStillLocked), errors.Is(err, ledger.ErrOperationInFlight):
		s.writeError(w, endpoint, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrTransferFailed), errors.Is(err, gateway.ErrInsufficientFunds):
		s.writeError(w, endpoint, http.StatusBadGateway, err)
	default:
		s.writeError(w, endpoint, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeQueryError(w http.ResponseWriter, endpoint string, err error) {
	if errors.Is(err, query.ErrNotFound) {
		s.writeError(w, endpoint, http.StatusNotFound, err)
		return
	}
	s.writeError(w, endpoint, http.StatusInternalServerError, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)

	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})

	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
		if status >= 500 {
			s.metrics.QueryErrors.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
		}
	}
}
