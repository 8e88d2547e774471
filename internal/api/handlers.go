package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/punchamoorthee/stakeops/internal/auth"
	"github.com/punchamoorthee/stakeops/internal/staking"
	"github.com/punchamoorthee/stakeops/internal/token"
	"github.com/punchamoorthee/stakeops/internal/vesting"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakeops_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stakeops_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	stakesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakeops_stakes_created_total",
		Help: "Stakes created, labeled by package",
	}, []string{"package"})

	stakeWithdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeops_stake_withdrawals_total",
		Help: "Stakes withdrawn",
	})

	vestingReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeops_vesting_releases_total",
		Help: "Vesting releases executed",
	})

	vestingRevocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeops_vesting_revocations_total",
		Help: "Vesting revocations executed",
	})
)

type Handler struct {
	staking *staking.Engine
	vesting *vesting.Engine
}

func NewHandler(stakingEngine *staking.Engine, vestingEngine *vesting.Engine) *Handler {
	return &Handler{staking: stakingEngine, vesting: vestingEngine}
}

// Router assembles the /api/v1 surface. Every route runs behind the auth
// middleware; /health and /metrics are mounted by the caller.
func (h *Handler) Router(mw *auth.Middleware) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	if mw != nil {
		v1.Use(mw.Wrap)
	}

	v1.HandleFunc("/stakes", h.CreateStakeHandler).Methods("POST")
	v1.HandleFunc("/stakes", h.ListStakesHandler).Methods("GET")
	v1.HandleFunc("/stakes/{index}/withdraw", h.WithdrawStakeHandler).Methods("POST")
	v1.HandleFunc("/packages/{name}", h.GetPackageHandler).Methods("GET")
	v1.HandleFunc("/staking/stats", h.StakingStatsHandler).Methods("GET")
	v1.HandleFunc("/staking/pause", h.PauseHandler).Methods("POST")
	v1.HandleFunc("/staking/unpause", h.UnpauseHandler).Methods("POST")
	v1.HandleFunc("/staking/reserve", h.FundReserveHandler).Methods("POST")
	v1.HandleFunc("/accounts/{id}/staking", h.AccountStakingHandler).Methods("GET")
	v1.HandleFunc("/vesting", h.VestingInfoHandler).Methods("GET")
	v1.HandleFunc("/vesting/release", h.ReleaseHandler).Methods("POST")
	v1.HandleFunc("/vesting/revoke", h.RevokeHandler).Methods("POST")
	return r
}

type stakeRequest struct {
	Amount  int64  `json:"amount"`
	Package string `json:"package"`
}

func (h *Handler) CreateStakeHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/stakes"))
	defer timer.ObserveDuration()

	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "POST", "/stakes", auth.ErrUnauthorized)
		return
	}

	var req stakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/stakes", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	index, err := h.staking.Stake(r.Context(), caller, req.Amount, req.Package)
	if err != nil {
		h.reject(w, "POST", "/stakes", err)
		return
	}

	stakesCreatedTotal.WithLabelValues(req.Package).Inc()
	httpRequestsTotal.WithLabelValues("POST", "/stakes", "201").Inc()
	respondWithJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (h *Handler) ListStakesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "GET", "/stakes", auth.ErrUnauthorized)
		return
	}
	httpRequestsTotal.WithLabelValues("GET", "/stakes", "200").Inc()
	respondWithJSON(w, http.StatusOK, h.staking.Stakes(caller))
}

func (h *Handler) WithdrawStakeHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/stakes/{index}/withdraw"))
	defer timer.ObserveDuration()

	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "POST", "/stakes/{index}/withdraw", auth.ErrUnauthorized)
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/stakes/{index}/withdraw", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Invalid stake index")
		return
	}

	paid, err := h.staking.Withdraw(r.Context(), caller, index)
	if err != nil {
		h.reject(w, "POST", "/stakes/{index}/withdraw", err)
		return
	}

	stakeWithdrawalsTotal.Inc()
	httpRequestsTotal.WithLabelValues("POST", "/stakes/{index}/withdraw", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]int64{"paid": paid})
}

func (h *Handler) GetPackageHandler(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.staking.Package(mux.Vars(r)["name"])
	if err != nil {
		h.reject(w, "GET", "/packages/{name}", err)
		return
	}
	httpRequestsTotal.WithLabelValues("GET", "/packages/{name}", "200").Inc()
	respondWithJSON(w, http.StatusOK, pkg)
}

func (h *Handler) StakingStatsHandler(w http.ResponseWriter, r *http.Request) {
	httpRequestsTotal.WithLabelValues("GET", "/staking/stats", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_staked_funds": h.staking.TotalStakedFunds(),
		"paused":             h.staking.Paused(),
	})
}

func (h *Handler) AccountStakingHandler(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["id"]
	httpRequestsTotal.WithLabelValues("GET", "/accounts/{id}/staking", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_staked_balance": h.staking.TotalStakedBalance(account),
		"has_staked":           h.staking.HasStaked(account),
	})
}

func (h *Handler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	h.togglePause(w, r, "/staking/pause", h.staking.Pause)
}

func (h *Handler) UnpauseHandler(w http.ResponseWriter, r *http.Request) {
	h.togglePause(w, r, "/staking/unpause", h.staking.Unpause)
}

func (h *Handler) togglePause(w http.ResponseWriter, r *http.Request, endpoint string, toggle func(string) error) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "POST", endpoint, auth.ErrUnauthorized)
		return
	}
	if err := toggle(caller); err != nil {
		h.reject(w, "POST", endpoint, err)
		return
	}
	httpRequestsTotal.WithLabelValues("POST", endpoint, "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]bool{"paused": h.staking.Paused()})
}

type reserveRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) FundReserveHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "POST", "/staking/reserve", auth.ErrUnauthorized)
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/staking/reserve", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	if err := h.staking.FundReserve(r.Context(), caller, req.Amount); err != nil {
		h.reject(w, "POST", "/staking/reserve", err)
		return
	}
	httpRequestsTotal.WithLabelValues("POST", "/staking/reserve", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]int64{"funded": req.Amount})
}

func (h *Handler) VestingInfoHandler(w http.ResponseWriter, r *http.Request) {
	available, err := h.vesting.Available(r.Context())
	if err != nil {
		h.reject(w, "GET", "/vesting", err)
		return
	}
	httpRequestsTotal.WithLabelValues("GET", "/vesting", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"owner":          h.vesting.Owner(),
		"beneficiary":    h.vesting.Beneficiary(),
		"start":          h.vesting.Start(),
		"finish":         h.vesting.Finish(),
		"duration_secs":  int64(h.vesting.Duration().Seconds()),
		"releases_count": h.vesting.ReleasesCount(),
		"released":       h.vesting.Released(),
		"revocable":      h.vesting.Revocable(),
		"revoked":        h.vesting.Revoked(),
		"available":      available,
	})
}

func (h *Handler) ReleaseHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/vesting/release"))
	defer timer.ObserveDuration()

	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "POST", "/vesting/release", auth.ErrUnauthorized)
		return
	}

	released, err := h.vesting.Release(r.Context(), caller)
	if err != nil {
		h.reject(w, "POST", "/vesting/release", err)
		return
	}

	vestingReleasesTotal.Inc()
	httpRequestsTotal.WithLabelValues("POST", "/vesting/release", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]int64{"released": released})
}

type revokeRequest struct {
	RefundTo string `json:"refund_to"`
}

func (h *Handler) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		h.reject(w, "POST", "/vesting/revoke", auth.ErrUnauthorized)
		return
	}

	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefundTo == "" {
		httpRequestsTotal.WithLabelValues("POST", "/vesting/revoke", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "refund_to is required")
		return
	}

	refunded, err := h.vesting.Revoke(r.Context(), caller, req.RefundTo)
	if err != nil {
		h.reject(w, "POST", "/vesting/revoke", err)
		return
	}

	vestingRevocationsTotal.Inc()
	httpRequestsTotal.WithLabelValues("POST", "/vesting/revoke", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]int64{"refunded": refunded})
}

// reject maps engine errors onto HTTP statuses. Ledger sentinels pass through
// the engines unchanged, so errors.Is classification works no matter how many
// layers wrapped the error.
func (h *Handler) reject(w http.ResponseWriter, method, endpoint string, err error) {
	var code int
	message := err.Error()
	switch {
	case errors.Is(err, staking.ErrInvalidAmount),
		errors.Is(err, token.ErrInsufficientFunds):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, staking.ErrUnknownPackage),
		errors.Is(err, staking.ErrStakeNotFound),
		errors.Is(err, token.ErrAccountNotFound):
		code = http.StatusNotFound
	case errors.Is(err, staking.ErrStakingPaused),
		errors.Is(err, staking.ErrStakeLocked),
		errors.Is(err, staking.ErrStakeAlreadyWithdrawn),
		errors.Is(err, vesting.ErrNothingDue),
		errors.Is(err, vesting.ErrNotRevocable),
		errors.Is(err, vesting.ErrAlreadyRevoked):
		code = http.StatusConflict
	case errors.Is(err, staking.ErrUnauthorized),
		errors.Is(err, vesting.ErrUnauthorized),
		errors.Is(err, auth.ErrUnauthorized):
		code = http.StatusForbidden
	case errors.Is(err, token.ErrInsufficientReserve):
		code = http.StatusServiceUnavailable
	default:
		code = http.StatusInternalServerError
		message = "Internal Server Error"
	}
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	respondWithError(w, code, message)
}
