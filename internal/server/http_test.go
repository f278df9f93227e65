package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StakeLedger/internal/gateway"
	"StakeLedger/internal/ledger"
	"StakeLedger/internal/notify"
	"StakeLedger/internal/observability"
	"StakeLedger/internal/pool"
	"StakeLedger/internal/server"
)

var (
	adminID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	aliceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
)

func newTestServer(t *testing.T) (*server.Server, *gateway.Bank) {
	t.Helper()
	bank := gateway.NewBank()
	engine := ledger.NewEngine(
		pool.NewRegistry(),
		ledger.NewPositionBook(),
		notify.NewLog(0, nil, nil),
		bank,
		ledger.NewStaticAdmins(adminID),
		nil,
		nil,
	)
	health := observability.NewHealthChecker()
	health.SetReady(true)
	return server.NewServer(":0", engine, nil, health, nil, observability.NewLogger("test")), bank
}

func doJSON(t *testing.T, s *server.Server, method, path string, caller uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != uuid.Nil {
		req.Header.Set("X-User-ID", caller.String())
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func createPool(t *testing.T, s *server.Server, apyBps, lockDays int64) int {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/v1/pools", adminID, map[string]any{
		"stake_token":  "ATOM",
		"reward_token": "OSMO",
		"apy_bps":      apyBps,
		"lock_days":    lockDays,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		PoolID int `json:"pool_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.PoolID
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/readyz", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePool(t *testing.T) {
	s, _ := newTestServer(t)

	id := createPool(t, s, 1000, 7)
	assert.Equal(t, 0, id)

	id = createPool(t, s, 500, 14)
	assert.Equal(t, 1, id)
}

func TestCreatePool_NonAdminForbidden(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/pools", aliceID, map[string]any{
		"stake_token":  "ATOM",
		"reward_token": "OSMO",
		"apy_bps":      1000,
		"lock_days":    7,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePool_MissingCaller(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/pools", uuid.Nil, map[string]any{
		"stake_token":  "ATOM",
		"reward_token": "OSMO",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePool_InvalidConfig(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/pools", adminID, map[string]any{
		"stake_token":  "",
		"reward_token": "OSMO",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositAndWithdraw(t *testing.T) {
	s, bank := newTestServer(t)
	id := createPool(t, s, 1000, 0)
	bank.Fund(aliceID, "ATOM", 1000)

	rec := doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/deposit", id), aliceID, map[string]any{"amount": 400})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 400, bank.CustodyBalance("ATOM"))

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/withdraw", id), aliceID, map[string]any{"amount": 150})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 250, bank.CustodyBalance("ATOM"))
}

func TestDeposit_UnknownPool(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/pools/7/deposit", aliceID, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeposit_BadPoolID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/pools/abc/deposit", aliceID, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeposit_InsufficientFunds(t *testing.T) {
	s, _ := newTestServer(t)
	id := createPool(t, s, 1000, 0)

	rec := doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/deposit", id), aliceID, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWithdraw_StillLockedConflict(t *testing.T) {
	s, bank := newTestServer(t)
	id := createPool(t, s, 1000, 7)
	bank.Fund(aliceID, "ATOM", 1000)

	rec := doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/deposit", id), aliceID, map[string]any{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/withdraw", id), aliceID, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWithdraw_Overdraft(t *testing.T) {
	s, bank := newTestServer(t)
	id := createPool(t, s, 1000, 0)
	bank.Fund(aliceID, "ATOM", 1000)

	doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/deposit", id), aliceID, map[string]any{"amount": 100})

	rec := doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/withdraw", id), aliceID, map[string]any{"amount": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPendingReward(t *testing.T) {
	s, bank := newTestServer(t)
	id := createPool(t, s, 1000, 0)
	bank.Fund(aliceID, "ATOM", 1000)

	doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/pools/%d/deposit", id), aliceID, map[string]any{"amount": 100})

	rec := doJSON(t, s, http.MethodGet, fmt.Sprintf("/v1/pools/%d/reward", id), aliceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PoolID int    `json:"pool_id"`
		UserID string `json:"user_id"`
		Reward string `json:"reward"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.PoolID)
	assert.Equal(t, aliceID.String(), resp.UserID)
	assert.Equal(t, "0", resp.Reward) // no time has passed since unlock
}
