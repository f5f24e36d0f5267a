package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"store-credit-ledger/config"
	httpHandler "store-credit-ledger/internal/adapter/http/handler"
	redisStorage "store-credit-ledger/internal/adapter/storage/redis"
	"store-credit-ledger/internal/service"
	"store-credit-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	balanceCache := redisStorage.NewBalanceCache(rdb, 5*time.Minute)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// In-memory repos
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	outboxRepo := newInMemoryOutboxRepo()
	transactor := newInMemoryTransactor()

	// Business services
	cfg := config.WalletConfig{DefaultCurrency: "MAD", BalanceCacheTTL: 5 * time.Minute, HistoryLimit: 50}
	log := logger.New("debug", false)
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, outboxRepo, balanceCache, transactor, cfg, log)
	settlementSvc := service.NewSettlementService(ledgerSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:       ledgerSvc,
		SettlementSvc:   settlementSvc,
		DefaultCurrency: "MAD",
		RateLimitStore:  rateLimitStore,
		Logger:          log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

func (a *testApp) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// --- Integration Tests ---

func TestIntegration_CreditAndBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.post(t, "/api/v1/wallets/cus_1/credit", `{"amount":"100.50","reference_id":"signup_bonus"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "100.5", data["balance"])
	assert.Equal(t, "MAD", data["currency"])

	resp, body = app.get(t, "/api/v1/wallets/cus_1/balance")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Equal(t, "100.5", data["balance"])
}

func TestIntegration_DebitInsufficientBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.post(t, "/api/v1/wallets/cus_1/credit", `{"amount":"75"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := app.post(t, "/api/v1/wallets/cus_1/debit", `{"amount":"300"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "WAL_003", body["error_code"])
}

func TestIntegration_DebitUnknownCustomer(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.post(t, "/api/v1/wallets/cus_ghost/debit", `{"amount":"10"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "WAL_002", body["error_code"])
}

func TestIntegration_BalanceUnknownCustomerIsZero(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.get(t, "/api/v1/wallets/cus_ghost/balance")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "0", data["balance"])
}

func TestIntegration_CheckoutFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.post(t, "/api/v1/wallets/cus_1/credit", `{"amount":"75"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := app.post(t, "/api/v1/checkout/cus_1/quote", `{"cart_total":"300"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "75", data["wallet_portion"])
	assert.Equal(t, "225", data["remainder_portion"])
	assert.Equal(t, false, data["fully_covered"])

	resp, body = app.post(t, "/api/v1/checkout/cus_1/settle", `{"cart_id":"cart_42","cart_total":"300"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Equal(t, "75", data["wallet_portion"])
	assert.NotEmpty(t, data["transaction_id"])

	resp, body = app.get(t, "/api/v1/wallets/cus_1/balance")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Equal(t, "0", data["balance"])
}

func TestIntegration_TransactionHistory(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	for _, body := range []string{`{"amount":"100"}`, `{"amount":"50"}`} {
		resp, _ := app.post(t, "/api/v1/wallets/cus_1/credit", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := app.post(t, "/api/v1/wallets/cus_1/debit", `{"amount":"30","reference_id":"cart_7"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := app.get(t, "/api/v1/wallets/cus_1/transactions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].([]any)
	require.Len(t, data, 3)

	newest := data[0].(map[string]any)
	assert.Equal(t, "DEBIT", newest["type"])
	assert.Equal(t, "30", newest["amount"])
	assert.Equal(t, "cart_7", newest["reference_id"])
	assert.Equal(t, "150", newest["balance_before"])
	assert.Equal(t, "120", newest["balance_after"])
}

func TestIntegration_InvalidPayloads(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	cases := []struct {
		name string
		path string
		body string
	}{
		{"missing amount", "/api/v1/wallets/cus_1/credit", `{}`},
		{"malformed json", "/api/v1/wallets/cus_1/credit", `{"amount":`},
		{"settle without cart id", "/api/v1/checkout/cus_1/settle", `{"cart_total":"10"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := app.post(t, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestIntegration_ZeroAmountRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.post(t, "/api/v1/wallets/cus_1/credit", `{"amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WAL_001", body["error_code"])
}

func TestIntegration_RateLimitHeaders(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/api/v1/wallets/cus_1/balance")
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
}
