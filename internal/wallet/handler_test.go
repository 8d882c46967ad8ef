package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_service/internal/logging"
	"github.com/congo-pay/wallet_service/internal/middleware"
)

func newTestApp(store Store) *fiber.App {
	h := NewHandler(NewService(store, logging.Discard()))
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	api := app.Group("/api/v1")
	api.Post("/wallets", h.Create)
	api.Put("/wallets", h.UpdateBalance)
	api.Get("/wallets/:walletId", h.Get)
	api.Get("/wallets/:walletId/transactions", h.Transactions)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestHandlerCreateWallet(t *testing.T) {
	app := newTestApp(NewMemoryStore())
	userID := uuid.New()

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/wallets", map[string]any{
		"userId":   userID,
		"fullName": "Jane Doe",
		"balance":  0,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(raw))

	var body struct {
		Message string         `json:"message"`
		Data    walletResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Wallet Created Successfully.", body.Message)
	assert.Equal(t, userID, body.Data.UserID)
	assert.NotEqual(t, uuid.Nil, body.Data.WalletID)
	assert.True(t, body.Data.Balance.IsZero())
	assert.NotEmpty(t, resp.Header.Get(middleware.CorrelationIDHeader))
}

func TestHandlerCreateWalletNegativeBalance(t *testing.T) {
	app := newTestApp(NewMemoryStore())

	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/wallets", map[string]any{
		"userId":   uuid.New(),
		"fullName": "Jane Doe",
		"balance":  -5,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body failureResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []string{msgNegativeBalance}, body.Errors)
}

func TestHandlerUpdateBalance(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, "100")
	app := newTestApp(store)

	resp, raw := doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
		"correlationId": uuid.New(),
		"walletId":      w.ID,
		"amount":        "-40.5",
		"clientId":      uuid.New(),
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(raw))
	requireBalance(t, store, w.ID, "59.5")

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/wallets/"+w.ID.String()+"/transactions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txs []transactionResponse
	require.NoError(t, json.Unmarshal(raw, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "-40.5", txs[0].Amount.String())
}

func TestHandlerUpdateBalanceInsufficientFunds(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, "100")
	app := newTestApp(store)

	resp, raw := doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
		"walletId": w.ID,
		"amount":   -150,
		"clientId": uuid.New(),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body failureResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []string{msgInsufficientFunds}, body.Errors)
	requireBalance(t, store, w.ID, "100")
}

func TestHandlerUpdateBalanceUnknownWallet(t *testing.T) {
	app := newTestApp(NewMemoryStore())

	resp, raw := doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
		"walletId": uuid.New(),
		"amount":   10,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body failureResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []string{msgWalletDoesNotExist}, body.Errors)
}

func TestHandlerUpdateBalanceConflictExhausted(t *testing.T) {
	store := newHookedStore()
	w := seedWallet(t, store, "100")
	store.beforeScope = func(context.Context, int32) error { return ErrVersionConflict }
	app := newTestApp(store)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
		"walletId": w.ID,
		"amount":   10,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.EqualValues(t, DefaultMaxRetries+1, store.scopeCalls.Load())
	requireBalance(t, store, w.ID, "100")
}

func TestHandlerGetWallet(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, "12.25")
	app := newTestApp(store)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/wallets/"+w.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body walletResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, w.ID, body.WalletID)
	assert.Equal(t, "Jane Doe", body.Owner)
	assert.Equal(t, "12.25", body.Balance.String())

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/wallets/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/wallets/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	app := newTestApp(NewMemoryStore())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/wallets", bytes.NewBufferString(`{"walletId":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerUpdateBalanceRejectsUnstorableAmount(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, "100")
	app := newTestApp(store)

	resp, raw := doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
		"walletId": w.ID,
		"amount":   "0.00001",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body failureResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []string{msgAmountScale}, body.Errors)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
		"walletId": w.ID,
		"amount":   "10000000000",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	requireBalance(t, store, w.ID, "100")
	txs, err := store.Transactions(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestHandlerListTransactions(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, "10")
	app := newTestApp(store)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/wallets/"+w.ID.String()+"/transactions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))

	clientID := uuid.New()
	for _, amount := range []string{"5", "-2.5"} {
		resp, raw = doJSON(t, app, http.MethodPut, "/api/v1/wallets", map[string]any{
			"walletId": w.ID,
			"amount":   amount,
			"clientId": clientID,
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/wallets/"+w.ID.String()+"/transactions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txs []transactionResponse
	require.NoError(t, json.Unmarshal(raw, &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, "5", txs[0].Amount.String())
	assert.Equal(t, "-2.5", txs[1].Amount.String())
	assert.Equal(t, clientID, txs[1].ClientID)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/transactions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/wallets/not-a-uuid/transactions", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
