package server

import (
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/gofiber/fiber/v2"
    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/congo-pay/wallet_service/internal/config"
    "github.com/congo-pay/wallet_service/internal/logging"
)

func newTestServer(t *testing.T) *fiber.App {
    t.Helper()
    mr := miniredis.RunT(t)
    cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = cache.Close() })

    cfg := config.Config{
        AppName:            "WalletService",
        AppEnv:             "test",
        MetricsNamespace:   "wallet_service",
        IdempotencyTTL:     time.Minute,
        MaxConflictRetries: 3,
    }
    srv, err := New(cfg, nil, cache, logging.Discard())
    require.NoError(t, err)
    return srv.App()
}

func send(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, string) {
    t.Helper()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    for k, v := range headers {
        req.Header.Set(k, v)
    }
    resp, err := app.Test(req, -1)
    require.NoError(t, err)
    defer resp.Body.Close()
    raw, err := io.ReadAll(resp.Body)
    require.NoError(t, err)
    return resp.StatusCode, string(raw)
}

func TestServerWalletLifecycle(t *testing.T) {
    app := newTestServer(t)

    status, body := send(t, app, http.MethodPost, "/api/v1/wallets",
        `{"userId":"`+uuid.NewString()+`","fullName":"Jane Doe","balance":100}`, nil)
    require.Equal(t, http.StatusAccepted, status, body)

    var created struct {
        Data struct {
            WalletID string `json:"walletId"`
        } `json:"data"`
    }
    require.NoError(t, json.Unmarshal([]byte(body), &created))

    update := `{"walletId":"` + created.Data.WalletID + `","amount":10,"clientId":"` + uuid.NewString() + `"}`
    key := map[string]string{"Idempotency-Key": uuid.NewString()}
    status, first := send(t, app, http.MethodPut, "/api/v1/wallets", update, key)
    require.Equal(t, http.StatusAccepted, status, first)
    status, replay := send(t, app, http.MethodPut, "/api/v1/wallets", update, key)
    require.Equal(t, http.StatusAccepted, status)
    assert.JSONEq(t, first, replay)

    status, body = send(t, app, http.MethodGet, "/api/v1/wallets/"+created.Data.WalletID, "", nil)
    require.Equal(t, http.StatusOK, status)
    assert.Contains(t, body, `"balance":"110"`)

    status, body = send(t, app, http.MethodGet, "/metrics", "", nil)
    require.Equal(t, http.StatusOK, status)
    assert.Contains(t, body, `wallet_service_balance_update_attempts_total{outcome="success"} 1`)
}

func TestServerHealth(t *testing.T) {
    app := newTestServer(t)

    status, body := send(t, app, http.MethodGet, "/healthz", "", nil)
    require.Equal(t, http.StatusOK, status)
    assert.Contains(t, body, `"wallet_store":"memory"`)
    assert.Contains(t, body, `"idempotency":"ok"`)

    status, _ = send(t, app, http.MethodGet, "/api/v1/ping", "", nil)
    assert.Equal(t, http.StatusOK, status)
}

func TestServerRequiresStoresOutsideDev(t *testing.T) {
    _, err := New(config.Config{AppEnv: "production", MetricsNamespace: "wallet_service"}, nil, nil, logging.Discard())
    require.Error(t, err)
}
