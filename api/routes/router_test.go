package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/api/controllers"
	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	"github.com/angelmondragon/packfinderz-pos/internal/terminals"
	pkgAuth "github.com/angelmondragon/packfinderz-pos/pkg/auth"
	"github.com/angelmondragon/packfinderz-pos/pkg/config"
	"github.com/angelmondragon/packfinderz-pos/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubLoader struct{}

func (stubLoader) Load(context.Context, catalog.Query) (*catalog.Ledger, error) {
	return catalog.NewLedger([]catalog.Product{
		{ProductID: "p1", Name: "Tea", UnitPrice: decimal.NewFromInt(3), AvailableStock: 5},
	}, time.Now()), nil
}

func (l stubLoader) Refresh(ctx context.Context, q catalog.Query) (*catalog.Ledger, error) {
	return l.Load(ctx, q)
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "dev", CORSAllowedOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{Secret: "secret"},
	}
}

func testToken(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, pkgAuth.CredentialClaims{
		StaffID: "staff-1",
		StoreID: "store-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	promReg := prometheus.NewRegistry()
	reg := terminals.NewRegistry(stubLoader{}, terminals.Options{
		IdleTTL: time.Hour,
		Metrics: metrics.NewTerminalMetrics(promReg),
		Checkout: checkout.Deps{
			Metrics: metrics.NewCheckoutMetrics(promReg),
		},
	})
	return NewRouter(testConfig(), nil, Deps{
		Registry:  reg,
		Readiness: map[string]controllers.Pinger{"db": stubPinger{}},
		Gatherer:  promReg,
	})
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestTerminalRoutesRequireCredentials(t *testing.T) {
	router := newTestRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/terminals/sessions", strings.NewReader(`{}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "AUTH_EXPIRED") {
		t.Fatalf("expected AUTH_EXPIRED, got %s", resp.Body.String())
	}
}

func TestTerminalSessionFlowAndMetrics(t *testing.T) {
	router := newTestRouter(t)
	token := testToken(t)

	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	resp := call(http.MethodPost, "/api/v1/terminals/sessions", "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("open session: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"store_id":"store-1"`) {
		t.Fatalf("session should default to the credential's store: %s", resp.Body.String())
	}

	resp = call(http.MethodGet, "/api/v1/terminals/sessions/missing/checkout", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	resp = call(http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "pos_terminal_sessions_active 1") {
		t.Fatalf("expected active session gauge, got %d: %s", resp.Code, resp.Body.String())
	}
}
