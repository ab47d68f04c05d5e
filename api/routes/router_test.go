package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-storefront/internal/cart"
	"github.com/angelmondragon/marketplace-storefront/internal/checkout"
	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	"github.com/angelmondragon/marketplace-storefront/pkg/config"
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/metrics"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev},
		Session: config.SessionConfig{CookieName: "sf_session", PersistTTL: time.Hour, EphemeralTTL: time.Minute},
		RateLimit: config.RateLimitConfig{
			LoginWindow: time.Minute, LoginIPLimit: 20, LoginEmailLimit: 5,
			OTPWindow: time.Minute, OTPIPLimit: 20, OTPEmailLimit: 5,
		},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Upload: config.UploadConfig{MaxUploadMB: 1},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := redis.NewMemory()
	return newRouterWith(t, store, newManager(t, store), Services{
		Cart:       cart.NewService(),
		Navigation: navguard.NewRegistry(),
	})
}

func newManager(t *testing.T, store *redis.Client) *clientstate.Manager {
	t.Helper()
	manager, err := clientstate.NewManager(store, clientstate.Options{PersistTTL: time.Hour, EphemeralTTL: time.Minute})
	require.NoError(t, err)
	return manager
}

func newRouterWith(t *testing.T, store *redis.Client, manager *clientstate.Manager, svc Services) http.Handler {
	t.Helper()
	svc.States = manager
	reg := prometheus.NewRegistry()
	return NewRouter(testConfig(), logger.Nop(), store, reg, metrics.NewHTTPMetrics(reg), svc)
}

// signedInSession stores a token pair for a fresh session id and returns it.
func signedInSession(t *testing.T, manager *clientstate.Manager) string {
	t.Helper()
	sessionID := uuid.NewString()
	state, err := manager.Open(context.Background(), sessionID)
	require.NoError(t, err)
	require.NoError(t, state.SaveTokens(context.Background(), marketplace.TokenPair{AccessToken: "access", RefreshToken: "refresh"}))
	return sessionID
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t)

	live := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, live.Code)

	ready := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, ready.Code)
}

func TestCartIsServedToAnonymousSessions(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/storefront/v1/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sf_session", cookies[0].Name)
}

func TestAuthenticatedRoutesRequireSignIn(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/storefront/v1/cards", "/storefront/v1/bank-accounts", "/storefront/v1/cms/banner"} {
		rec := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestPlaceOrderRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/storefront/v1/checkout/place-order", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestNavigationAllowedWithoutCheckout(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/storefront/v1/navigation", strings.NewReader(`{"kind":"route","to":"/orders"}`))
	rec := serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Allow bool `json:"allow"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Allow)
}

func TestUnwiredServiceAnswersInternal(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/storefront/v1/otp/cooldown", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCompleteGoogleSignupIsMounted(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/storefront/v1/auth/complete-google-signup", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "auth service is not wired in this router")

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/storefront/v1/auth/google/complete-signup", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointExposesRequestCounter(t *testing.T) {
	router := newTestRouter(t)

	serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

// slowCheckout holds the first PlaceOrder until release is closed.
type slowCheckout struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *slowCheckout) Quote(context.Context, *clientstate.Store, checkout.QuoteRequest) (*checkout.Quote, error) {
	return &checkout.Quote{}, nil
}

func (s *slowCheckout) PlaceOrder(context.Context, *clientstate.Store, checkout.PlaceOrderRequest) (*checkout.PlaceOrderResult, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	<-s.release
	return &checkout.PlaceOrderResult{State: enums.CheckoutStateSuccess, OrderIDs: []string{"o-1"}}, nil
}

func TestPlaceOrderDoubleSubmitReplaysOrder(t *testing.T) {
	store := redis.NewMemory()
	manager := newManager(t, store)
	svc := &slowCheckout{started: make(chan struct{}), release: make(chan struct{})}
	router := newRouterWith(t, store, manager, Services{Checkout: svc})
	sessionID := signedInSession(t, manager)

	placeOrder := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/storefront/v1/checkout/place-order", strings.NewReader(`{"deliveryMethod":"pickup","paymentCardId":"card-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "order-click")
		req.AddCookie(&http.Cookie{Name: "sf_session", Value: sessionID})
		return serve(router, req)
	}

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() { firstDone <- placeOrder() }()
	<-svc.started

	second := placeOrder()
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", errorCode(t, second))

	close(svc.release)
	first := <-firstDone
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay := placeOrder()
	require.Equal(t, http.StatusCreated, replay.Code, replay.Body.String())
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, int32(1), svc.calls.Load())
}
