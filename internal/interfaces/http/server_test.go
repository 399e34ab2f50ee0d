package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/payment"
	"github.com/electrostore/ecommerce-backend/internal/pkg/testdb"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeStore struct {
	db  *gorm.DB
	err error
}

func (f *fakeStore) Health(context.Context) error { return f.err }
func (f *fakeStore) GetDB() *gorm.DB              { return f.db }

type fakeCache struct {
	err  error
	hits int64
}

func (f *fakeCache) Health(context.Context) error { return f.err }

func (f *fakeCache) Hit(context.Context, string, time.Duration) (int64, time.Duration, error) {
	f.hits++
	return f.hits, time.Minute, nil
}

type missingPayments struct {
	fetched []string
}

func (m *missingPayments) CreatePreference(context.Context, *payment.PreferenceRequest) (*payment.Preference, error) {
	return nil, errors.New("not supported")
}

func (m *missingPayments) GetPayment(_ context.Context, id string) (*payment.ProviderPayment, error) {
	m.fetched = append(m.fetched, id)
	return nil, payment.ErrPaymentNotFound
}

func (m *missingPayments) GetMerchantOrder(_ context.Context, id string) (*payment.MerchantOrder, error) {
	m.fetched = append(m.fetched, id)
	return nil, errors.New("not found")
}

func newTestServer(t *testing.T, store *fakeStore, cache *fakeCache) *Server {
	return newTestServerWithProvider(t, store, cache, &missingPayments{})
}

func newTestServerWithProvider(t *testing.T, store *fakeStore, cache *fakeCache, provider payment.Provider) *Server {
	gin.SetMode(gin.TestMode)
	store.db = testdb.New(t)
	log, _ := test.NewNullLogger()
	cfg := &config.Config{
		App:      config.AppConfig{Name: "ElectroStore API", Version: "1.0.0", Environment: "test"},
		JWT:      config.JWTConfig{Secret: "test-secret-test-secret-test-secret-1234"},
		Security: config.SecurityConfig{RateLimitPerMinute: 100},
		Checkout: config.CheckoutConfig{OrderCodePrefix: "PED"},
	}
	return NewServer(cfg, store, cache, provider, log)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{}
	s := newTestServer(t, store, cache)

	w := get(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	cache.err = errors.New("connection refused")
	w = get(s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis ping failed")

	cache.err = nil
	store.err = errors.New("connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, get(s, "/health").Code)
}

func TestReadyAndRateLimitedAPI(t *testing.T) {
	cache := &fakeCache{}
	s := newTestServer(t, &fakeStore{}, cache)

	w := get(s, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uptime"`)
	assert.Zero(t, cache.hits, "health routes are not rate limited")

	w = get(s, "/api/v1/cart")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, int64(1), cache.hits)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}

func TestWebhookBypassesRateLimit(t *testing.T) {
	cache := &fakeCache{hits: 100}
	provider := &missingPayments{}
	s := newTestServerWithProvider(t, &fakeStore{}, cache, provider)

	w := get(s, "/api/v1/products")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, int64(101), cache.hits)

	for i := 0; i < 3; i++ {
		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(`{"type":"payment","data":{"id":"12345"}}`))
		req.Header.Set("Content-Type", "application/json")
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"received"`)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, int64(101), cache.hits, "webhook deliveries are not counted")
	assert.Equal(t, []string{"12345", "12345", "12345"}, provider.fetched)
}
