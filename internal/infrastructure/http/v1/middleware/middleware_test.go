package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	appctx "retailcore/internal/core/context"
	"retailcore/internal/core/id"
	"retailcore/internal/core/idempotency"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticValidator struct {
	user *appctx.UserContext
	err  error
}

func (v staticValidator) ValidateToken(string) (*appctx.UserContext, error) {
	if v.err != nil {
		return nil, v.err
	}
	u := *v.user
	return &u, nil
}

type rolePolicy string

func (p rolePolicy) Privileged(_ id.ID, roles []string) bool {
	for _, r := range roles {
		if r == string(p) {
			return true
		}
	}
	return false
}

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	validator := staticValidator{user: &appctx.UserContext{UserID: 3, Roles: []string{"admin"}}}

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/me", Auth(validator, rolePolicy("admin")), func(c *gin.Context) {
		actor := Actor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "privileged": actor.Privileged})
	})

	w := serve(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer t"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"privileged":true}`, w.Body.String())

	bad := gin.New()
	bad.Use(ErrorHandler())
	bad.GET("/me", Auth(staticValidator{err: errors.New("expired")}, rolePolicy("admin")), func(c *gin.Context) {})
	w = serve(bad, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer t"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	validator := staticValidator{user: &appctx.UserContext{UserID: 3, Roles: []string{"cashier"}}}

	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(Auth(validator, rolePolicy("admin")))
	r.GET("/manager", RequireRole("manager"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/cashier", RequireRole("manager", "cashier"), func(c *gin.Context) { c.Status(http.StatusOK) })

	auth := map[string]string{"Authorization": "Bearer t"}
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/manager", "", auth).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/cashier", "", auth).Code)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/invalid", func(c *gin.Context) {
		_ = c.Error(apperror.NewInvalidRequest("Bad quantity").WithDetail("line", 0))
	})
	r.GET("/internal", func(c *gin.Context) {
		_ = c.Error(apperror.NewInternal(errors.New("pq: deadlock detected")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	w := serve(r, http.MethodGet, "/invalid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Bad quantity", body["message"])

	w = serve(r, http.MethodGet, "/internal", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")

	w = serve(r, http.MethodGet, "/plain", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Contains(t, w.Body.String(), w.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := serve(r, http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

type fakeStore struct {
	mu      sync.Mutex
	pending map[string]bool
	done    map[string]*idempotency.Replay
	failed  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{pending: map[string]bool{}, done: map[string]*idempotency.Replay{}, failed: map[string]int{}}
}

func (s *fakeStore) AcquireKey(_ context.Context, key string, _ id.ID, _, _ string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.done[key]; ok {
		return r, nil
	}
	if s.pending[key] {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	s.pending[key] = true
	return nil, nil
}

func (s *fakeStore) CompleteKey(_ context.Context, key string, status int, contentType string, response any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	delete(s.pending, key)
	s.done[key] = &idempotency.Replay{StatusCode: status, ContentType: contentType, Body: body}
	return nil
}

func (s *fakeStore) FailKey(_ context.Context, key string, status int, _ string, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	s.failed[key] = status
	return nil
}

func TestIdempotency_Replay(t *testing.T) {
	store := newFakeStore()
	calls := 0

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/sales", func(c *gin.Context) {
		calls++
		resp := gin.H{"id": calls}
		CompleteIdempotency(c, http.StatusCreated, "application/json", resp)
		c.JSON(http.StatusCreated, resp)
	})

	headers := map[string]string{HeaderIdempotencyKey: "k-1", "Content-Type": "application/json"}
	first := serve(r, http.MethodPost, "/sales", `{"a":1}`, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := serve(r, http.MethodPost, "/sales", `{"a":1}`, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	third := serve(r, http.MethodPost, "/sales", `{"a":1}`, nil)
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_FailedRequestReleasesKey(t *testing.T) {
	store := newFakeStore()

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/sales", func(c *gin.Context) {
		_ = c.Error(apperror.NewInvalidRequest("Not enough stock"))
	})

	w := serve(r, http.MethodPost, "/sales", `{}`, map[string]string{HeaderIdempotencyKey: "k-2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, store.failed["k-2"])
	assert.False(t, store.pending["k-2"])
}

func TestIdempotency_InFlight(t *testing.T) {
	store := newFakeStore()
	store.pending["k-3"] = true

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/sales", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := serve(r, http.MethodPost, "/sales", `{}`, map[string]string{HeaderIdempotencyKey: "k-3"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRateLimit_Memory(t *testing.T) {
	limit, err := RateLimit("2-M", nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(ErrorHandler(), limit)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "", nil).Code)
	w := serve(r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	_, err = RateLimit("lots", nil)
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://shop.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", "", map[string]string{"Origin": "https://shop.example"})
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
