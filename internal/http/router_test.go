package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/http/handlers"
	"github.com/you/retaildash/internal/http/middleware"
	"github.com/you/retaildash/internal/infrastructure/auth"
	"github.com/you/retaildash/internal/infrastructure/visitors"
	"github.com/you/retaildash/internal/metrics"
)

// stubBackend plays the retail API. Tokens are "tok-<email>".
type stubBackend struct {
	mu        sync.Mutex
	users     map[string]gin.H
	customers []gin.H
	meGate    chan struct{}
}

func newStubBackend() *stubBackend {
	return &stubBackend{users: map[string]gin.H{
		"root@retail.test":  {"id": "u1", "phone": "+919876543210", "role": "SUPERADMIN"},
		"owner@retail.test": {"id": "u2", "phone": "+919876543211", "role": "STORE_ADMIN", "shopIds": []string{"s1", "s2"}},
		"staff@retail.test": {"id": "u3", "phone": "+919876543212", "role": "BRANCH_STAFF", "branchId": "b7"},
	}}
}

func (b *stubBackend) user(c *gin.Context) gin.H {
	token, err := c.Cookie("access_token")
	if err != nil {
		return nil
	}
	return b.users[strings.TrimPrefix(token, "tok-")]
}

func (b *stubBackend) handler() http.Handler {
	r := gin.New()
	r.GET("/auth/me", func(c *gin.Context) {
		if b.meGate != nil {
			<-b.meGate
		}
		if u := b.user(c); u != nil {
			c.JSON(200, u)
			return
		}
		c.JSON(401, gin.H{"message": "Unauthorized"})
	})
	r.POST("/auth/refresh", func(c *gin.Context) { c.JSON(401, gin.H{"message": "Unauthorized"}) })
	r.POST("/auth/login", func(c *gin.Context) {
		var body struct{ Email, Password string }
		_ = c.ShouldBindJSON(&body)
		u, ok := b.users[body.Email]
		if !ok || body.Password != "secret" {
			c.JSON(401, gin.H{"message": "Invalid credentials"})
			return
		}
		c.SetCookie("access_token", "tok-"+body.Email, 900, "/", "", false, true)
		c.JSON(200, gin.H{"user": u})
	})
	r.POST("/auth/logout", func(c *gin.Context) {
		c.SetCookie("access_token", "", -1, "/", "", false, true)
		c.Status(204)
	})
	r.POST("/auth/send-otp", func(c *gin.Context) {
		var body struct{ Phone string }
		_ = c.ShouldBindJSON(&body)
		c.JSON(200, gin.H{"ok": true, "otp": "123456", "phone": body.Phone})
	})
	r.GET("/shops", func(c *gin.Context) { c.JSON(200, []gin.H{{"id": "s1", "name": "Main Street"}}) })
	r.POST("/shops", func(c *gin.Context) { c.JSON(500, gin.H{"message": "db down"}) })
	r.GET("/offers", func(c *gin.Context) { c.JSON(500, gin.H{"message": "db down"}) })
	r.POST("/offers", func(c *gin.Context) {
		c.JSON(400, gin.H{"message": []string{"title too short", "branch unknown"}})
	})
	r.POST("/branches", func(c *gin.Context) {
		var body gin.H
		_ = c.ShouldBindJSON(&body)
		body["id"] = "b1"
		c.JSON(201, body)
	})
	r.GET("/customers", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := []gin.H{}
		for _, cu := range b.customers {
			if id := c.Query("branchId"); id == "" || cu["branchId"] == id {
				out = append(out, cu)
			}
		}
		c.JSON(200, out)
	})
	r.POST("/customers", func(c *gin.Context) {
		var body gin.H
		_ = c.ShouldBindJSON(&body)
		body["id"] = "c1"
		b.mu.Lock()
		b.customers = append(b.customers, body)
		b.mu.Unlock()
		c.JSON(201, body)
	})
	return r
}

type harness struct {
	t        *testing.T
	router   *gin.Engine
	registry *visitors.Registry
	cookie   *http.Cookie
}

func newHarness(t *testing.T, backend *stubBackend) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	gate, err := auth.NewCasbinService()
	require.NoError(t, err)

	collector := metrics.New()
	registry := visitors.NewRegistry(
		visitors.NewMemoryCookieStore(time.Hour),
		func(jar http.CookieJar) (*apiclient.Client, error) {
			return apiclient.New(apiclient.Config{BaseURL: srv.URL, Jar: jar, Timeout: 5 * time.Second, Observer: collector})
		},
		visitors.WithGauge(collector),
	)

	log := zap.NewNop()
	router := BuildRouter(
		handlers.NewSessionHandlers(gate),
		handlers.NewPageHandlers(gate, log),
		middleware.NewVisitorMW(registry, time.Hour, false, log),
		middleware.NewPageGateMW(gate),
		collector.Handler(),
		log,
	)
	return &harness{t: t, router: router, registry: registry}
}

// do sends a request as the harness's browser, keeping the visitor cookie
func (h *harness) do(method, path string, body any) (int, map[string]any) {
	h.t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == visitors.CookieName {
			h.cookie = c
		}
	}

	var out map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

// settle waits for the visitor's initial identity fetch
func (h *harness) settle() {
	h.t.Helper()
	require.NotNil(h.t, h.cookie, "no visitor cookie issued")
	v, err := h.registry.Resolve(context.Background(), h.cookie.Value)
	require.NoError(h.t, err)
	select {
	case <-v.Started():
	case <-time.After(5 * time.Second):
		h.t.Fatal("session never finished starting")
	}
}

func (h *harness) login(email string) {
	h.t.Helper()
	h.do(http.MethodGet, "/session", nil)
	h.settle()
	code, body := h.do(http.MethodPost, "/session/login", gin.H{"email": email, "password": "secret"})
	require.Equal(h.t, http.StatusOK, code, body)
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data envelope: %v", body)
	return d
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newHarness(t, newStubBackend())

	code, body := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "retaildash_visitors_active")
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	h := newHarness(t, newStubBackend())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_PhoneFormat(t *testing.T) {
	h := newHarness(t, newStubBackend())

	code, body := h.do(http.MethodGet, "/phone/format?value=9876543210", nil)
	require.Equal(t, http.StatusOK, code)
	d := data(t, body)
	assert.Equal(t, "+91 9876543210", d["display"])
	assert.Equal(t, true, d["valid"])
	assert.Equal(t, "+919876543210", d["wire"])

	_, body = h.do(http.MethodGet, "/phone/format?value=98a", nil)
	d = data(t, body)
	assert.Equal(t, false, d["valid"])
	assert.NotEmpty(t, d["error"])
	assert.NotContains(t, d, "wire")
}

func TestRouter_AnonymousSession(t *testing.T) {
	h := newHarness(t, newStubBackend())

	code, _ := h.do(http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, code)
	h.settle()

	_, body := h.do(http.MethodGet, "/session", nil)
	d := data(t, body)
	assert.Equal(t, "ANONYMOUS", d["state"])
	assert.Equal(t, false, d["loading"])
	assert.Nil(t, d["user"])
	assert.Empty(t, d["nav"])

	code, body = h.do(http.MethodGet, "/pages/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["error"])
}

func TestRouter_PagesWaitForInitialization(t *testing.T) {
	backend := newStubBackend()
	backend.meGate = make(chan struct{})
	h := newHarness(t, backend)

	_, body := h.do(http.MethodGet, "/session", nil)
	assert.Equal(t, "INITIALIZING", data(t, body)["state"])

	code, _ := h.do(http.MethodGet, "/pages/dashboard", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	close(backend.meGate)
	h.settle()

	code, _ = h.do(http.MethodGet, "/pages/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_LoginAndRoleGate(t *testing.T) {
	h := newHarness(t, newStubBackend())
	h.login("owner@retail.test")

	_, body := h.do(http.MethodGet, "/session", nil)
	d := data(t, body)
	assert.Equal(t, "AUTHENTICATED", d["state"])
	user := d["user"].(map[string]any)
	assert.Equal(t, "STORE_ADMIN", user["role"])
	assert.Len(t, d["nav"], 4)

	code, _ := h.do(http.MethodGet, "/pages/shops", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = h.do(http.MethodPost, "/pages/branches", gin.H{"name": "Lake Road", "location": "Pune"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "s1", data(t, body)["shopId"], "store admin defaults to the first shop")
}

func TestRouter_BadLoginKeepsAnonymous(t *testing.T) {
	h := newHarness(t, newStubBackend())
	h.do(http.MethodGet, "/session", nil)
	h.settle()

	code, body := h.do(http.MethodPost, "/session/login", gin.H{"email": "root@retail.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", body["error"], "a 401 that survives the refresh is reported as Unauthorized")

	code, _ = h.do(http.MethodPost, "/session/login", gin.H{"email": "root@retail.test"})
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = h.do(http.MethodGet, "/session", nil)
	assert.Equal(t, "ANONYMOUS", data(t, body)["state"])
}

func TestRouter_SendOTPValidatesPhone(t *testing.T) {
	h := newHarness(t, newStubBackend())

	code, body := h.do(http.MethodPost, "/session/otp/send", gin.H{"phone": "12345"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])

	code, body = h.do(http.MethodPost, "/session/otp/send", gin.H{"phone": "+91 98765 43210"})
	require.Equal(t, http.StatusOK, code, body)
	d := data(t, body)
	assert.Equal(t, true, d["ok"])
	assert.Equal(t, "123456", d["otp"])
}

func TestRouter_BackendErrors(t *testing.T) {
	h := newHarness(t, newStubBackend())
	h.login("root@retail.test")

	code, body := h.do(http.MethodGet, "/pages/shops", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, body = h.do(http.MethodPost, "/pages/shops", gin.H{"name": "Second"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "db down", body["error"])

	code, body = h.do(http.MethodPost, "/pages/offers", gin.H{"branchId": "b1", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "title too short, branch unknown", body["error"])

	code, body = h.do(http.MethodGet, "/pages/offers", nil)
	assert.Equal(t, http.StatusOK, code, "list failures render an empty page")
	assert.Equal(t, []any{}, body["data"])
}

func TestRouter_StaffCustomersStayInBranch(t *testing.T) {
	h := newHarness(t, newStubBackend())
	h.login("staff@retail.test")

	code, body := h.do(http.MethodPost, "/pages/customers", gin.H{
		"branchId": "other",
		"name":     "Asha",
		"phone":    "98765 43210",
	})
	require.Equal(t, http.StatusCreated, code, body)
	d := data(t, body)
	assert.Equal(t, "b7", d["branchId"])
	assert.Equal(t, "+919876543210", d["phone"])

	code, body = h.do(http.MethodGet, "/pages/customers?branchId=other", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, _ = h.do(http.MethodGet, "/pages/offers", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRouter_Logout(t *testing.T) {
	h := newHarness(t, newStubBackend())
	h.login("root@retail.test")

	code, body := h.do(http.MethodPost, "/session/logout", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "ANONYMOUS", data(t, body)["state"])

	code, _ = h.do(http.MethodGet, "/pages/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_Dashboard(t *testing.T) {
	h := newHarness(t, newStubBackend())
	h.login("staff@retail.test")

	code, body := h.do(http.MethodGet, "/pages/dashboard", nil)
	require.Equal(t, http.StatusOK, code)
	d := data(t, body)
	cards := d["cards"].([]any)
	require.Len(t, cards, 2)
	assert.Equal(t, "/customers", cards[1].(map[string]any)["path"])
}
