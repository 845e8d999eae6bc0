package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/app"
	"github.com/you/retaildash/internal/config"
	"github.com/you/retaildash/internal/infrastructure/visitors"
)

// stack is one backend plus a dashboard in front of it. Both share a
// miniredis: the backend keeps OTP codes and refresh sessions there, the
// dashboard keeps visitor cookies.
type stack struct {
	t        *testing.T
	mini     *miniredis.Miniredis
	backend  *Backend
	fixtures *Fixtures

	container *app.Container
	dashboard *httptest.Server
	logs      *observer.ObservedLogs
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backend, err := NewBackend(rdb)
	require.NoError(t, err)
	t.Cleanup(backend.Close)

	fixtures, err := backend.Seed(context.Background())
	require.NoError(t, err)

	s := &stack{t: t, mini: mini, backend: backend, fixtures: fixtures}
	t.Cleanup(s.stopDashboard)
	s.startDashboard()
	return s
}

func (s *stack) stopDashboard() {
	if s.dashboard == nil {
		return
	}
	s.dashboard.Close()
	s.container.Close()
	s.dashboard, s.container = nil, nil
}

// startDashboard brings up a fresh dashboard process, replacing any
// running one
func (s *stack) startDashboard() {
	s.t.Helper()
	s.stopDashboard()

	cfg, err := config.LoadFrom(filepath.Join(s.t.TempDir(), "absent.yml"))
	require.NoError(s.t, err)
	cfg.APIBaseURL = s.backend.URL()
	cfg.APITimeout = 5 * time.Second
	cfg.RedisAddr = s.mini.Addr()
	cfg.SessionStartTimeout = 5 * time.Second
	require.NoError(s.t, cfg.Validate())

	core, logs := observer.New(zapcore.InfoLevel)
	container, err := app.NewContainer(context.Background(), cfg, zap.New(core))
	require.NoError(s.t, err)

	s.container = container
	s.logs = logs
	s.dashboard = httptest.NewServer(container.Router)
}

// events returns the session event types logged by the current dashboard
func (s *stack) events() []string {
	var types []string
	for _, e := range s.logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "session" }).All() {
		types = append(types, e.ContextMap()["event_type"].(string))
	}
	return types
}

// browser is one visitor of the dashboard with its own cookie jar
type browser struct {
	t      *testing.T
	stack  *stack
	client *http.Client
}

func (s *stack) newBrowser() *browser {
	s.t.Helper()
	jar, err := apiclient.NewJar()
	require.NoError(s.t, err)
	return &browser{t: s.t, stack: s, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

type response struct {
	Status int             `json:"-"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func (r response) decode(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, out), string(r.Data))
}

func (b *browser) do(method, path string, body any) response {
	b.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(b.t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, b.stack.dashboard.URL+path, &payload)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out
}

func (b *browser) get(path string) response { return b.do(http.MethodGet, path, nil) }

func (b *browser) post(path string, body any) response { return b.do(http.MethodPost, path, body) }

type sessionView struct {
	State   string          `json:"state"`
	Loading bool            `json:"loading"`
	User    json.RawMessage `json:"user"`
	Nav     []struct {
		Label string `json:"label"`
		Path  string `json:"path"`
	} `json:"nav"`
}

func (v sessionView) role(t *testing.T) string {
	t.Helper()
	var u struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(v.User, &u))
	return u.Role
}

// session waits for the initial identity fetch and returns the settled view
func (b *browser) session() sessionView {
	b.t.Helper()
	var view sessionView
	require.Eventually(b.t, func() bool {
		resp := b.get("/session")
		if resp.Status != http.StatusOK {
			return false
		}
		view = sessionView{}
		resp.decode(b.t, &view)
		return !view.Loading
	}, 5*time.Second, 20*time.Millisecond)
	return view
}

func (b *browser) login(email string) sessionView {
	b.t.Helper()
	b.session()
	resp := b.post("/session/login", map[string]string{"email": email, "password": DefaultPassword})
	require.Equal(b.t, http.StatusOK, resp.Status, resp.Error)
	var view sessionView
	resp.decode(b.t, &view)
	return view
}

func (b *browser) visitorID() string {
	b.t.Helper()
	for _, c := range b.client.Jar.Cookies(mustParse(b.t, b.stack.dashboard.URL)) {
		if c.Name == visitors.CookieName {
			return c.Value
		}
	}
	b.t.Fatal("browser has no visitor cookie")
	return ""
}
