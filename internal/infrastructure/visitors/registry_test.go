package visitors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/mocks"
)

// fakeBackend answers /api/auth/me with a store admin when the access cookie is "valid"
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("access_token")
		if err != nil || c.Value != "valid" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","phone":"+919876543210","role":"STORE_ADMIN","shopIds":["s1"]}`))
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func factoryFor(srv *httptest.Server) ClientFactory {
	return func(jar http.CookieJar) (*apiclient.Client, error) {
		return apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api", Jar: jar})
	}
}

type recordingGauge struct {
	mu   sync.Mutex
	last int
}

func (g *recordingGauge) SetVisitors(n int) {
	g.mu.Lock()
	g.last = n
	g.mu.Unlock()
}

func (g *recordingGauge) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func waitStarted(t *testing.T, v *Visitor) {
	t.Helper()
	select {
	case <-v.Started():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish starting")
	}
}

func TestRegistry_NewVisitorIsAnonymous(t *testing.T) {
	srv := fakeBackend(t)
	gauge := &recordingGauge{}
	reg := NewRegistry(NewMemoryCookieStore(time.Hour), factoryFor(srv), WithGauge(gauge))

	v, err := reg.Resolve(context.Background(), "")
	require.NoError(t, err)
	_, err = uuid.Parse(v.ID)
	assert.NoError(t, err, "a fresh visitor gets a uuid")

	waitStarted(t, v)
	assert.Equal(t, domain.StateAnonymous, v.Session.State())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, gauge.value())
}

func TestRegistry_RestoresStoredCookies(t *testing.T) {
	srv := fakeBackend(t)
	store := NewMemoryCookieStore(time.Hour)
	id := uuid.NewString()
	require.NoError(t, store.Save(context.Background(), id, []domain.StoredCookie{{Name: "access_token", Value: "valid"}}))

	reg := NewRegistry(store, factoryFor(srv))
	v, err := reg.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, v.ID)

	waitStarted(t, v)
	require.Equal(t, domain.StateAuthenticated, v.Session.State())
	assert.Equal(t, domain.RoleStoreAdmin, v.Session.User().Role())

	again, err := reg.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, v, again)
}

func TestRegistry_MalformedIDIsReplaced(t *testing.T) {
	srv := fakeBackend(t)
	reg := NewRegistry(NewMemoryCookieStore(time.Hour), factoryFor(srv))

	v, err := reg.Resolve(context.Background(), "../../etc/passwd")
	require.NoError(t, err)
	assert.NotEqual(t, "../../etc/passwd", v.ID)
	waitStarted(t, v)
}

func TestRegistry_PersistDropsEmptyJars(t *testing.T) {
	srv := fakeBackend(t)
	store := NewMemoryCookieStore(time.Hour)
	id := uuid.NewString()
	require.NoError(t, store.Save(context.Background(), id, []domain.StoredCookie{{Name: "access_token", Value: "valid"}}))

	reg := NewRegistry(store, factoryFor(srv))
	v, err := reg.Resolve(context.Background(), id)
	require.NoError(t, err)
	waitStarted(t, v)

	stored, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "valid", stored[0].Value)

	expired := &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1}
	v.Client.Jar().SetCookies(v.Client.BaseURL(), []*http.Cookie{expired})
	require.NoError(t, reg.Persist(context.Background(), v))

	_, err = store.Load(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrVisitorNotFound)
}

func TestRegistry_Sweep(t *testing.T) {
	srv := fakeBackend(t)
	gauge := &recordingGauge{}
	reg := NewRegistry(NewMemoryCookieStore(time.Hour), factoryFor(srv), WithIdleTTL(time.Minute), WithGauge(gauge))

	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	reg.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		current = current.Add(d)
		mu.Unlock()
	}

	stale, err := reg.Resolve(context.Background(), "")
	require.NoError(t, err)
	waitStarted(t, stale)

	advance(45 * time.Second)
	fresh, err := reg.Resolve(context.Background(), "")
	require.NoError(t, err)
	waitStarted(t, fresh)

	advance(30 * time.Second)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, gauge.value())

	again, err := reg.Resolve(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Same(t, fresh, again)
}

func TestRegistry_StoreOutageStillServes(t *testing.T) {
	srv := fakeBackend(t)
	store := mocks.NewMockCookieStore()
	store.LoadFunc = func(context.Context, string) ([]domain.StoredCookie, error) {
		return nil, errors.New("connection refused")
	}
	var deleted []string
	store.DeleteFunc = func(_ context.Context, id string) error {
		deleted = append(deleted, id)
		return nil
	}
	reg := NewRegistry(store, factoryFor(srv))

	v, err := reg.Resolve(context.Background(), uuid.NewString())
	require.NoError(t, err)
	waitStarted(t, v)

	assert.Equal(t, domain.StateAnonymous, v.Session.State())
	assert.Equal(t, []string{v.ID}, deleted, "an empty jar is cleared from the store")
}
