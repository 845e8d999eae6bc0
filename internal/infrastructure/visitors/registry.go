// Package visitors keeps one Session per browser. A visitor is identified by
// a cookie issued by the dashboard; its backend cookies live in a CookieStore.
package visitors

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/services"
	"github.com/you/retaildash/internal/session"
)

// CookieName is the dashboard cookie carrying the visitor id
const CookieName = "rd_visitor"

// Visitor is one browser talking to the dashboard
type Visitor struct {
	ID      string
	Client  *apiclient.Client
	Session *session.Session
	Catalog *services.Catalog

	lastSeen atomic.Int64
	started  chan struct{}
}

// Started is closed once the initial identity fetch has finished
func (v *Visitor) Started() <-chan struct{} { return v.started }

func (v *Visitor) touch(now time.Time) { v.lastSeen.Store(now.UnixNano()) }

// ClientFactory builds a backend client around a visitor's cookie jar
type ClientFactory func(jar http.CookieJar) (*apiclient.Client, error)

// Gauge receives the number of live visitors
type Gauge interface {
	SetVisitors(n int)
}

type nopGauge struct{}

func (nopGauge) SetVisitors(int) {}

// Registry maps visitor ids to live visitors
type Registry struct {
	mu       sync.Mutex
	visitors map[string]*Visitor

	store        domain.CookieStore
	newClient    ClientFactory
	events       domain.SessionEventLogger
	gauge        Gauge
	log          *zap.Logger
	idleTTL      time.Duration
	startTimeout time.Duration
	now          func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

func WithEventLogger(l domain.SessionEventLogger) Option {
	return func(r *Registry) { r.events = l }
}

func WithGauge(g Gauge) Option {
	return func(r *Registry) { r.gauge = g }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithIdleTTL evicts visitors not seen for ttl
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.idleTTL = ttl }
}

// WithStartTimeout bounds the initial identity fetch
func WithStartTimeout(d time.Duration) Option {
	return func(r *Registry) { r.startTimeout = d }
}

func NewRegistry(store domain.CookieStore, newClient ClientFactory, opts ...Option) *Registry {
	r := &Registry{
		visitors:     make(map[string]*Visitor),
		store:        store,
		newClient:    newClient,
		events:       domain.NopEventLogger{},
		gauge:        nopGauge{},
		log:          zap.NewNop(),
		idleTTL:      30 * time.Minute,
		startTimeout: 10 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the visitor for id. Empty, malformed or unknown ids get a
// fresh visitor whose Session starts resolving in the background.
func (r *Registry) Resolve(ctx context.Context, id string) (*Visitor, error) {
	if v := r.lookup(id); v != nil {
		return v, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	v, err := r.build(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.visitors[id]; ok {
		r.mu.Unlock()
		existing.touch(r.now())
		return existing, nil
	}
	r.visitors[id] = v
	n := len(r.visitors)
	r.mu.Unlock()

	r.gauge.SetVisitors(n)
	go r.start(v)
	return v, nil
}

func (r *Registry) lookup(id string) *Visitor {
	if id == "" {
		return nil
	}
	r.mu.Lock()
	v, ok := r.visitors[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	v.touch(r.now())
	return v
}

func (r *Registry) build(ctx context.Context, id string) (*Visitor, error) {
	jar, err := apiclient.NewJar()
	if err != nil {
		return nil, err
	}
	client, err := r.newClient(jar)
	if err != nil {
		return nil, err
	}

	stored, err := r.store.Load(ctx, id)
	switch {
	case errors.Is(err, domain.ErrVisitorNotFound):
	case err != nil:
		r.log.Warn("visitor cookies unavailable", zap.String("visitor_id", id), zap.Error(err))
	default:
		jar.SetCookies(client.BaseURL(), toHTTP(stored))
	}

	v := &Visitor{
		ID:      id,
		Client:  client,
		Session: session.New(client, session.WithEventLogger(r.events)),
		Catalog: services.NewCatalog(client),
		started: make(chan struct{}),
	}
	v.touch(r.now())
	return v, nil
}

func (r *Registry) start(v *Visitor) {
	defer close(v.started)

	ctx, cancel := context.WithTimeout(context.Background(), r.startTimeout)
	defer cancel()

	v.Session.Start(ctx)
	if err := r.Persist(ctx, v); err != nil {
		r.log.Warn("persist visitor cookies", zap.String("visitor_id", v.ID), zap.Error(err))
	}
}

// Persist mirrors the visitor's backend cookies into the store. A visitor
// with no cookies left is removed from the store.
func (r *Registry) Persist(ctx context.Context, v *Visitor) error {
	cookies := v.Client.Jar().Cookies(v.Client.BaseURL())
	if len(cookies) == 0 {
		return r.store.Delete(ctx, v.ID)
	}
	return r.store.Save(ctx, v.ID, fromHTTP(cookies))
}

// Sweep evicts visitors idle for longer than the idle TTL and returns how
// many were removed. Stored cookies are kept until they expire on their own.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL).UnixNano()

	r.mu.Lock()
	removed := 0
	for id, v := range r.visitors {
		if v.lastSeen.Load() < cutoff {
			delete(r.visitors, id)
			removed++
		}
	}
	n := len(r.visitors)
	r.mu.Unlock()

	if removed > 0 {
		r.gauge.SetVisitors(n)
		r.log.Debug("evicted idle visitors", zap.Int("evicted", removed), zap.Int("active", n))
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len returns the number of live visitors
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

func toHTTP(stored []domain.StoredCookie) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		path := c.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: path, Expires: c.Expires})
	}
	return cookies
}

func fromHTTP(cookies []*http.Cookie) []domain.StoredCookie {
	stored := make([]domain.StoredCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, domain.StoredCookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return stored
}
