// Package session holds the identity of one dashboard visitor: who is signed
// in, and whether that is still being resolved.
package session

import (
	"context"
	"sync"

	"github.com/you/retaildash/domain"
)

// Backend paths used by the session
const (
	PathMe        = "/auth/me"
	PathSendOTP   = "/auth/send-otp"
	PathVerifyOTP = "/auth/verify-otp"
	PathLogin     = "/auth/login"
	PathRegister  = "/auth/register"
	PathLogout    = "/auth/logout"
)

// Session starts INITIALIZING and settles into AUTHENTICATED or ANONYMOUS
// after the first identity fetch. Writes are last-write-wins.
type Session struct {
	client domain.APIClient
	events domain.SessionEventLogger

	mu      sync.RWMutex
	user    domain.User
	loading bool

	startOnce sync.Once
}

// Option configures a Session
type Option func(*Session)

// WithEventLogger records lifecycle events through l
func WithEventLogger(l domain.SessionEventLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.events = l
		}
	}
}

// New returns a Session that talks to the backend through client
func New(client domain.APIClient, opts ...Option) *Session {
	s := &Session{
		client:  client,
		events:  domain.NopEventLogger{},
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the identity. Only the first call does any work.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.RefreshUser(ctx)
	})
}

// RefreshUser asks the backend who is signed in. Any failure means nobody is.
func (s *Session) RefreshUser(ctx context.Context) {
	var user domain.Identity
	err := s.client.Get(ctx, PathMe, &user)

	s.mu.Lock()
	if err != nil {
		s.user = nil
	} else {
		s.user = user.User
	}
	s.loading = false
	s.mu.Unlock()

	if err != nil || user.User == nil {
		event := domain.NewSessionEvent(domain.SessionAnonymousEvent)
		if err != nil {
			event.WithMetadata("reason", err.Error())
		}
		s.events.LogEvent(ctx, event)
		return
	}
	s.events.LogEvent(ctx, domain.NewSessionEvent(domain.SessionResolvedEvent).WithUser(user.User))
}

// SendOTP asks the backend to text a code to phone. Development backends
// echo the code back.
func (s *Session) SendOTP(ctx context.Context, phone string) (domain.OTPResult, error) {
	var res domain.OTPResult
	err := s.client.Post(ctx, PathSendOTP, map[string]string{"phone": phone}, &res)

	event := domain.NewSessionEvent(domain.OTPRequestEvent).WithPhone(phone)
	if err != nil {
		event.WithError(err)
	}
	s.events.LogEvent(ctx, event)

	return res, err
}

// VerifyOTP signs in with a texted code. On failure the current user is kept.
func (s *Session) VerifyOTP(ctx context.Context, phone, code string) error {
	var res domain.AuthResponse
	err := s.client.Post(ctx, PathVerifyOTP, domain.OTPVerification{Phone: phone, Code: code}, &res)
	if err != nil {
		s.events.LogEvent(ctx, domain.NewSessionEvent(domain.OTPFailureEvent).WithPhone(phone).WithError(err))
		return err
	}

	s.setUser(res.User.User)
	s.events.LogEvent(ctx, domain.NewSessionEvent(domain.OTPVerifyEvent).WithPhone(phone).WithUser(res.User.User))
	return nil
}

// Login signs in with email and password. On failure the current user is kept.
func (s *Session) Login(ctx context.Context, email, password string) error {
	var res domain.AuthResponse
	err := s.client.Post(ctx, PathLogin, domain.Credentials{Email: email, Password: password}, &res)
	if err != nil {
		s.events.LogEvent(ctx, domain.NewSessionEvent(domain.LoginFailureEvent).WithEmail(email).WithError(err))
		return err
	}

	s.setUser(res.User.User)
	s.events.LogEvent(ctx, domain.NewSessionEvent(domain.LoginEvent).WithEmail(email).WithUser(res.User.User))
	return nil
}

// Register creates an account and then logs into it. The account is not
// removed if the login fails.
func (s *Session) Register(ctx context.Context, in domain.RegisterInput) error {
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if err := s.client.Post(ctx, PathRegister, in, nil); err != nil {
		return err
	}
	s.events.LogEvent(ctx, domain.NewSessionEvent(domain.RegisterEvent).
		WithEmail(in.Email).
		WithMetadata("role", string(in.Role)))

	return s.Login(ctx, in.Email, in.Password)
}

// Logout ends the backend session. The local user is cleared even when the
// backend call fails; that failure is still returned.
func (s *Session) Logout(ctx context.Context) error {
	previous := s.User()
	defer s.setUser(nil)

	err := s.client.Post(ctx, PathLogout, struct{}{}, nil)

	event := domain.NewSessionEvent(domain.LogoutEvent).WithUser(previous)
	if err != nil {
		event.WithError(err)
	}
	s.events.LogEvent(ctx, event)
	return err
}

func (s *Session) setUser(u domain.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Session) User() domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State derives the lifecycle phase from loading and user
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.loading:
		return domain.StateInitializing
	case s.user != nil:
		return domain.StateAuthenticated
	default:
		return domain.StateAnonymous
	}
}

var _ domain.SessionService = (*Session)(nil)
