package domain

import (
	"context"
	"time"
)

// SessionEventType defines the type of session lifecycle event
type SessionEventType string

const (
	// Identity resolution events
	SessionResolvedEvent  SessionEventType = "SESSION_RESOLVED"
	SessionAnonymousEvent SessionEventType = "SESSION_ANONYMOUS"

	// Phone verification events
	OTPRequestEvent SessionEventType = "SESSION_OTP_REQUESTED"
	OTPVerifyEvent  SessionEventType = "SESSION_OTP_VERIFIED"
	OTPFailureEvent SessionEventType = "SESSION_OTP_VERIFICATION_FAILED"

	// Credential events
	LoginEvent        SessionEventType = "SESSION_LOGIN"
	LoginFailureEvent SessionEventType = "SESSION_LOGIN_FAILED"
	RegisterEvent     SessionEventType = "SESSION_REGISTERED"
	LogoutEvent       SessionEventType = "SESSION_LOGOUT"
)

// SessionEvent is something that happened to a visitor's identity
type SessionEvent struct {
	EventType SessionEventType       `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	Role      Role                   `json:"role,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Phone     string                 `json:"phone,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// SessionEventLogger records session lifecycle events
type SessionEventLogger interface {
	LogEvent(ctx context.Context, event *SessionEvent)
}

// NewSessionEvent creates a successful event with common fields populated
func NewSessionEvent(eventType SessionEventType) *SessionEvent {
	return &SessionEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithUser copies the identity fields of u onto the event
func (e *SessionEvent) WithUser(u User) *SessionEvent {
	if u == nil {
		return e
	}
	p := u.Account()
	e.UserID = p.ID
	e.Role = u.Role()
	if e.Email == "" {
		e.Email = p.Email
	}
	return e
}

// WithError marks the event as failed
func (e *SessionEvent) WithError(err error) *SessionEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

func (e *SessionEvent) WithEmail(email string) *SessionEvent {
	e.Email = email
	return e
}

func (e *SessionEvent) WithPhone(phone string) *SessionEvent {
	e.Phone = phone
	return e
}

// WithMetadata adds metadata to the event
func (e *SessionEvent) WithMetadata(key string, value interface{}) *SessionEvent {
	e.Metadata[key] = value
	return e
}

// NopEventLogger discards every event
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, *SessionEvent) {}
