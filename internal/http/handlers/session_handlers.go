package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/http/middleware"
	"github.com/you/retaildash/internal/phone"
)

// SessionHandlers expose the visitor's Session over HTTP
type SessionHandlers struct {
	gate domain.PageGate
}

// NewSessionHandlers creates new session handlers
func NewSessionHandlers(gate domain.PageGate) *SessionHandlers {
	return &SessionHandlers{gate: gate}
}

// SendOTPRequest represents an OTP request
type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// VerifyOTPRequest represents OTP verification request
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code" binding:"required"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents registration request. Role defaults to USER.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role,omitempty"`
}

func (h *SessionHandlers) view(s domain.SessionService) gin.H {
	user := s.User()
	nav := []domain.NavItem{}
	if user != nil {
		nav = h.gate.Navigation(user.Role())
	}
	return gin.H{
		"state":   s.State(),
		"loading": s.Loading(),
		"user":    domain.Identity{User: user},
		"nav":     nav,
	}
}

// Get reports who is signed in
func (h *SessionHandlers) Get(c *gin.Context) {
	v := middleware.GetVisitor(c)
	c.JSON(http.StatusOK, gin.H{"data": h.view(v.Session)})
}

// SendOTP texts a login code to a validated phone
func (h *SessionHandlers) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wire, err := phone.Normalize(req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := middleware.GetVisitor(c).Session.SendOTP(c.Request.Context(), wire)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *SessionHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wire, err := phone.Normalize(req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	s := middleware.GetVisitor(c).Session
	if err := s.VerifyOTP(c.Request.Context(), wire, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.view(s)})
}

func (h *SessionHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := middleware.GetVisitor(c).Session
	if err := s.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.view(s)})
}

// Register creates an account and signs into it
func (h *SessionHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := domain.Role(req.Role)
	if role != "" && !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	s := middleware.GetVisitor(c).Session
	in := domain.RegisterInput{Email: req.Email, Password: req.Password, Role: role}
	if err := s.Register(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": h.view(s)})
}

// Logout signs out locally even when the backend call fails
func (h *SessionHandlers) Logout(c *gin.Context) {
	s := middleware.GetVisitor(c).Session
	if err := s.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.view(s)})
}
