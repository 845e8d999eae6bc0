package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/retaildash/domain"
)

// Context keys set by PageGateMW
const (
	UserKey     = "user"
	UserRoleKey = "user_role"
)

// PageGateMW lets a request through only when the visitor's role may open
// the matched page
type PageGateMW struct {
	gate domain.PageGate
}

func NewPageGateMW(gate domain.PageGate) *PageGateMW {
	return &PageGateMW{gate: gate}
}

// Enforce checks the parameterized route path against the gate
func (mw *PageGateMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		v := GetVisitor(c)
		if v == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Visitor not resolved"})
			c.Abort()
			return
		}

		if v.Session.Loading() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrSessionInitializing.Error()})
			c.Abort()
			return
		}

		user := v.Session.User()
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrNotAuthenticated.Error()})
			c.Abort()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		allowed, err := mw.gate.Allowed(user.Role(), path, c.Request.Method)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Set(UserRoleKey, string(user.Role()))
		c.Next()
	})
}

// GetUser returns the user stored by Enforce
func GetUser(c *gin.Context) domain.User {
	if u, exists := c.Get(UserKey); exists {
		if user, ok := u.(domain.User); ok {
			return user
		}
	}
	return nil
}
