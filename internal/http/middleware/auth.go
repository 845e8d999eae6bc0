package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/retaildash/internal/infrastructure/visitors"
)

// VisitorKey is the gin context key holding the *visitors.Visitor
const VisitorKey = "visitor"

// VisitorMW attaches the caller's visitor (and its Session) to every request
type VisitorMW struct {
	registry  *visitors.Registry
	cookieTTL time.Duration
	secure    bool
	log       *zap.Logger
}

// NewVisitorMW creates the visitor middleware wrapper
func NewVisitorMW(registry *visitors.Registry, cookieTTL time.Duration, secure bool, log *zap.Logger) *VisitorMW {
	return &VisitorMW{
		registry:  registry,
		cookieTTL: cookieTTL,
		secure:    secure,
		log:       log,
	}
}

// WithVisitor resolves the visitor cookie, issuing a new one when needed,
// and mirrors backend cookies to the store once the handler is done
func (mw *VisitorMW) WithVisitor() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		id, _ := c.Cookie(visitors.CookieName)

		v, err := mw.registry.Resolve(c.Request.Context(), id)
		if err != nil {
			mw.log.Error("resolve visitor", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start a session"})
			c.Abort()
			return
		}

		if v.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitors.CookieName, v.ID, int(mw.cookieTTL.Seconds()), "/", "", mw.secure, true)
		}
		c.Set(VisitorKey, v)

		c.Next()

		if err := mw.registry.Persist(c.Request.Context(), v); err != nil {
			mw.log.Warn("persist visitor cookies",
				zap.String("visitor_id", v.ID),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
		}
	})
}

// GetVisitor returns the visitor attached by WithVisitor
func GetVisitor(c *gin.Context) *visitors.Visitor {
	if v, exists := c.Get(VisitorKey); exists {
		if visitor, ok := v.(*visitors.Visitor); ok {
			return visitor
		}
	}
	return nil
}
