package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/phone"
)

// respondError maps an error to a status and writes {"error": message}
func respondError(c *gin.Context, err error) {
	var apiErr *apiclient.APIError
	var phoneErr *phone.ValidationError

	switch {
	case errors.As(err, &phoneErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": phoneErr.Message})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrBranchRequired), errors.Is(err, domain.ErrUnknownRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": apiErr.Message})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionInitializing):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend unavailable"})
	}
}
