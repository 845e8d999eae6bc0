package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/phone"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "phone validation",
			err:        &phone.ValidationError{Value: "12", Message: phone.MsgInvalid},
			wantStatus: http.StatusBadRequest,
			wantMsg:    phone.MsgInvalid,
		},
		{
			name:       "missing field",
			err:        fmt.Errorf("%w: name is required", domain.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid input: name is required",
		},
		{
			name:       "backend rejects input",
			err:        &apiclient.APIError{Status: 409, Message: "Shop exists"},
			wantStatus: http.StatusConflict,
			wantMsg:    "Shop exists",
		},
		{
			name:       "backend fails",
			err:        &apiclient.APIError{Status: 503, Message: "maintenance"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "maintenance",
		},
		{
			name:       "terminal 401 after retry",
			err:        fmt.Errorf("wrapped: %w", &apiclient.APIError{Status: 401, Message: "Unauthorized"}),
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthorized",
		},
		{
			name:       "refresh failed",
			err:        domain.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthorized",
		},
		{
			name:       "forbidden",
			err:        domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "initializing",
			err:        domain.ErrSessionInitializing,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "transport",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Backend unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}
