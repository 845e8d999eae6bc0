package e2e

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/retaildash/domain"
)

func TestRefresh_ExpiredAccessIsRenewedOnce(t *testing.T) {
	s := newStack(t)
	b := s.newBrowser()
	b.login(s.fixtures.OwnerEmail)

	s.backend.ExpireAccessTokens()
	before := s.backend.Requests()

	resp := b.get("/pages/branches")
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)
	var branches []domain.Branch
	resp.decode(t, &branches)
	require.Len(t, branches, 1)
	assert.Equal(t, "MG Road", branches[0].Name)

	assert.Equal(t, int64(1), s.backend.Refreshes())
	assert.Equal(t, before+3, s.backend.Requests(), "original, refresh and retry")

	resp = b.get("/pages/branches")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int64(1), s.backend.Refreshes(), "the renewed cookie is reused")
}

func TestRefresh_RenewedCookieSurvivesRestart(t *testing.T) {
	s := newStack(t)
	b := s.newBrowser()
	b.login(s.fixtures.OwnerEmail)

	s.backend.ExpireAccessTokens()
	require.Equal(t, http.StatusOK, b.get("/pages/offers").Status)
	require.Equal(t, int64(1), s.backend.Refreshes())

	s.startDashboard()
	assert.Equal(t, "AUTHENTICATED", b.session().State)
	assert.Equal(t, int64(1), s.backend.Refreshes(), "the stored access cookie was the renewed one")
}

func TestRefresh_RevokedSessionFails(t *testing.T) {
	s := newStack(t)
	b := s.newBrowser()
	b.login(s.fixtures.OwnerEmail)

	s.backend.ExpireAccessTokens()
	require.NoError(t, s.backend.RevokeRefreshTokens(context.Background()))
	before := s.backend.Requests()

	resp := b.post("/pages/branches", map[string]string{"name": "Indiranagar", "location": "Bengaluru"})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "Unauthorized", resp.Error)
	assert.Equal(t, before+2, s.backend.Requests(), "no retry after a failed refresh")
	assert.Equal(t, int64(0), s.backend.Refreshes())
}

func TestRefresh_StartupRefreshesStaleCookies(t *testing.T) {
	s := newStack(t)
	b := s.newBrowser()
	b.login(s.fixtures.SuperAdminEmail)

	s.backend.ExpireAccessTokens()
	s.startDashboard()

	view := b.session()
	assert.Equal(t, "AUTHENTICATED", view.State)
	assert.Equal(t, int64(1), s.backend.Refreshes())
}
