package e2e

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

var errTokenInvalid = errors.New("token invalid")

type tokenClaims struct {
	UserID     uint   `json:"user_id"`
	Role       string `json:"role"`
	Kind       string `json:"kind"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

// tokenIssuer signs the backend's cookies. Bumping the generation expires
// every access token issued so far.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	generation atomic.Int64
}

func newTokenIssuer(secret string) *tokenIssuer {
	return &tokenIssuer{secret: []byte(secret), accessTTL: 15 * time.Minute, refreshTTL: 7 * 24 * time.Hour}
}

func generateJTI() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (i *tokenIssuer) issue(u *DBUser, kind string) (string, string, error) {
	ttl := i.accessTTL
	if kind == kindRefresh {
		ttl = i.refreshTTL
	}
	now := time.Now()
	jti := generateJTI()
	claims := tokenClaims{
		UserID:     u.ID,
		Role:       u.Role,
		Kind:       kind,
		Generation: i.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    "retail-backend",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	return signed, jti, err
}

func (i *tokenIssuer) parse(token, kind string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Kind != kind {
		return nil, errTokenInvalid
	}
	if kind == kindAccess && claims.Generation != i.generation.Load() {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func (i *tokenIssuer) expireAccess() { i.generation.Add(1) }
