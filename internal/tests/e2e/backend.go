package e2e

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	otpPrefix     = "otp:"
	refreshPrefix = "refresh:"
	otpTTL        = 5 * time.Minute
)

// Backend is a small retail REST API with cookie sessions, enough to drive
// the dashboard end to end
type Backend struct {
	Server *httptest.Server

	store     *retailStore
	redis     *redis.Client
	tokens    *tokenIssuer
	refreshes atomic.Int64
	requests  atomic.Int64
}

func NewBackend(rdb *redis.Client) (*Backend, error) {
	store, err := openRetailStore()
	if err != nil {
		return nil, err
	}
	b := &Backend{store: store, redis: rdb, tokens: newTokenIssuer("e2e-secret")}
	b.Server = httptest.NewServer(b.router())
	return b, nil
}

func (b *Backend) Close() {
	b.Server.Close()
	b.store.close()
}

// URL is the API base the dashboard should call
func (b *Backend) URL() string { return b.Server.URL + "/api" }

// ExpireAccessTokens invalidates every access cookie handed out so far
func (b *Backend) ExpireAccessTokens() { b.tokens.expireAccess() }

// RevokeRefreshTokens ends every refresh session
func (b *Backend) RevokeRefreshTokens(ctx context.Context) error {
	keys, err := b.redis.Keys(ctx, refreshPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return err
	}
	return b.redis.Del(ctx, keys...).Err()
}

// Refreshes counts successful refresh calls
func (b *Backend) Refreshes() int64 { return b.refreshes.Load() }

func (b *Backend) Requests() int64 { return b.requests.Load() }

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), func(c *gin.Context) {
		b.requests.Add(1)
		c.Next()
	})

	api := r.Group("/api")
	api.POST("/auth/login", b.login)
	api.POST("/auth/register", b.register)
	api.POST("/auth/send-otp", b.sendOTP)
	api.POST("/auth/verify-otp", b.verifyOTP)
	api.POST("/auth/refresh", b.refresh)
	api.POST("/auth/logout", b.logout)

	authed := api.Group("").Use(b.authenticate)
	authed.GET("/auth/me", b.me)

	superAdmin := api.Group("").Use(b.authenticate, requireRole("SUPERADMIN"))
	superAdmin.GET("/shops", b.listShops)
	superAdmin.POST("/shops", b.createShop)
	superAdmin.POST("/shops/:id/owners", b.addShopOwner)
	superAdmin.GET("/auth/store-owners", b.listStoreOwners)
	superAdmin.POST("/auth/store-owners", b.createStoreOwner)

	admins := api.Group("").Use(b.authenticate, requireRole("SUPERADMIN", "STORE_ADMIN"))
	admins.GET("/branches", b.listBranches)
	admins.POST("/branches", b.createBranch)
	admins.GET("/auth/branch-staff", b.listBranchStaff)
	admins.POST("/auth/branch-staff", b.createBranchStaff)
	admins.GET("/offers", b.listOffers)
	admins.POST("/offers", b.createOffer)

	staff := api.Group("").Use(b.authenticate, requireRole("SUPERADMIN", "STORE_ADMIN", "BRANCH_STAFF"))
	staff.GET("/customers", b.listCustomers)
	staff.POST("/customers", b.createCustomer)

	return r
}

func fail(c *gin.Context, status int, msg any) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg, "statusCode": status})
}

func (b *Backend) authenticate(c *gin.Context) {
	token, err := c.Cookie(accessCookie)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	claims, err := b.tokens.parse(token, kindAccess)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := b.store.findUser(c.Request.Context(), "id = ?", claims.UserID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.Set("user", user)
	c.Next()
}

func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, "Forbidden resource")
	}
}

func currentUser(c *gin.Context) *DBUser {
	return c.MustGet("user").(*DBUser)
}

func (b *Backend) startSession(c *gin.Context, u *DBUser) bool {
	access, _, err := b.tokens.issue(u, kindAccess)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return false
	}
	refresh, jti, err := b.tokens.issue(u, kindRefresh)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return false
	}
	if err := b.redis.Set(c.Request.Context(), refreshPrefix+jti, u.ID, b.tokens.refreshTTL).Err(); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, access, int(b.tokens.accessTTL.Seconds()), "/", "", false, true)
	c.SetCookie(refreshCookie, refresh, int(b.tokens.refreshTTL.Seconds()), "/", "", false, true)
	return true
}

func (b *Backend) userView(ctx context.Context, u *DBUser) (gin.H, error) {
	view := gin.H{"id": idString(u.ID), "phone": u.Phone, "role": u.Role, "createdAt": u.CreatedAt}
	if u.Email != nil {
		view["email"] = *u.Email
	}
	switch u.Role {
	case "STORE_ADMIN":
		ids, err := b.store.shopIDs(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		shopIDs := make([]string, 0, len(ids))
		for _, id := range ids {
			shopIDs = append(shopIDs, idString(id))
		}
		view["shopIds"] = shopIDs
	case "BRANCH_STAFF":
		if u.BranchID != nil {
			view["branchId"] = idString(*u.BranchID)
			var branch DBBranch
			if err := b.store.db.WithContext(ctx).First(&branch, *u.BranchID).Error; err == nil {
				view["branch"] = gin.H{"id": idString(branch.ID), "name": branch.Name, "location": branch.Location}
			}
		}
	}
	return view, nil
}

func (b *Backend) respondUser(c *gin.Context, status int, u *DBUser) {
	view, err := b.userView(c.Request.Context(), u)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(status, gin.H{"user": view})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (b *Backend) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := b.store.findUser(c.Request.Context(), "email = ?", req.Email)
	if err != nil || !verifyPassword(u.PasswordHash, req.Password) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if b.startSession(c, u) {
		b.respondUser(c, http.StatusOK, u)
	}
}

func (b *Backend) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	var problems []string
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "email must be an email")
	}
	if len(req.Password) < 6 {
		problems = append(problems, "password must be longer than or equal to 6 characters")
	}
	if len(problems) > 0 {
		fail(c, http.StatusBadRequest, problems)
		return
	}
	if _, err := b.store.findUser(c.Request.Context(), "email = ?", req.Email); err == nil {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}

	if req.Role == "" {
		req.Role = "USER"
	}
	email := req.Email
	u := &DBUser{Email: &email, Role: req.Role}
	if err := b.store.createUser(c.Request.Context(), u, req.Password); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	b.respondUser(c, http.StatusCreated, u)
}

func (b *Backend) sendOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.Phone, "+91") {
		fail(c, http.StatusBadRequest, "phone must be a valid phone number")
		return
	}
	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	if err := b.redis.Set(c.Request.Context(), otpPrefix+req.Phone, code, otpTTL).Err(); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "otp": code})
}

func (b *Backend) verifyOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()

	want, err := b.redis.Get(ctx, otpPrefix+req.Phone).Result()
	if errors.Is(err, redis.Nil) || (err == nil && want != req.Code) {
		fail(c, http.StatusUnauthorized, "Invalid or expired OTP")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	b.redis.Del(ctx, otpPrefix+req.Phone)

	u, err := b.store.findUser(ctx, "phone = ?", req.Phone)
	if errors.Is(err, errNotFound) {
		u = &DBUser{Phone: req.Phone, Role: "USER"}
		err = b.store.createUser(ctx, u, "")
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if b.startSession(c, u) {
		b.respondUser(c, http.StatusOK, u)
	}
}

func (b *Backend) refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	claims, err := b.tokens.parse(token, kindRefresh)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if n, err := b.redis.Exists(c.Request.Context(), refreshPrefix+claims.ID).Result(); err != nil || n == 0 {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, err := b.store.findUser(c.Request.Context(), "id = ?", claims.UserID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	access, _, err := b.tokens.issue(u, kindAccess)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	b.refreshes.Add(1)
	c.SetCookie(accessCookie, access, int(b.tokens.accessTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (b *Backend) logout(c *gin.Context) {
	if token, err := c.Cookie(refreshCookie); err == nil {
		if claims, err := b.tokens.parse(token, kindRefresh); err == nil {
			b.redis.Del(c.Request.Context(), refreshPrefix+claims.ID)
		}
	}
	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (b *Backend) me(c *gin.Context) {
	view, err := b.userView(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, view)
}
