package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/apiclient"
	"github.com/you/retaildash/internal/config"
	httpx "github.com/you/retaildash/internal/http"
	"github.com/you/retaildash/internal/http/handlers"
	"github.com/you/retaildash/internal/http/middleware"
	"github.com/you/retaildash/internal/infrastructure/auth"
	"github.com/you/retaildash/internal/infrastructure/database"
	"github.com/you/retaildash/internal/infrastructure/visitors"
	"github.com/you/retaildash/internal/logger"
	"github.com/you/retaildash/internal/metrics"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    *zap.Logger

	// Infrastructure
	Redis   *database.RedisClient
	Metrics *metrics.Collector
	Gate    *auth.CasbinService
	Store   domain.CookieStore

	Registry *visitors.Registry
	Router   *gin.Engine
}

// NewContainer creates and initializes all dependencies. Redis is only
// dialed when an address is configured.
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Metrics: metrics.New()}

	if err := c.initStore(ctx); err != nil {
		return nil, err
	}

	gate, err := auth.NewCasbinService()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Gate = gate

	c.Registry = visitors.NewRegistry(c.Store, c.newClient,
		visitors.WithEventLogger(logger.NewEventLogger(log)),
		visitors.WithGauge(c.Metrics),
		visitors.WithLogger(log.Named("visitors")),
		visitors.WithIdleTTL(cfg.SessionIdleTTL),
		visitors.WithStartTimeout(cfg.SessionStartTimeout),
	)

	c.Router = httpx.BuildRouter(
		handlers.NewSessionHandlers(gate),
		handlers.NewPageHandlers(gate, log.Named("pages")),
		middleware.NewVisitorMW(c.Registry, cfg.SessionCookieTTL, cfg.SecureCookies, log),
		middleware.NewPageGateMW(gate),
		c.Metrics.Handler(),
		log.Named("http"),
	)
	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	if !c.Config.RedisEnabled() {
		c.Store = visitors.NewMemoryCookieStore(c.Config.SessionCookieTTL)
		c.Log.Info("visitor cookies kept in memory")
		return nil
	}

	rdb, err := database.ConnectRedis(ctx, c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err != nil {
		return err
	}
	c.Redis = rdb
	c.Store = visitors.NewRedisCookieStore(rdb.Client, c.Config.SessionCookieTTL)
	c.Log.Info("visitor cookies kept in redis", zap.String("addr", c.Config.RedisAddr))
	return nil
}

// newClient builds the backend client of one visitor
func (c *Container) newClient(jar http.CookieJar) (*apiclient.Client, error) {
	return apiclient.New(apiclient.Config{
		BaseURL:  c.Config.APIBaseURL,
		Origin:   c.Config.APIOrigin,
		Timeout:  c.Config.APITimeout,
		Jar:      jar,
		Logger:   c.Log.Named("api"),
		Observer: c.Metrics,
	})
}

// Close closes all connections
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
