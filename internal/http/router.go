package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/retaildash/internal/http/handlers"
	"github.com/you/retaildash/internal/http/middleware"
)

func BuildRouter(sh *handlers.SessionHandlers, ph *handlers.PageHandlers, vmw *middleware.VisitorMW, gate *middleware.PageGateMW, metrics http.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics))
	r.GET("/phone/format", handlers.FormatPhone)

	s := r.Group("/session").Use(vmw.WithVisitor())
	s.GET("", sh.Get)
	s.POST("/otp/send", sh.SendOTP)
	s.POST("/otp/verify", sh.VerifyOTP)
	s.POST("/login", sh.Login)
	s.POST("/register", sh.Register)
	s.POST("/logout", sh.Logout)

	p := r.Group("/pages").Use(vmw.WithVisitor(), gate.Enforce())
	p.GET("/dashboard", ph.Dashboard)
	p.GET("/shops", ph.ListShops)
	p.POST("/shops", ph.CreateShop)
	p.GET("/shop-owners", ph.ListOwners)
	p.POST("/shop-owners", ph.CreateOwner)
	p.POST("/shop-owners/:shopId/owners", ph.AddOwnerToShop)
	p.GET("/branches", ph.ListBranches)
	p.POST("/branches", ph.CreateBranch)
	p.GET("/branch-staff", ph.ListStaff)
	p.POST("/branch-staff", ph.CreateStaff)
	p.GET("/offers", ph.ListOffers)
	p.POST("/offers", ph.CreateOffer)
	p.GET("/customers", ph.ListCustomers)
	p.POST("/customers", ph.CreateCustomer)

	return r
}
