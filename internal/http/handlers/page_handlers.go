package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/retaildash/domain"
	"github.com/you/retaildash/internal/http/middleware"
)

// PageHandlers back the role-gated dashboard pages. Each page lists one
// resource and creates new ones through the visitor's Catalog.
type PageHandlers struct {
	gate domain.PageGate
	log  *zap.Logger
}

func NewPageHandlers(gate domain.PageGate, log *zap.Logger) *PageHandlers {
	return &PageHandlers{gate: gate, log: log}
}

// CreateShopRequest represents a new shop
type CreateShopRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateStoreOwnerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	ShopID   string `json:"shopId"`
}

type AddShopOwnerRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// CreateBranchRequest represents a new branch. Store admins may omit the
// shop; their first shop is used.
type CreateBranchRequest struct {
	ShopID   string `json:"shopId"`
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
}

type CreateBranchStaffRequest struct {
	BranchID string `json:"branchId" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateOfferRequest struct {
	BranchID    string `json:"branchId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateCustomerRequest represents a new customer. Branch staff never need
// to send a branch.
type CreateCustomerRequest struct {
	BranchID string `json:"branchId"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email"`
}

// listed writes items, or an empty list when the backend failed. The pages
// render an empty table rather than an error.
func listed[T any](h *PageHandlers, c *gin.Context, page string, items []T, err error) {
	if err != nil {
		h.log.Warn("page list failed",
			zap.String("page", page),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		items = []T{}
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// Dashboard greets the user with the cards of every page they may open
func (h *PageHandlers) Dashboard(c *gin.Context) {
	user := middleware.GetUser(c)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user":  domain.Identity{User: user},
		"cards": h.gate.Navigation(user.Role()),
	}})
}

func (h *PageHandlers) ListShops(c *gin.Context) {
	shops, err := middleware.GetVisitor(c).Catalog.Shops.List(c.Request.Context())
	listed(h, c, "shops", shops, err)
}

func (h *PageHandlers) CreateShop(c *gin.Context) {
	var req CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shop, err := middleware.GetVisitor(c).Catalog.Shops.Create(c.Request.Context(), domain.CreateShopInput{Name: req.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": shop})
}

func (h *PageHandlers) ListOwners(c *gin.Context) {
	owners, err := middleware.GetVisitor(c).Catalog.Owners.List(c.Request.Context())
	listed(h, c, "shop-owners", owners, err)
}

func (h *PageHandlers) CreateOwner(c *gin.Context) {
	var req CreateStoreOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := domain.CreateStoreOwnerInput{Email: req.Email, Password: req.Password, ShopID: req.ShopID}
	if err := middleware.GetVisitor(c).Catalog.Owners.Create(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"ok": true}})
}

// AddOwnerToShop attaches an existing store admin, by phone, to a shop
func (h *PageHandlers) AddOwnerToShop(c *gin.Context) {
	var req AddShopOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID := c.Param("shopId")
	if err := middleware.GetVisitor(c).Catalog.Owners.AddToShop(c.Request.Context(), shopID, req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ok": true}})
}

func (h *PageHandlers) ListBranches(c *gin.Context) {
	branches, err := middleware.GetVisitor(c).Catalog.Branches.List(c.Request.Context())
	listed(h, c, "branches", branches, err)
}

func (h *PageHandlers) CreateBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ShopID == "" {
		if admin, ok := middleware.GetUser(c).(domain.StoreAdmin); ok && len(admin.ShopIDs) > 0 {
			req.ShopID = admin.ShopIDs[0]
		}
	}

	in := domain.CreateBranchInput{ShopID: req.ShopID, Name: req.Name, Location: req.Location}
	branch, err := middleware.GetVisitor(c).Catalog.Branches.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": branch})
}

func (h *PageHandlers) ListStaff(c *gin.Context) {
	staff, err := middleware.GetVisitor(c).Catalog.Staff.List(c.Request.Context())
	listed(h, c, "branch-staff", staff, err)
}

func (h *PageHandlers) CreateStaff(c *gin.Context) {
	var req CreateBranchStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := domain.CreateBranchStaffInput{BranchID: req.BranchID, Email: req.Email, Password: req.Password}
	if err := middleware.GetVisitor(c).Catalog.Staff.Create(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"ok": true}})
}

func (h *PageHandlers) ListOffers(c *gin.Context) {
	offers, err := middleware.GetVisitor(c).Catalog.Offers.List(c.Request.Context())
	listed(h, c, "offers", offers, err)
}

func (h *PageHandlers) CreateOffer(c *gin.Context) {
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := domain.CreateOfferInput{BranchID: req.BranchID, Title: req.Title, Description: req.Description}
	offer, err := middleware.GetVisitor(c).Catalog.Offers.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": offer})
}

// ListCustomers scopes branch staff to their own branch; admins may filter
// with ?branchId=
func (h *PageHandlers) ListCustomers(c *gin.Context) {
	branchID := c.Query("branchId")
	if staff, ok := middleware.GetUser(c).(domain.BranchStaff); ok {
		branchID = staff.BranchID
	}

	customers, err := middleware.GetVisitor(c).Catalog.Customers.List(c.Request.Context(), branchID)
	listed(h, c, "customers", customers, err)
}

func (h *PageHandlers) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := domain.CreateCustomerInput{BranchID: req.BranchID, Name: req.Name, Phone: req.Phone, Email: req.Email}
	customer, err := middleware.GetVisitor(c).Catalog.Customers.Create(c.Request.Context(), middleware.GetUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": customer})
}
