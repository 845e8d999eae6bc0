package e2e

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// visibleBranches returns the branch ids the caller may touch, or nil for
// a super-admin who may touch all of them
func (b *Backend) visibleBranches(c *gin.Context) ([]uint, bool) {
	u := currentUser(c)
	ctx := c.Request.Context()
	switch u.Role {
	case "SUPERADMIN":
		return nil, true
	case "STORE_ADMIN":
		shops, err := b.store.shopIDs(ctx, u.ID)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return nil, false
		}
		ids, err := b.store.branchIDs(ctx, shops)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return nil, false
		}
		return ids, true
	default:
		if u.BranchID == nil {
			return []uint{}, true
		}
		return []uint{*u.BranchID}, true
	}
}

func contains(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (b *Backend) listShops(c *gin.Context) {
	var shops []DBShop
	if err := b.store.db.WithContext(c.Request.Context()).Order("id").Find(&shops).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(shops))
	for _, s := range shops {
		var branches, owners int64
		b.store.db.Model(&DBBranch{}).Where("shop_id = ?", s.ID).Count(&branches)
		b.store.db.Model(&DBShopOwner{}).Where("shop_id = ?", s.ID).Count(&owners)
		out = append(out, gin.H{
			"id":     idString(s.ID),
			"name":   s.Name,
			"_count": gin.H{"branches": branches, "users": owners},
		})
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createShop(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, []string{"name should not be empty"})
		return
	}
	shop := DBShop{Name: req.Name}
	if err := b.store.db.WithContext(c.Request.Context()).Create(&shop).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": idString(shop.ID), "name": shop.Name})
}

func (b *Backend) addShopOwner(c *gin.Context) {
	shopID, ok := parseID(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "Shop not found")
		return
	}
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	owner, err := b.store.findUser(ctx, "phone = ? AND role = ?", req.Phone, "STORE_ADMIN")
	if err != nil {
		fail(c, http.StatusNotFound, "Store owner not found")
		return
	}
	link := DBShopOwner{ShopID: shopID, UserID: owner.ID}
	if err := b.store.db.WithContext(ctx).FirstOrCreate(&link).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (b *Backend) listStoreOwners(c *gin.Context) {
	ctx := c.Request.Context()
	var owners []DBUser
	if err := b.store.db.WithContext(ctx).Where("role = ?", "STORE_ADMIN").Order("id").Find(&owners).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(owners))
	for _, o := range owners {
		ids, _ := b.store.shopIDs(ctx, o.ID)
		var shops []DBShop
		if len(ids) > 0 {
			b.store.db.WithContext(ctx).Where("id IN ?", ids).Find(&shops)
		}
		refs := make([]gin.H, 0, len(shops))
		for _, s := range shops {
			refs = append(refs, gin.H{"id": idString(s.ID), "name": s.Name})
		}
		out = append(out, gin.H{"id": idString(o.ID), "email": o.Email, "phone": o.Phone, "shops": refs, "createdAt": o.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createStoreOwner(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		ShopID   string `json:"shopId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	email := req.Email
	owner := &DBUser{Email: &email, Phone: req.Phone, Role: "STORE_ADMIN"}
	if err := b.store.createUser(ctx, owner, req.Password); err != nil {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}
	if shopID, ok := parseID(req.ShopID); ok {
		b.store.db.WithContext(ctx).Create(&DBShopOwner{ShopID: shopID, UserID: owner.ID})
	}
	c.JSON(http.StatusCreated, gin.H{"id": idString(owner.ID)})
}

func (b *Backend) listBranches(c *gin.Context) {
	visible, ok := b.visibleBranches(c)
	if !ok {
		return
	}
	q := b.store.db.WithContext(c.Request.Context()).Order("id")
	if visible != nil {
		q = q.Where("id IN ?", visible)
	}
	var branches []DBBranch
	if err := q.Find(&branches).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(branches))
	for _, br := range branches {
		out = append(out, gin.H{"id": idString(br.ID), "name": br.Name, "location": br.Location, "shopId": idString(br.ShopID)})
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createBranch(c *gin.Context) {
	var req struct {
		ShopID   string `json:"shopId"`
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	shopID, ok := parseID(req.ShopID)
	if !ok {
		fail(c, http.StatusBadRequest, []string{"shopId must be a valid id"})
		return
	}
	u := currentUser(c)
	ctx := c.Request.Context()
	if u.Role == "STORE_ADMIN" {
		shops, _ := b.store.shopIDs(ctx, u.ID)
		if !contains(shops, shopID) {
			fail(c, http.StatusForbidden, "You do not own this shop")
			return
		}
	}
	branch := DBBranch{ShopID: shopID, Name: req.Name, Location: req.Location}
	if err := b.store.db.WithContext(ctx).Create(&branch).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": idString(branch.ID), "name": branch.Name, "location": branch.Location, "shopId": idString(branch.ShopID)})
}

func (b *Backend) listBranchStaff(c *gin.Context) {
	visible, ok := b.visibleBranches(c)
	if !ok {
		return
	}
	q := b.store.db.WithContext(c.Request.Context()).Where("role = ?", "BRANCH_STAFF").Order("id")
	if visible != nil {
		q = q.Where("branch_id IN ?", visible)
	}
	var staff []DBUser
	if err := q.Find(&staff).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(staff))
	for _, s := range staff {
		var br DBBranch
		if s.BranchID != nil {
			b.store.db.First(&br, *s.BranchID)
		}
		out = append(out, gin.H{
			"id":        idString(s.ID),
			"email":     s.Email,
			"createdAt": s.CreatedAt,
			"branch":    gin.H{"id": idString(br.ID), "name": br.Name, "location": br.Location},
		})
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createBranchStaff(c *gin.Context) {
	var req struct {
		BranchID string `json:"branchId"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	branchID, ok := parseID(req.BranchID)
	visible, allowed := b.visibleBranches(c)
	if !allowed {
		return
	}
	if !ok || (visible != nil && !contains(visible, branchID)) {
		fail(c, http.StatusForbidden, "Branch not accessible")
		return
	}
	email := req.Email
	staff := &DBUser{Email: &email, Role: "BRANCH_STAFF", BranchID: &branchID}
	if err := b.store.createUser(c.Request.Context(), staff, req.Password); err != nil {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": idString(staff.ID)})
}

func offerView(o DBOffer) gin.H {
	return gin.H{"id": idString(o.ID), "title": o.Title, "description": o.Description, "branchId": idString(o.BranchID)}
}

func (b *Backend) listOffers(c *gin.Context) {
	visible, ok := b.visibleBranches(c)
	if !ok {
		return
	}
	q := b.store.db.WithContext(c.Request.Context()).Order("id")
	if visible != nil {
		q = q.Where("branch_id IN ?", visible)
	}
	var offers []DBOffer
	if err := q.Find(&offers).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerView(o))
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createOffer(c *gin.Context) {
	var req struct {
		BranchID    string `json:"branchId"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	branchID, ok := parseID(req.BranchID)
	visible, allowed := b.visibleBranches(c)
	if !allowed {
		return
	}
	if !ok || (visible != nil && !contains(visible, branchID)) {
		fail(c, http.StatusForbidden, "Branch not accessible")
		return
	}
	offer := DBOffer{BranchID: branchID, Title: req.Title, Description: optional(req.Description)}
	if err := b.store.db.WithContext(c.Request.Context()).Create(&offer).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, offerView(offer))
}

func customerView(cu DBCustomer) gin.H {
	return gin.H{
		"id":        idString(cu.ID),
		"name":      cu.Name,
		"phone":     cu.Phone,
		"email":     cu.Email,
		"branchId":  idString(cu.BranchID),
		"createdAt": cu.CreatedAt,
	}
}

func (b *Backend) listCustomers(c *gin.Context) {
	visible, ok := b.visibleBranches(c)
	if !ok {
		return
	}
	q := b.store.db.WithContext(c.Request.Context()).Order("id")
	if visible != nil {
		q = q.Where("branch_id IN ?", visible)
	}
	if id, ok := parseID(c.Query("branchId")); ok {
		q = q.Where("branch_id = ?", id)
	}
	var customers []DBCustomer
	if err := q.Find(&customers).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(customers))
	for _, cu := range customers {
		out = append(out, customerView(cu))
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createCustomer(c *gin.Context) {
	var req struct {
		BranchID string `json:"branchId"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	branchID, ok := parseID(req.BranchID)
	visible, allowed := b.visibleBranches(c)
	if !allowed {
		return
	}
	if !ok || (visible != nil && !contains(visible, branchID)) {
		fail(c, http.StatusForbidden, "Branch not accessible")
		return
	}
	customer := DBCustomer{BranchID: branchID, Name: req.Name, Phone: req.Phone, Email: optional(req.Email)}
	if err := b.store.db.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, customerView(customer))
}
