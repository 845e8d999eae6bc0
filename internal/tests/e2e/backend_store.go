package e2e

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errNotFound = errors.New("not found")

// DBUser is an account of any role
type DBUser struct {
	ID           uint    `gorm:"primaryKey"`
	Email        *string `gorm:"uniqueIndex;size:255"`
	Phone        string  `gorm:"index;size:32"`
	PasswordHash string  `gorm:"column:password"`
	Role         string  `gorm:"index;size:64"`
	BranchID     *uint   `gorm:"index"`
	CreatedAt    time.Time
}

func (DBUser) TableName() string { return "users" }

type DBShop struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	CreatedAt time.Time
}

func (DBShop) TableName() string { return "shops" }

// DBShopOwner links store admins to the shops they run
type DBShopOwner struct {
	ShopID uint `gorm:"primaryKey"`
	UserID uint `gorm:"primaryKey"`
}

func (DBShopOwner) TableName() string { return "shop_owners" }

type DBBranch struct {
	ID       uint   `gorm:"primaryKey"`
	ShopID   uint   `gorm:"index"`
	Name     string `gorm:"size:255"`
	Location string `gorm:"size:255"`
}

func (DBBranch) TableName() string { return "branches" }

type DBOffer struct {
	ID          uint `gorm:"primaryKey"`
	BranchID    uint `gorm:"index"`
	Title       string
	Description *string
}

func (DBOffer) TableName() string { return "offers" }

type DBCustomer struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index"`
	Name      string
	Phone     string `gorm:"size:32"`
	Email     *string
	CreatedAt time.Time
}

func (DBCustomer) TableName() string { return "customers" }

// retailStore is the backend's persistence, an in-memory SQLite database
type retailStore struct {
	db   *gorm.DB
	cost int
}

func openRetailStore() (*retailStore, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&DBUser{}, &DBShop{}, &DBShopOwner{}, &DBBranch{}, &DBOffer{}, &DBCustomer{}); err != nil {
		return nil, err
	}
	return &retailStore{db: db, cost: bcrypt.MinCost}, nil
}

func (s *retailStore) close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *retailStore) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func verifyPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

func (s *retailStore) createUser(ctx context.Context, u *DBUser, password string) error {
	if password != "" {
		hashed, err := s.hash(password)
		if err != nil {
			return err
		}
		u.PasswordHash = hashed
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *retailStore) findUser(ctx context.Context, query string, args ...any) (*DBUser, error) {
	var u DBUser
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *retailStore) shopIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&DBShopOwner{}).Where("user_id = ?", userID).Pluck("shop_id", &ids).Error
	return ids, err
}

// branchIDs returns the branches inside the given shops
func (s *retailStore) branchIDs(ctx context.Context, shopIDs []uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&DBBranch{}).Where("shop_id IN ?", shopIDs).Pluck("id", &ids).Error
	return ids, err
}

func idString(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
