package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ListingPending  = "pending"
	ListingApproved = "approved"
	ListingRejected = "rejected"
	ListingSold     = "sold"
)

const DefaultCondition = "good"

// maxPrice is the first value numeric(10,2) cannot hold.
var maxPrice = decimal.New(1, 8)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	CreatedAt time.Time `json:"-"`
}

type Listing struct {
	Model
	Title       string          `gorm:"size:255;index;not null" json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);index" json:"price"`
	CategoryID  *uint           `json:"-"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL" json:"category"`
	Location    string          `gorm:"size:255;index" json:"location"`
	SellerID    uint            `gorm:"not null;index" json:"-"`
	Seller      User            `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"seller"`
	Status      string          `gorm:"size:20;default:pending;index" json:"status"`
	Condition   string          `gorm:"size:20;default:good" json:"condition"`
	IsFeatured  bool            `gorm:"default:false;index" json:"is_featured"`
	Images      []ListingImage  `gorm:"constraint:OnDelete:CASCADE" json:"images"`
	IsFavorited bool            `gorm:"-" json:"is_favorited"`
}

type ListingImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"-"`
	Image     string    `gorm:"type:text;not null" json:"image"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"-"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorite_user_listing;not null" json:"-"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ListingID uint      `gorm:"uniqueIndex:idx_favorite_user_listing;not null" json:"-"`
	Listing   Listing   `gorm:"constraint:OnDelete:CASCADE" json:"listing"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateListingRequest struct {
	Title       string          `json:"title" binding:"required,max=255" conform:"trim"`
	Description string          `json:"description" binding:"required" conform:"trim"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uint            `json:"category_id" binding:"required"`
	Location    string          `json:"location" binding:"required,max=255" conform:"trim"`
	Condition   string          `json:"condition" binding:"omitempty,oneof=new like_new excellent good fair poor"`
	Images      []string        `json:"images"`
}

type UpdateListingRequest struct {
	Title       *string          `json:"title" binding:"omitempty,max=255" conform:"trim"`
	Description *string          `json:"description" conform:"trim"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *uint            `json:"category_id"`
	Location    *string          `json:"location" binding:"omitempty,max=255" conform:"trim"`
	Condition   *string          `json:"condition" binding:"omitempty,oneof=new like_new excellent good fair poor"`
	Images      *[]string        `json:"images"`
}

type UpdateListingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected sold"`
}

// ListingFilter carries the query parameters accepted by the listing index.
type ListingFilter struct {
	CategoryID *uint
	Location   string
	Status     string
	Condition  string
	IsFeatured *bool
	Search     string
	Ordering   string
	Page       int
	PageSize   int
}

// Viewer describes who is looking at listings; a nil UserID means anonymous.
type Viewer struct {
	UserID  *uint
	IsStaff bool
}

type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// ValidatePrice accepts positive amounts with at most two decimal places that
// fit the price column.
func ValidatePrice(price decimal.Decimal) error {
	switch {
	case !price.IsPositive():
		return errors.New("must be greater than 0")
	case !price.Equal(price.Truncate(2)):
		return errors.New("must have at most 2 decimal places")
	case price.GreaterThanOrEqual(maxPrice):
		return errors.New("must be less than 100000000")
	}
	return nil
}
