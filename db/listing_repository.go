package db

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

type ListingRepository interface {
	ListCategories() ([]models.Category, error)
	FindCategoryByID(id uint) (*models.Category, error)
	CreateListing(listing *models.Listing, images []string) error
	FindListingByID(id uint) (*models.Listing, error)
	FindVisibleListing(id uint, viewer models.Viewer) (*models.Listing, error)
	ListListings(filter models.ListingFilter, viewer models.Viewer) ([]models.Listing, int64, error)
	ListBySeller(sellerID uint) ([]models.Listing, error)
	SimilarListings(listing *models.Listing, limit int) ([]models.Listing, error)
	UpdateListing(listing *models.Listing, fields map[string]interface{}, images *[]string) error
	UpdateStatus(id uint, status string) error
	DeleteListing(id uint) error
	AddImage(listingID uint, url string) (*models.ListingImage, error)

	AddFavorite(userID, listingID uint) (bool, error)
	RemoveFavorite(userID, listingID uint) error
	IsFavorited(userID, listingID uint) (bool, error)
	FavoritedListingIDs(userID uint, listingIDs []uint) (map[uint]bool, error)
	ListFavorites(userID uint) ([]models.Favorite, error)
}

type listingRepo struct {
	DB *gorm.DB
}

func NewListingRepo(db *GormDB) ListingRepository {
	return &listingRepo{db.DB}
}

var listingOrderings = map[string]string{
	"price":       "price ASC",
	"-price":      "price DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

func withListingRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Seller").Preload("Category").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("is_primary DESC, created_at ASC, id ASC")
	})
}

// visibleTo applies the listing status gate: staff see everything, signed-in
// users see approved listings and their own, anonymous viewers only approved.
func visibleTo(v models.Viewer) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case v.IsStaff:
			return db
		case v.UserID != nil:
			return db.Where("(listings.status = ? OR listings.seller_id = ?)", models.ListingApproved, *v.UserID)
		default:
			return db.Where("listings.status = ?", models.ListingApproved)
		}
	}
}

func (r *listingRepo) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := r.DB.Order("name ASC").Find(&categories).Error
	return categories, errors.Wrap(err, "list categories")
}

func (r *listingRepo) FindCategoryByID(id uint) (*models.Category, error) {
	category := &models.Category{}
	if err := r.DB.First(category, id).Error; err != nil {
		return nil, errors.Wrapf(err, "find category %d", id)
	}
	return category, nil
}

func imageRows(listingID uint, images []string) []models.ListingImage {
	rows := make([]models.ListingImage, 0, len(images))
	for _, url := range images {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		rows = append(rows, models.ListingImage{ListingID: listingID, Image: url, IsPrimary: len(rows) == 0})
	}
	return rows
}

func (r *listingRepo) CreateListing(listing *models.Listing, images []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Seller", "Category", "Images").Create(listing).Error; err != nil {
			return errors.Wrap(err, "create listing")
		}
		rows := imageRows(listing.ID, images)
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return errors.Wrap(err, "create listing images")
			}
		}
		return nil
	})
}

func (r *listingRepo) FindListingByID(id uint) (*models.Listing, error) {
	listing := &models.Listing{}
	if err := r.DB.Scopes(withListingRelations).First(listing, id).Error; err != nil {
		return nil, errors.Wrapf(err, "find listing %d", id)
	}
	return listing, nil
}

func (r *listingRepo) FindVisibleListing(id uint, viewer models.Viewer) (*models.Listing, error) {
	listing := &models.Listing{}
	err := r.DB.Scopes(withListingRelations, visibleTo(viewer)).Where("listings.id = ?", id).First(listing).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find listing %d", id)
	}
	return listing, nil
}

func (r *listingRepo) ListListings(f models.ListingFilter, viewer models.Viewer) ([]models.Listing, int64, error) {
	q := r.DB.Model(&models.Listing{}).Scopes(visibleTo(viewer))
	if f.CategoryID != nil {
		q = q.Where("listings.category_id = ?", *f.CategoryID)
	}
	if f.Location != "" {
		q = q.Where("listings.location = ?", f.Location)
	}
	if f.Status != "" {
		q = q.Where("listings.status = ?", f.Status)
	}
	if f.Condition != "" {
		q = q.Where("listings.condition = ?", f.Condition)
	}
	if f.IsFeatured != nil {
		q = q.Where("listings.is_featured = ?", *f.IsFeatured)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(listings.title) LIKE ? OR LOWER(listings.description) LIKE ? OR LOWER(listings.location) LIKE ?)", like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count listings")
	}

	order, ok := listingOrderings[f.Ordering]
	if !ok {
		order = listingOrderings["-created_at"]
	}
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var listings []models.Listing
	err := q.Scopes(withListingRelations).
		Order(order).Order("listings.id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&listings).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list listings")
	}
	return listings, count, nil
}

func (r *listingRepo) ListBySeller(sellerID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.DB.Scopes(withListingRelations).Where("seller_id = ?", sellerID).
		Order("created_at DESC").Order("id DESC").Find(&listings).Error
	return listings, errors.Wrap(err, "list seller listings")
}

func (r *listingRepo) SimilarListings(listing *models.Listing, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	q := r.DB.Scopes(withListingRelations).
		Where("status = ? AND id <> ?", models.ListingApproved, listing.ID)
	if listing.CategoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *listing.CategoryID)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&listings).Error
	return listings, errors.Wrap(err, "similar listings")
}

// UpdateListing applies a partial update; a non-nil images replaces the image set.
func (r *listingRepo) UpdateListing(listing *models.Listing, fields map[string]interface{}, images *[]string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(fields).Error; err != nil {
				return errors.Wrap(err, "update listing")
			}
		}
		if images == nil {
			return nil
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&models.ListingImage{}).Error; err != nil {
			return errors.Wrap(err, "delete listing images")
		}
		rows := imageRows(listing.ID, *images)
		if len(rows) == 0 {
			return nil
		}
		return errors.Wrap(tx.Create(&rows).Error, "create listing images")
	})
}

func (r *listingRepo) UpdateStatus(id uint, status string) error {
	err := r.DB.Model(&models.Listing{}).Where("id = ?", id).Update("status", status).Error
	return errors.Wrap(err, "update listing status")
}

func (r *listingRepo) DeleteListing(id uint) error {
	return errors.Wrap(r.DB.Delete(&models.Listing{}, id).Error, "delete listing")
}

func (r *listingRepo) AddImage(listingID uint, url string) (*models.ListingImage, error) {
	var existing int64
	if err := r.DB.Model(&models.ListingImage{}).Where("listing_id = ?", listingID).Count(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "count listing images")
	}
	image := &models.ListingImage{ListingID: listingID, Image: url, IsPrimary: existing == 0}
	if err := r.DB.Create(image).Error; err != nil {
		return nil, errors.Wrap(err, "create listing image")
	}
	return image, nil
}

// AddFavorite reports whether a new row was created.
func (r *listingRepo) AddFavorite(userID, listingID uint) (bool, error) {
	exists, err := r.IsFavorited(userID, listingID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	fav := &models.Favorite{UserID: userID, ListingID: listingID}
	if err := r.DB.Omit("User", "Listing").Create(fav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, errors.Wrap(err, "add favorite")
	}
	return true, nil
}

func (r *listingRepo) RemoveFavorite(userID, listingID uint) error {
	err := r.DB.Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&models.Favorite{}).Error
	return errors.Wrap(err, "remove favorite")
}

func (r *listingRepo) IsFavorited(userID, listingID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Favorite{}).Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count favorites")
	}
	return count > 0, nil
}

func (r *listingRepo) FavoritedListingIDs(userID uint, listingIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(listingIDs))
	if len(listingIDs) == 0 {
		return set, nil
	}
	var ids []uint
	err := r.DB.Model(&models.Favorite{}).Where("user_id = ? AND listing_id IN ?", userID, listingIDs).Pluck("listing_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "favorited listing ids")
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *listingRepo) ListFavorites(userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := r.DB.Preload("Listing.Seller").Preload("Listing.Category").
		Preload("Listing.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC, id ASC")
		}).
		Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&favorites).Error
	return favorites, errors.Wrap(err, "list favorites")
}
