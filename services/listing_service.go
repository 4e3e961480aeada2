package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

const (
	maxPageSize     = 100
	similarListings = 6
)

var ErrListingNotFound = errs.New("listing not found", http.StatusNotFound)

type ListingService interface {
	ListCategories() ([]models.Category, error)
	ListListings(filter models.ListingFilter, viewer models.Viewer) (*models.Page[models.Listing], error)
	GetListing(id uint, viewer models.Viewer) (*models.Listing, error)
	CreateListing(sellerID uint, req *models.CreateListingRequest) (*models.Listing, error)
	UpdateListing(id, userID uint, req *models.UpdateListingRequest) (*models.Listing, error)
	DeleteListing(id, userID uint) error
	UpdateStatus(id uint, actor *models.User, status string) (*models.Listing, error)
	MyListings(userID uint) ([]models.Listing, error)
	SimilarListings(id uint, viewer models.Viewer) ([]models.Listing, error)
	ReportListing(id uint, viewer models.Viewer, reason string) (*models.Listing, error)
	OwnedListing(id, userID uint) (*models.Listing, error)
	AddImage(listingID uint, url string) (*models.ListingImage, error)

	AddFavorite(userID, listingID uint) (bool, error)
	RemoveFavorite(userID, listingID uint) error
	ListFavorites(userID uint) ([]models.Favorite, error)
}

type listingService struct {
	Config        *config.Config
	listingRepo   db.ListingRepository
	notifications NotificationService
}

func NewListingService(listingRepo db.ListingRepository, notifications NotificationService, conf *config.Config) ListingService {
	return &listingService{
		Config:        conf,
		listingRepo:   listingRepo,
		notifications: notifications,
	}
}

func notFoundOr500(err error, notFound *errs.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	logging.Error().Err(err).Msg("listing store")
	return errs.ErrInternalServerError
}

func (s *listingService) ListCategories() ([]models.Category, error) {
	categories, err := s.listingRepo.ListCategories()
	if err != nil {
		return nil, notFoundOr500(err, errs.ErrNotFound)
	}
	return categories, nil
}

// annotate sets IsFavorited on each listing for the viewer.
func (s *listingService) annotate(listings []models.Listing, viewer models.Viewer) error {
	if viewer.UserID == nil || len(listings) == 0 {
		return nil
	}
	ids := make([]uint, len(listings))
	for i := range listings {
		ids[i] = listings[i].ID
	}
	set, err := s.listingRepo.FavoritedListingIDs(*viewer.UserID, ids)
	if err != nil {
		return err
	}
	for i := range listings {
		listings[i].IsFavorited = set[listings[i].ID]
	}
	return nil
}

func (s *listingService) ListListings(filter models.ListingFilter, viewer models.Viewer) (*models.Page[models.Listing], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = s.Config.PageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	listings, count, err := s.listingRepo.ListListings(filter, viewer)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	if err := s.annotate(listings, viewer); err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return &models.Page[models.Listing]{
		Count:    count,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Results:  listings,
	}, nil
}

func (s *listingService) GetListing(id uint, viewer models.Viewer) (*models.Listing, error) {
	listing, err := s.listingRepo.FindVisibleListing(id, viewer)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	one := []models.Listing{*listing}
	if err := s.annotate(one, viewer); err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	return &one[0], nil
}

func priceError(err error) *errs.Error {
	return &errs.Error{
		Message: "validation failed",
		Status:  http.StatusBadRequest,
		Fields:  map[string]string{"price": err.Error()},
	}
}

func (s *listingService) CreateListing(sellerID uint, req *models.CreateListingRequest) (*models.Listing, error) {
	if err := models.ValidatePrice(req.Price); err != nil {
		return nil, priceError(err)
	}
	if _, err := s.listingRepo.FindCategoryByID(req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.Error{
				Message: "validation failed",
				Status:  http.StatusBadRequest,
				Fields:  map[string]string{"category_id": fmt.Sprintf("invalid pk %d - object does not exist", req.CategoryID)},
			}
		}
		return nil, notFoundOr500(err, errs.ErrNotFound)
	}

	condition := req.Condition
	if condition == "" {
		condition = models.DefaultCondition
	}
	categoryID := req.CategoryID
	listing := &models.Listing{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  &categoryID,
		Location:    req.Location,
		SellerID:    sellerID,
		Status:      models.ListingApproved,
		Condition:   condition,
	}
	if err := s.listingRepo.CreateListing(listing, req.Images); err != nil {
		logging.Error().Err(err).Uint("user_id", sellerID).Msg("create listing")
		return nil, errs.GetUniqueContraintError(err)
	}
	logging.Info().Uint("listing_id", listing.ID).Uint("user_id", sellerID).Msg("listing created")
	return s.GetListing(listing.ID, models.Viewer{UserID: &sellerID})
}

// OwnedListing loads a listing and checks that userID is its seller.
func (s *listingService) OwnedListing(id, userID uint) (*models.Listing, error) {
	listing, err := s.listingRepo.FindVisibleListing(id, models.Viewer{UserID: &userID})
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	if listing.SellerID != userID {
		return nil, errs.New("you can only modify your own listings", http.StatusForbidden)
	}
	return listing, nil
}

func (s *listingService) UpdateListing(id, userID uint, req *models.UpdateListingRequest) (*models.Listing, error) {
	listing, err := s.OwnedListing(id, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, &errs.Error{Message: "validation failed", Status: http.StatusBadRequest,
				Fields: map[string]string{"title": "this field may not be blank"}}
		}
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if err := models.ValidatePrice(*req.Price); err != nil {
			return nil, priceError(err)
		}
		fields["price"] = *req.Price
	}
	if req.CategoryID != nil {
		if _, err := s.listingRepo.FindCategoryByID(*req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &errs.Error{Message: "validation failed", Status: http.StatusBadRequest,
					Fields: map[string]string{"category_id": fmt.Sprintf("invalid pk %d - object does not exist", *req.CategoryID)}}
			}
			return nil, notFoundOr500(err, errs.ErrNotFound)
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Condition != nil {
		fields["condition"] = *req.Condition
	}

	if err := s.listingRepo.UpdateListing(listing, fields, req.Images); err != nil {
		logging.Error().Err(err).Uint("listing_id", id).Msg("update listing")
		return nil, errs.GetUniqueContraintError(err)
	}
	return s.GetListing(id, models.Viewer{UserID: &userID})
}

func (s *listingService) DeleteListing(id, userID uint) error {
	if _, err := s.OwnedListing(id, userID); err != nil {
		return err
	}
	if err := s.listingRepo.DeleteListing(id); err != nil {
		logging.Error().Err(err).Uint("listing_id", id).Msg("delete listing")
		return errs.ErrInternalServerError
	}
	return nil
}

// UpdateStatus moderates a listing. Moving to approved or rejected notifies
// the seller.
func (s *listingService) UpdateStatus(id uint, actor *models.User, status string) (*models.Listing, error) {
	if actor == nil || !actor.IsStaff {
		return nil, errs.New("only staff can change a listing's status", http.StatusForbidden)
	}
	listing, err := s.listingRepo.FindListingByID(id)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	previous := listing.Status
	if err := s.listingRepo.UpdateStatus(id, status); err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}

	if status != previous {
		var kind, title, message string
		switch status {
		case models.ListingApproved:
			kind, title = models.NotificationApproval, "Listing approved"
			message = fmt.Sprintf("Your listing %q is now live.", listing.Title)
		case models.ListingRejected:
			kind, title = models.NotificationRejection, "Listing rejected"
			message = fmt.Sprintf("Your listing %q was not approved.", listing.Title)
		}
		if kind != "" {
			if err := s.notifications.Notify(listing.SellerID, kind, title, message, &listing.ID); err != nil {
				logging.Warn().Err(err).Uint("listing_id", id).Msg("status notification")
			}
		}
	}
	logging.Info().Uint("listing_id", id).Str("from", previous).Str("to", status).Msg("listing status changed")
	return s.GetListing(id, models.Viewer{UserID: &actor.ID, IsStaff: true})
}

func (s *listingService) MyListings(userID uint) ([]models.Listing, error) {
	listings, err := s.listingRepo.ListBySeller(userID)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	if err := s.annotate(listings, models.Viewer{UserID: &userID}); err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	return listings, nil
}

func (s *listingService) SimilarListings(id uint, viewer models.Viewer) ([]models.Listing, error) {
	listing, err := s.listingRepo.FindVisibleListing(id, viewer)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	similar, err := s.listingRepo.SimilarListings(listing, similarListings)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	if err := s.annotate(similar, viewer); err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	return similar, nil
}

// ReportListing only records the report in the log.
func (s *listingService) ReportListing(id uint, viewer models.Viewer, reason string) (*models.Listing, error) {
	listing, err := s.listingRepo.FindVisibleListing(id, viewer)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Inappropriate content"
	}
	ev := logging.Warn().Uint("listing_id", id).Str("reason", reason)
	if viewer.UserID != nil {
		ev = ev.Uint("user_id", *viewer.UserID)
	}
	ev.Msg("listing reported")
	return listing, nil
}

func (s *listingService) AddImage(listingID uint, url string) (*models.ListingImage, error) {
	image, err := s.listingRepo.AddImage(listingID, url)
	if err != nil {
		logging.Error().Err(err).Uint("listing_id", listingID).Msg("add listing image")
		return nil, errs.ErrInternalServerError
	}
	return image, nil
}

func (s *listingService) AddFavorite(userID, listingID uint) (bool, error) {
	if _, err := s.listingRepo.FindVisibleListing(listingID, models.Viewer{UserID: &userID}); err != nil {
		return false, notFoundOr500(err, ErrListingNotFound)
	}
	created, err := s.listingRepo.AddFavorite(userID, listingID)
	if err != nil {
		return false, notFoundOr500(err, ErrListingNotFound)
	}
	return created, nil
}

func (s *listingService) RemoveFavorite(userID, listingID uint) error {
	if _, err := s.listingRepo.FindVisibleListing(listingID, models.Viewer{UserID: &userID}); err != nil {
		return notFoundOr500(err, ErrListingNotFound)
	}
	if err := s.listingRepo.RemoveFavorite(userID, listingID); err != nil {
		return notFoundOr500(err, ErrListingNotFound)
	}
	return nil
}

func (s *listingService) ListFavorites(userID uint) ([]models.Favorite, error) {
	favorites, err := s.listingRepo.ListFavorites(userID)
	if err != nil {
		return nil, notFoundOr500(err, ErrListingNotFound)
	}
	for i := range favorites {
		favorites[i].Listing.IsFavorited = true
	}
	return favorites, nil
}
