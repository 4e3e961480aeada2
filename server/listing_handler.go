package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/server/response"
)

func (s *Server) handleListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.ListingService.ListCategories()
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Categories retrieved successfully", http.StatusOK, categories, nil)
	}
}

func queryError(field, msg string) *errs.Error {
	return &errs.Error{Message: "invalid query parameter", Status: http.StatusBadRequest, Fields: map[string]string{field: msg}}
}

// listingFilter reads the listing index query string.
func listingFilter(c *gin.Context) (models.ListingFilter, error) {
	f := models.ListingFilter{
		Location:  c.Query("location"),
		Status:    c.Query("status"),
		Condition: c.Query("condition"),
		Search:    c.Query("search"),
		Ordering:  c.Query("ordering"),
	}
	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, queryError("category", "must be a category id")
		}
		category := uint(id)
		f.CategoryID = &category
	}
	if v := c.Query("is_featured"); v != "" {
		featured, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return f, queryError("is_featured", "must be true or false")
		}
		f.IsFeatured = &featured
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, queryError("page", "must be a positive integer")
		}
		f.Page = page
	}
	if v := c.Query("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return f, queryError("page_size", "must be a positive integer")
		}
		f.PageSize = size
	}
	return f, nil
}

func (s *Server) handleListListings() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := listingFilter(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		page, err := s.ListingService.ListListings(filter, viewerFromContext(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listings retrieved successfully", http.StatusOK, page, nil)
	}
}

func (s *Server) handleGetListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		listing, err := s.ListingService.GetListing(id, viewerFromContext(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listing retrieved successfully", http.StatusOK, listing, nil)
	}
}

func (s *Server) handleCreateListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		var req models.CreateListingRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		listing, err := s.ListingService.CreateListing(user.ID, &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listing created successfully", http.StatusCreated, listing, nil)
	}
}

func (s *Server) handleUpdateListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req models.UpdateListingRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		listing, err := s.ListingService.UpdateListing(id, user.ID, &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listing updated successfully", http.StatusOK, listing, nil)
	}
}

func (s *Server) handleDeleteListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := s.ListingService.DeleteListing(id, user.ID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleUpdateListingStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req models.UpdateListingStatusRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		listing, err := s.ListingService.UpdateStatus(id, user, req.Status)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listing status updated", http.StatusOK, listing, nil)
	}
}

func (s *Server) handleFavorite() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		created, err := s.ListingService.AddFavorite(user.ID, id)
		if err != nil {
			respondErr(c, err)
			return
		}
		if !created {
			response.JSON(c, "Already in favorites", http.StatusOK, nil, nil)
			return
		}
		response.JSON(c, "Added to favorites", http.StatusCreated, nil, nil)
	}
}

func (s *Server) handleUnfavorite() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := s.ListingService.RemoveFavorite(user.ID, id); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Removed from favorites", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleListFavorites() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		favorites, err := s.ListingService.ListFavorites(user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Favorites retrieved successfully", http.StatusOK, favorites, nil)
	}
}

func (s *Server) handleMyListings() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		listings, err := s.ListingService.MyListings(user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listings retrieved successfully", http.StatusOK, listings, nil)
	}
}

func (s *Server) handleSimilarListings() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		listings, err := s.ListingService.SimilarListings(id, viewerFromContext(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Similar listings retrieved successfully", http.StatusOK, listings, nil)
	}
}

func (s *Server) handleReportListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		if c.Request.ContentLength > 0 {
			if err := decode(c, &req); err != nil {
				respondErr(c, err)
				return
			}
		}
		listing, err := s.ListingService.ReportListing(id, viewerFromContext(c), req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Listing reported successfully. Our team will review it.", http.StatusOK,
			gin.H{"listing_id": listing.ID}, nil)
	}
}

func (s *Server) handleUploadListingImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if _, err := s.ListingService.OwnedListing(id, user.ID); err != nil {
			respondErr(c, err)
			return
		}
		file, err := c.FormFile("image")
		if err != nil {
			respondErr(c, errs.New("image file is required", http.StatusBadRequest))
			return
		}
		url, err := s.MediaService.UploadListingImage(c.Request.Context(), id, file)
		if err != nil {
			respondErr(c, err)
			return
		}
		image, err := s.ListingService.AddImage(id, url)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Image uploaded successfully", http.StatusCreated, image, nil)
	}
}
