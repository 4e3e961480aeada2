package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/server/response"
)

func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		user, err := s.UserService.RegisterUser(&req)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Signup successful", http.StatusCreated, user, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		response.JSON(c, "User profile retrieved successfully", http.StatusOK, user.Profile(), nil)
	}
}

func (s *Server) handleEditUserProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		var req models.UpdateProfileRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		updated, err := s.UserService.UpdateUserProfile(user.ID, &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "User profile updated successfully", http.StatusOK, updated.Profile(), nil)
	}
}

func (s *Server) handleUpdateProfilePicture() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		file, err := c.FormFile("image")
		if err != nil {
			respondErr(c, errs.New("image file is required", http.StatusBadRequest))
			return
		}
		url, err := s.MediaService.UploadProfilePicture(c.Request.Context(), user.ID, file)
		if err != nil {
			respondErr(c, err)
			return
		}
		updated, err := s.UserService.SetProfilePicture(user.ID, url)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Profile picture updated", http.StatusOK, updated.Profile(), nil)
	}
}
