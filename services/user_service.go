package services

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

type UserService interface {
	RegisterUser(req *models.RegisterRequest) (*models.User, error)
	GetUserProfile(userID uint) (*models.User, error)
	UpdateUserProfile(userID uint, req *models.UpdateProfileRequest) (*models.User, error)
	SetProfilePicture(userID uint, url string) (*models.User, error)
}

type userService struct {
	Config   *config.Config
	userRepo db.UserRepository
}

func NewUserService(userRepo db.UserRepository, conf *config.Config) UserService {
	return &userService{
		Config:   conf,
		userRepo: userRepo,
	}
}

func (s *userService) RegisterUser(req *models.RegisterRequest) (*models.User, error) {
	if req.Password != req.Password2 {
		return nil, &errs.Error{
			Message: "validation failed",
			Status:  http.StatusBadRequest,
			Fields:  map[string]string{"password": "password fields didn't match"},
		}
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, &errs.Error{
			Message: "validation failed",
			Status:  http.StatusBadRequest,
			Fields:  map[string]string{"password": err.Error()},
		}
	}

	exists, err := s.userRepo.IsUsernameExist(req.Username)
	if err != nil {
		logging.Error().Err(err).Msg("register: username lookup")
		return nil, errs.ErrInternalServerError
	}
	if exists {
		return nil, errs.New("a user with that username already exists", http.StatusBadRequest)
	}
	exists, err = s.userRepo.IsEmailExist(req.Email)
	if err != nil {
		logging.Error().Err(err).Msg("register: email lookup")
		return nil, errs.ErrInternalServerError
	}
	if exists {
		return nil, errs.New("a user with that email already exists", http.StatusBadRequest)
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Location:    req.Location,
	}
	if err := user.SetPassword(req.Password); err != nil {
		logging.Error().Err(err).Msg("register: hash password")
		return nil, errs.ErrInternalServerError
	}

	user, err = s.userRepo.CreateUser(user)
	if err != nil {
		logging.Error().Err(err).Str("username", req.Username).Msg("register: create user")
		return nil, errs.GetUniqueContraintError(err)
	}
	logging.Info().Uint("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *userService) GetUserProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("user not found", http.StatusNotFound)
		}
		return nil, errs.ErrInternalServerError
	}
	return user, nil
}

func (s *userService) UpdateUserProfile(userID uint, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserProfile(userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		exists, err := s.userRepo.IsEmailExist(*req.Email)
		if err != nil {
			return nil, errs.ErrInternalServerError
		}
		if exists {
			return nil, errs.New("a user with that email already exists", http.StatusBadRequest)
		}
		user.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.FCMToken != nil {
		user.FCMToken = *req.FCMToken
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		logging.Error().Err(err).Uint("user_id", userID).Msg("update profile")
		return nil, errs.GetUniqueContraintError(err)
	}
	return user, nil
}

func (s *userService) SetProfilePicture(userID uint, url string) (*models.User, error) {
	return s.UpdateUserProfile(userID, &models.UpdateProfileRequest{ProfilePicture: &url})
}
