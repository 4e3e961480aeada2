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

// NotificationService stores in-app notifications. Push delivery is not
// handled here.
type NotificationService interface {
	Notify(userID uint, kind, title, message string, listingID *uint) error
	ListNotifications(userID uint) ([]models.Notification, error)
	MarkRead(id, userID uint) error
	MarkAllRead(userID uint) (int64, error)
	UnreadCount(userID uint) (int64, error)
}

type notificationService struct {
	Config           *config.Config
	notificationRepo db.NotificationRepository
}

func NewNotificationService(notificationRepo db.NotificationRepository, conf *config.Config) NotificationService {
	return &notificationService{
		Config:           conf,
		notificationRepo: notificationRepo,
	}
}

func (s *notificationService) Notify(userID uint, kind, title, message string, listingID *uint) error {
	n := &models.Notification{
		UserID:           userID,
		NotificationType: kind,
		Title:            title,
		Message:          message,
		ListingID:        listingID,
	}
	if err := s.notificationRepo.CreateNotification(n); err != nil {
		logging.Error().Err(err).Uint("user_id", userID).Str("type", kind).Msg("create notification")
		return errs.ErrInternalServerError
	}
	return nil
}

func (s *notificationService) ListNotifications(userID uint) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListForUser(userID)
	if err != nil {
		logging.Error().Err(err).Uint("user_id", userID).Msg("list notifications")
		return nil, errs.ErrInternalServerError
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(id, userID uint) error {
	if _, err := s.notificationRepo.FindForUser(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.New("notification not found", http.StatusNotFound)
		}
		return errs.ErrInternalServerError
	}
	if err := s.notificationRepo.MarkRead(id, userID); err != nil {
		return errs.ErrInternalServerError
	}
	return nil
}

func (s *notificationService) MarkAllRead(userID uint) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(userID)
	if err != nil {
		return 0, errs.ErrInternalServerError
	}
	return n, nil
}

func (s *notificationService) UnreadCount(userID uint) (int64, error) {
	n, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return 0, errs.ErrInternalServerError
	}
	return n, nil
}
