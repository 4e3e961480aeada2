package db

import (
	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateNotification(n *models.Notification) error
	ListForUser(userID uint) ([]models.Notification, error)
	FindForUser(id, userID uint) (*models.Notification, error)
	MarkRead(id, userID uint) error
	MarkAllRead(userID uint) (int64, error)
	UnreadCount(userID uint) (int64, error)
}

type notificationRepo struct {
	DB *gorm.DB
}

func NewNotificationRepo(db *GormDB) NotificationRepository {
	return &notificationRepo{db.DB}
}

func (r *notificationRepo) CreateNotification(n *models.Notification) error {
	return errors.Wrap(r.DB.Omit("User", "Listing").Create(n).Error, "create notification")
}

func (r *notificationRepo) ListForUser(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.DB.Preload("Listing.Seller").Preload("Listing.Category").Preload("Listing.Images").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	return notifications, errors.Wrap(err, "list notifications")
}

func (r *notificationRepo) FindForUser(id, userID uint) (*models.Notification, error) {
	n := &models.Notification{}
	if err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(n).Error; err != nil {
		return nil, errors.Wrapf(err, "find notification %d", id)
	}
	return n, nil
}

func (r *notificationRepo) MarkRead(id, userID uint) error {
	err := r.DB.Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Update("is_read", true).Error
	return errors.Wrap(err, "mark notification read")
}

func (r *notificationRepo) MarkAllRead(userID uint) (int64, error) {
	res := r.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true)
	return res.RowsAffected, errors.Wrap(res.Error, "mark all notifications read")
}

func (r *notificationRepo) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, errors.Wrap(err, "unread notifications")
}
