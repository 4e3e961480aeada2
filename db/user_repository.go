package db

import (
	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	IsUsernameExist(username string) (bool, error)
	IsEmailExist(email string) (bool, error)
	UpdateUser(user *models.User) error
}

type userRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *GormDB) UserRepository {
	return &userRepo{db.DB}
}

func (a *userRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if err := a.DB.Create(user).Error; err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}

func (a *userRepo) FindUserByID(id uint) (*models.User, error) {
	user := &models.User{}
	if err := a.DB.First(user, id).Error; err != nil {
		return nil, errors.Wrapf(err, "find user %d", id)
	}
	return user, nil
}

func (a *userRepo) FindUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := a.DB.Where("email = ? OR username = ?", username, username).First(user).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find user %q", username)
	}
	return user, nil
}

func (a *userRepo) IsUsernameExist(username string) (bool, error) {
	var count int64
	if err := a.DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "count users by username")
	}
	return count > 0, nil
}

func (a *userRepo) IsEmailExist(email string) (bool, error) {
	var count int64
	if err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "count users by email")
	}
	return count > 0, nil
}

func (a *userRepo) UpdateUser(user *models.User) error {
	return errors.Wrap(a.DB.Save(user).Error, "update user")
}
