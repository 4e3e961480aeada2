package models

import (
	"errors"
	"time"

	goval "github.com/go-passwd/validator"
	"golang.org/x/crypto/bcrypt"
)

// User represents a marketplace account. IsStaff users moderate listings.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	HashedPassword string    `json:"-"`
	PhoneNumber    string    `json:"phone_number"`
	ProfilePicture string    `json:"profile_picture"`
	Location       string    `json:"location"`
	FCMToken       string    `json:"-"`
	IsStaff        bool      `gorm:"default:false" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

// Sender is the compact user form carried in chat events.
type Sender struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=2,max=150" conform:"trim"`
	Email       string `json:"email" binding:"required,email" conform:"trim,lower"`
	Password    string `json:"password" binding:"required"`
	Password2   string `json:"password2" binding:"required"`
	PhoneNumber string `json:"phone_number" conform:"trim"`
	Location    string `json:"location" conform:"trim"`
}

type UpdateProfileRequest struct {
	Email          *string `json:"email" binding:"omitempty,email" conform:"trim,lower"`
	PhoneNumber    *string `json:"phone_number" conform:"trim"`
	ProfilePicture *string `json:"profile_picture" conform:"trim"`
	Location       *string `json:"location" conform:"trim"`
	FCMToken       *string `json:"fcm_token" conform:"trim"`
}

type ProfileResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	ProfilePicture string `json:"profile_picture"`
	Location       string `json:"location"`
	FCMToken       string `json:"fcm_token"`
}

func (u *User) Profile() *ProfileResponse {
	return &ProfileResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		ProfilePicture: u.ProfilePicture,
		Location:       u.Location,
		FCMToken:       u.FCMToken,
	}
}

func (u *User) AsSender() Sender {
	return Sender{ID: u.ID, Username: u.Username}
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(8, errors.New("password cant be less than 8 characters")),
		goval.MaxLength(128, errors.New("password cant be more than 128 characters")))
	return passwordValidator.Validate(password)
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(hashed)
	return nil
}
