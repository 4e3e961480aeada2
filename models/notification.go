package models

const (
	NotificationMessage   = "message"
	NotificationOffer     = "offer"
	NotificationApproval  = "approval"
	NotificationRejection = "rejection"
)

// Notification represents notifications sent to users
type Notification struct {
	Model
	UserID           uint     `gorm:"not null;index" json:"-"`
	User             User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	NotificationType string   `gorm:"size:20;not null" json:"notification_type"`
	Title            string   `gorm:"size:255;not null" json:"title"`
	Message          string   `gorm:"type:text" json:"message"`
	ListingID        *uint    `json:"-"`
	Listing          *Listing `gorm:"constraint:OnDelete:CASCADE" json:"listing"`
	IsRead           bool     `gorm:"default:false;index" json:"is_read"`
}
