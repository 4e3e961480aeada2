package models

// ChatRoom is the conversation between one buyer and a listing's seller.
// (ListingID, BuyerID) is unique.
type ChatRoom struct {
	Model
	ListingID uint      `gorm:"uniqueIndex:idx_chat_room_listing_buyer;not null" json:"-"`
	Listing   Listing   `gorm:"constraint:OnDelete:CASCADE" json:"listing"`
	BuyerID   uint      `gorm:"uniqueIndex:idx_chat_room_listing_buyer;not null" json:"-"`
	Buyer     User      `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"buyer"`
	SellerID  uint      `gorm:"not null;index" json:"-"`
	Seller    User      `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"seller"`
	Messages  []Message `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (r *ChatRoom) HasParticipant(userID uint) bool {
	return r.BuyerID == userID || r.SellerID == userID
}

// OtherParticipant returns the id of the participant who is not userID.
func (r *ChatRoom) OtherParticipant(userID uint) uint {
	if r.BuyerID == userID {
		return r.SellerID
	}
	return r.BuyerID
}

type ChatRoomSummary struct {
	ChatRoom
	LastMessage *Message `json:"last_message"`
	UnreadCount int64    `json:"unread_count"`
}

type CreateOrGetRoomRequest struct {
	ListingID uint `json:"listing_id" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required" conform:"trim"`
}
