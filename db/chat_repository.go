package db

import (
	"time"

	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

type ChatRepository interface {
	GetOrCreateRoom(listingID, buyerID, sellerID uint) (*models.ChatRoom, bool, error)
	FindRoomByID(id uint) (*models.ChatRoom, error)
	FindRoomWithMessages(id uint) (*models.ChatRoom, error)
	ListRoomsForUser(userID uint) ([]models.ChatRoomSummary, error)
	CreateMessage(msg *models.Message) error
	MarkRead(roomID, readerID uint) (int64, error)
}

type chatRepo struct {
	DB *gorm.DB
}

func NewChatRepo(db *GormDB) ChatRepository {
	return &chatRepo{db.DB}
}

func withRoomRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Buyer").Preload("Seller").
		Preload("Listing.Seller").Preload("Listing.Category").
		Preload("Listing.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC, id ASC")
		})
}

// GetOrCreateRoom returns the room for (listing, buyer), creating it on first
// contact. created is false when the room already existed, including when a
// concurrent caller won the insert race.
func (r *chatRepo) GetOrCreateRoom(listingID, buyerID, sellerID uint) (*models.ChatRoom, bool, error) {
	room := &models.ChatRoom{}
	err := r.DB.Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).First(room).Error
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.Wrap(err, "find chat room")
	}

	room = &models.ChatRoom{ListingID: listingID, BuyerID: buyerID, SellerID: sellerID}
	err = r.DB.Omit("Listing", "Buyer", "Seller", "Messages").Create(room).Error
	if err == nil {
		return room, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, errors.Wrap(err, "create chat room")
	}

	room = &models.ChatRoom{}
	if err := r.DB.Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).First(room).Error; err != nil {
		return nil, false, errors.Wrap(err, "find chat room after conflict")
	}
	return room, false, nil
}

func (r *chatRepo) FindRoomByID(id uint) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	if err := r.DB.Scopes(withRoomRelations).First(room, id).Error; err != nil {
		return nil, errors.Wrapf(err, "find chat room %d", id)
	}
	return room, nil
}

func (r *chatRepo) FindRoomWithMessages(id uint) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := r.DB.Scopes(withRoomRelations).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Messages.Sender").
		First(room, id).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find chat room %d", id)
	}
	return room, nil
}

// ListRoomsForUser returns the caller's rooms, newest activity first, with
// each room's latest message and the count of unread messages from the other
// participant. Summaries take two grouped queries whatever the room count.
func (r *chatRepo) ListRoomsForUser(userID uint) ([]models.ChatRoomSummary, error) {
	var rooms []models.ChatRoom
	err := r.DB.Scopes(withRoomRelations).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").Order("id DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, errors.Wrap(err, "list chat rooms")
	}
	if len(rooms) == 0 {
		return []models.ChatRoomSummary{}, nil
	}

	roomIDs := make([]uint, len(rooms))
	for i, room := range rooms {
		roomIDs[i] = room.ID
	}

	// Message ids grow with created_at, so the highest id is the latest.
	var last []models.Message
	latest := r.DB.Model(&models.Message{}).Select("MAX(id)").
		Where("chat_room_id IN ?", roomIDs).Group("chat_room_id")
	if err := r.DB.Preload("Sender").Where("id IN (?)", latest).Find(&last).Error; err != nil {
		return nil, errors.Wrap(err, "last messages")
	}
	lastByRoom := make(map[uint]*models.Message, len(last))
	for i := range last {
		lastByRoom[last[i].ChatRoomID] = &last[i]
	}

	var counts []struct {
		ChatRoomID uint
		Unread     int64
	}
	err = r.DB.Model(&models.Message{}).
		Select("chat_room_id, COUNT(*) AS unread").
		Where("chat_room_id IN ? AND is_read = ? AND sender_id <> ?", roomIDs, false, userID).
		Group("chat_room_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Wrap(err, "unread counts")
	}
	unreadByRoom := make(map[uint]int64, len(counts))
	for _, c := range counts {
		unreadByRoom[c.ChatRoomID] = c.Unread
	}

	summaries := make([]models.ChatRoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, models.ChatRoomSummary{
			ChatRoom:    room,
			LastMessage: lastByRoom[room.ID],
			UnreadCount: unreadByRoom[room.ID],
		})
	}
	return summaries, nil
}

// CreateMessage stores msg, bumps the room's updated_at and loads the sender.
func (r *chatRepo) CreateMessage(msg *models.Message) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender").Create(msg).Error; err != nil {
			return errors.Wrap(err, "create message")
		}
		err := tx.Model(&models.ChatRoom{}).Where("id = ?", msg.ChatRoomID).
			UpdateColumn("updated_at", time.Now()).Error
		return errors.Wrap(err, "touch chat room")
	})
	if err != nil {
		return err
	}
	return errors.Wrap(r.DB.First(&msg.Sender, msg.SenderID).Error, "load sender")
}

// MarkRead flags every message in the room not written by readerID.
func (r *chatRepo) MarkRead(roomID, readerID uint) (int64, error) {
	res := r.DB.Model(&models.Message{}).
		Where("chat_room_id = ? AND sender_id <> ? AND is_read = ?", roomID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, errors.Wrap(res.Error, "mark messages read")
}
