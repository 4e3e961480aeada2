package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/metrics"
	"github.com/techagentng/marketplace/models"
	"gorm.io/gorm"
)

// Where a chat message entered the system.
const (
	SourceREST      = "rest"
	SourceWebSocket = "websocket"
)

const notificationPreviewLen = 100

var (
	ErrRoomNotFound   = errs.New("chat room not found", http.StatusNotFound)
	ErrNotParticipant = errs.New("you are not a participant of this chat", http.StatusForbidden)
	ErrEmptyMessage   = &errs.Error{
		Message: "validation failed",
		Status:  http.StatusBadRequest,
		Fields:  map[string]string{"content": "this field is required"},
	}
)

// MessagePublisher fans a stored message out to the room's live connections.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
}

type ChatService interface {
	ListRooms(userID uint) ([]models.ChatRoomSummary, error)
	GetRoom(roomID, userID uint) (*models.ChatRoom, error)
	CreateOrGetRoom(listingID, buyerID uint) (*models.ChatRoom, bool, error)
	// AuthorizeParticipant returns the room if userID is its buyer or seller.
	AuthorizeParticipant(roomID, userID uint) (*models.ChatRoom, error)
	// SendMessage persists content from sender and publishes it to the room.
	SendMessage(ctx context.Context, roomID uint, sender *models.User, content, source string) (*models.Message, error)
	MarkRead(roomID, userID uint) (int64, error)
}

type chatService struct {
	Config        *config.Config
	chatRepo      db.ChatRepository
	listingRepo   db.ListingRepository
	publisher     MessagePublisher
	notifications NotificationService
}

func NewChatService(chatRepo db.ChatRepository, listingRepo db.ListingRepository, publisher MessagePublisher, notifications NotificationService, conf *config.Config) ChatService {
	return &chatService{
		Config:        conf,
		chatRepo:      chatRepo,
		listingRepo:   listingRepo,
		publisher:     publisher,
		notifications: notifications,
	}
}

func (s *chatService) ListRooms(userID uint) ([]models.ChatRoomSummary, error) {
	rooms, err := s.chatRepo.ListRoomsForUser(userID)
	if err != nil {
		logging.Error().Err(err).Uint("user_id", userID).Msg("list chat rooms")
		return nil, errs.ErrInternalServerError
	}
	return rooms, nil
}

func (s *chatService) AuthorizeParticipant(roomID, userID uint) (*models.ChatRoom, error) {
	room, err := s.chatRepo.FindRoomByID(roomID)
	if err != nil {
		return nil, notFoundOr500(err, ErrRoomNotFound)
	}
	if !room.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return room, nil
}

func (s *chatService) GetRoom(roomID, userID uint) (*models.ChatRoom, error) {
	room, err := s.chatRepo.FindRoomWithMessages(roomID)
	if err != nil {
		return nil, notFoundOr500(err, ErrRoomNotFound)
	}
	if !room.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return room, nil
}

func (s *chatService) CreateOrGetRoom(listingID, buyerID uint) (*models.ChatRoom, bool, error) {
	if listingID == 0 {
		return nil, false, &errs.Error{
			Message: "listing_id is required",
			Status:  http.StatusBadRequest,
			Fields:  map[string]string{"listing_id": "this field is required"},
		}
	}
	listing, err := s.listingRepo.FindListingByID(listingID)
	if err != nil {
		return nil, false, notFoundOr500(err, ErrListingNotFound)
	}
	if listing.SellerID == buyerID {
		return nil, false, errs.New("cannot chat with yourself", http.StatusBadRequest)
	}

	room, created, err := s.chatRepo.GetOrCreateRoom(listing.ID, buyerID, listing.SellerID)
	if err != nil {
		logging.Error().Err(err).Uint("listing_id", listingID).Uint("user_id", buyerID).Msg("get or create chat room")
		return nil, false, errs.ErrInternalServerError
	}
	if created {
		logging.Info().Uint("room_id", room.ID).Uint("listing_id", listingID).Msg("chat room created")
	}

	detail, err := s.chatRepo.FindRoomWithMessages(room.ID)
	if err != nil {
		return nil, false, notFoundOr500(err, ErrRoomNotFound)
	}
	return detail, created, nil
}

func (s *chatService) SendMessage(ctx context.Context, roomID uint, sender *models.User, content, source string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	room, err := s.AuthorizeParticipant(roomID, sender.ID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{ChatRoomID: room.ID, SenderID: sender.ID, Content: content}
	if err := s.chatRepo.CreateMessage(msg); err != nil {
		logging.Error().Err(err).Uint("room_id", roomID).Uint("user_id", sender.ID).Msg("persist message")
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, errs.New("unable to save message", http.StatusBadRequest)
		}
		return nil, errs.ErrInternalServerError
	}
	metrics.RecordChatMessage(source)

	// The message is stored; a dropped client must not stop the broadcast.
	ctx = context.WithoutCancel(ctx)
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, msg); err != nil {
			logging.Error().Err(err).Uint("room_id", roomID).Uint("message_id", msg.ID).Msg("publish message")
		}
	}
	s.notifyRecipient(room, sender, content)
	return msg, nil
}

func (s *chatService) notifyRecipient(room *models.ChatRoom, sender *models.User, content string) {
	if s.notifications == nil {
		return
	}
	preview := content
	if utf8.RuneCountInString(preview) > notificationPreviewLen {
		preview = string([]rune(preview)[:notificationPreviewLen]) + "..."
	}
	listingID := room.ListingID
	title := fmt.Sprintf("New message from %s", sender.Username)
	if err := s.notifications.Notify(room.OtherParticipant(sender.ID), models.NotificationMessage, title, preview, &listingID); err != nil {
		logging.Warn().Err(err).Uint("room_id", room.ID).Msg("message notification")
	}
}

func (s *chatService) MarkRead(roomID, userID uint) (int64, error) {
	if _, err := s.AuthorizeParticipant(roomID, userID); err != nil {
		return 0, err
	}
	n, err := s.chatRepo.MarkRead(roomID, userID)
	if err != nil {
		logging.Error().Err(err).Uint("room_id", roomID).Msg("mark messages read")
		return 0, errs.ErrInternalServerError
	}
	return n, nil
}
