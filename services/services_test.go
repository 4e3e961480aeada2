package services

import (
	"context"
	"sync"
	"testing"

	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	"github.com/techagentng/marketplace/db/dbtest"
	"github.com/techagentng/marketplace/models"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*models.Message
	err      error
}

func (p *recordingPublisher) PublishMessage(_ context.Context, msg *models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) published() []*models.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.Message(nil), p.messages...)
}

type fixture struct {
	db            *db.GormDB
	conf          *config.Config
	publisher     *recordingPublisher
	notifications NotificationService
	listings      ListingService
	chat          ChatService
	users         UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := dbtest.New(t)
	conf := &config.Config{PageSize: 20, JWTSecret: "secret"}
	pub := &recordingPublisher{}
	notifications := NewNotificationService(db.NewNotificationRepo(g), conf)
	listingRepo := db.NewListingRepo(g)
	return &fixture{
		db:            g,
		conf:          conf,
		publisher:     pub,
		notifications: notifications,
		listings:      NewListingService(listingRepo, notifications, conf),
		chat:          NewChatService(db.NewChatRepo(g), listingRepo, pub, notifications, conf),
		users:         NewUserService(db.NewUserRepo(g), conf),
	}
}

func viewer(u *models.User) models.Viewer {
	return models.Viewer{UserID: &u.ID, IsStaff: u.IsStaff}
}
