package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	"github.com/techagentng/marketplace/db/dbtest"
	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/pubsub"
	"github.com/techagentng/marketplace/relay"
	"github.com/techagentng/marketplace/services"
	"github.com/techagentng/marketplace/services/jwt"
)

const testSecret = "test-secret"

type testApp struct {
	g       *db.GormDB
	server  *Server
	handler http.Handler
	broker  *pubsub.MemoryBroker
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	g := dbtest.New(t)
	conf := &config.Config{Env: "test", JWTSecret: testSecret, PageSize: 20, RateLimit: 1000}
	for _, opt := range opts {
		opt(conf)
	}

	broker := pubsub.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	userRepo := db.NewUserRepo(g)
	listingRepo := db.NewListingRepo(g)
	notifications := services.NewNotificationService(db.NewNotificationRepo(g), conf)
	chat := services.NewChatService(db.NewChatRepo(g), listingRepo, relay.NewPublisher(broker), notifications, conf)

	s := &Server{
		Config:              conf,
		DB:                  g,
		UserRepository:      userRepo,
		UserService:         services.NewUserService(userRepo, conf),
		ListingService:      services.NewListingService(listingRepo, notifications, conf),
		ChatService:         chat,
		NotificationService: notifications,
		MediaService:        services.NewMediaService(nil, conf),
		Relay:               relay.New(broker, chat),
	}
	return &testApp{g: g, server: s, handler: s.Handler(), broker: broker}
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := jwt.GenerateToken(u.ID, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

type result struct {
	Code int
	Body map[string]any
}

func (r result) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func (r result) list() []any {
	l, _ := r.Body["data"].([]any)
	return l
}

func (a *testApp) do(t *testing.T, method, path string, user *models.User, body any) result {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	res := result{Code: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Body), w.Body.String())
	}
	return res
}

func path(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func wsURL(srv *httptest.Server, p string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + p
}
