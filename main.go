package main

import (
	"context"
	"log"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/redis/go-redis/v9"
	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/pubsub"
	"github.com/techagentng/marketplace/relay"
	"github.com/techagentng/marketplace/server"
	"github.com/techagentng/marketplace/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logging.Init(conf.LogLevel, conf.LogFormat)

	gormDB := db.GetDB(conf)
	userRepo := db.NewUserRepo(gormDB)
	listingRepo := db.NewListingRepo(gormDB)
	chatRepo := db.NewChatRepo(gormDB)
	notificationRepo := db.NewNotificationRepo(gormDB)

	ctx := context.Background()

	var redisClient *redis.Client
	var rateLimitStore ratelimit.Store
	if conf.Broker == "redis" {
		redisClient = pubsub.NewRedisClient(conf)
		rateLimitStore = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        time.Minute,
			Limit:       conf.RateLimit,
		})
	}

	broker, err := pubsub.Open(ctx, conf, redisClient)
	if err != nil {
		logging.Fatal().Err(err).Str("broker", conf.Broker).Msg("unable to open broker")
	}
	defer broker.Close()

	var uploader services.Uploader
	if conf.AWSBucket != "" {
		s3Uploader, err := services.NewS3Uploader(ctx, conf)
		if err != nil {
			logging.Fatal().Err(err).Msg("unable to configure s3")
		}
		uploader = s3Uploader
	} else {
		logging.Warn().Msg("no aws bucket configured, image uploads are disabled")
	}

	notificationService := services.NewNotificationService(notificationRepo, conf)
	chatService := services.NewChatService(chatRepo, listingRepo, relay.NewPublisher(broker), notificationService, conf)

	s := &server.Server{
		Config:              conf,
		DB:                  gormDB,
		UserRepository:      userRepo,
		UserService:         services.NewUserService(userRepo, conf),
		ListingService:      services.NewListingService(listingRepo, notificationService, conf),
		ChatService:         chatService,
		NotificationService: notificationService,
		MediaService:        services.NewMediaService(uploader, conf),
		Relay:               relay.New(broker, chatService),
		RateLimitStore:      rateLimitStore,
	}
	if err := s.Start(); err != nil {
		logging.Error().Err(err).Msg("server stopped")
	}
}
