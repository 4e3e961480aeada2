package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() *gin.Engine {
	if s.Config.Env == "test" {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(gin.Recovery())
		s.defineRoutes(r)
		return r
	}
	if s.Config.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger())
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := strings.TrimSpace(s.Config.AccessControlAllowOrigin); origins == "" || origins == "*" {
		corsConfig.AllowCredentials = false
		corsConfig.AllowAllOrigins = true
	} else {
		for _, o := range strings.Split(origins, ",") {
			corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, strings.TrimSpace(o))
		}
	}
	r.Use(cors.New(corsConfig))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	limitRate := s.limitRate()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "marketplace-api"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apirouter := router.Group("/api")
	apirouter.POST("/auth/register", s.handleRegister())

	open := apirouter.Group("/")
	open.Use(s.OptionalAuthorize())
	open.GET("/listings/categories", s.handleListCategories())
	open.GET("/listings", s.handleListListings())
	open.GET("/listings/:id", s.handleGetListing())
	open.GET("/listings/:id/similar", s.handleSimilarListings())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/auth/profile", s.handleShowProfile())
	authorized.PATCH("/auth/profile", s.handleEditUserProfile())
	authorized.POST("/auth/profile/picture", s.handleUpdateProfilePicture())

	authorized.POST("/listings", s.handleCreateListing())
	authorized.GET("/listings/favorites", s.handleListFavorites())
	authorized.GET("/listings/mine", s.handleMyListings())
	authorized.PUT("/listings/:id", s.handleUpdateListing())
	authorized.PATCH("/listings/:id", s.handleUpdateListing())
	authorized.DELETE("/listings/:id", s.handleDeleteListing())
	authorized.PATCH("/listings/:id/status", s.handleUpdateListingStatus())
	authorized.POST("/listings/:id/favorite", s.handleFavorite())
	authorized.DELETE("/listings/:id/favorite", s.handleUnfavorite())
	authorized.POST("/listings/:id/report", s.handleReportListing())
	authorized.POST("/listings/:id/images", s.handleUploadListingImage())

	authorized.GET("/chat", s.handleListChatRooms())
	authorized.POST("/chat/create_or_get", limitRate, s.handleCreateOrGetRoom())
	authorized.GET("/chat/:id", s.handleGetChatRoom())
	authorized.POST("/chat/:id/send_message", limitRate, s.handleSendMessage())
	authorized.POST("/chat/:id/mark_read", s.handleMarkRoomRead())

	authorized.GET("/notifications", s.handleListNotifications())
	authorized.GET("/notifications/unread_count", s.handleUnreadNotificationCount())
	authorized.POST("/notifications/mark_all_read", s.handleMarkAllNotificationsRead())
	authorized.POST("/notifications/:id/mark_read", s.handleMarkNotificationRead())

	ws := router.Group("/ws")
	ws.Use(s.AuthorizeWebSocket())
	ws.GET("/chat/:room_id", s.handleChatSocket())
}
