package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/marketplace/server/response"
)

func (s *Server) handleListNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		notifications, err := s.NotificationService.ListNotifications(user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Notifications retrieved successfully", http.StatusOK, notifications, nil)
	}
}

func (s *Server) handleMarkNotificationRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := s.NotificationService.MarkRead(id, user.ID); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Notification marked as read", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleMarkAllNotificationsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		n, err := s.NotificationService.MarkAllRead(user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "All notifications marked as read", http.StatusOK, gin.H{"updated": n}, nil)
	}
}

func (s *Server) handleUnreadNotificationCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		count, err := s.NotificationService.UnreadCount(user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Unread count retrieved", http.StatusOK, gin.H{"count": count}, nil)
	}
}
