package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/server/response"
	"github.com/techagentng/marketplace/services"
)

func (s *Server) handleListChatRooms() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		rooms, err := s.ChatService.ListRooms(user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Chat rooms retrieved successfully", http.StatusOK, rooms, nil)
	}
}

func (s *Server) handleGetChatRoom() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		room, err := s.ChatService.GetRoom(id, user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Chat room retrieved successfully", http.StatusOK, room, nil)
	}
}

// handleCreateOrGetRoom answers 201 for a new room and 200 for an existing one.
func (s *Server) handleCreateOrGetRoom() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		var req models.CreateOrGetRoomRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		room, created, err := s.ChatService.CreateOrGetRoom(req.ListingID, user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if created {
			response.JSON(c, "Chat room created", http.StatusCreated, room, nil)
			return
		}
		response.JSON(c, "Chat room retrieved", http.StatusOK, room, nil)
	}
}

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req models.SendMessageRequest
		if err := decode(c, &req); err != nil {
			respondErr(c, err)
			return
		}
		msg, err := s.ChatService.SendMessage(c.Request.Context(), id, user, req.Content, services.SourceREST)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Message sent", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleMarkRoomRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		n, err := s.ChatService.MarkRead(id, user.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "Messages marked as read", http.StatusOK, gin.H{"updated": n}, nil)
	}
}
