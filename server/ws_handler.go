package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/techagentng/marketplace/logging"
)

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := strings.TrimSpace(s.Config.AccessControlAllowOrigin)
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed == "" || allowed == "*" {
				return true
			}
			for _, o := range strings.Split(allowed, ",") {
				if strings.EqualFold(strings.TrimSpace(o), origin) {
					return true
				}
			}
			return false
		},
	}
}

// handleChatSocket joins the caller to a room they take part in and hands the
// connection to the relay.
func (s *Server) handleChatSocket() gin.HandlerFunc {
	upgrader := s.upgrader()
	return func(c *gin.Context) {
		user, _ := currentUser(c)
		roomID, ok := idParam(c, "room_id")
		if !ok {
			return
		}
		if _, err := s.Relay.Authorize(roomID, user); err != nil {
			respondErr(c, err)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logging.Warn().Err(err).Uint("room_id", roomID).Msg("websocket upgrade")
			return
		}
		if err := s.Relay.Serve(c.Request.Context(), ws, user, roomID); err != nil {
			logging.Error().Err(err).Uint("room_id", roomID).Uint("user_id", user.ID).Msg("chat relay")
		}
	}
}
