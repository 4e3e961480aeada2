package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/metrics"
	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/server/response"
	"github.com/techagentng/marketplace/services/jwt"
	"gorm.io/gorm"
)

// Authorize rejects requests without a valid bearer token.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}
		if !s.authenticate(c, accessToken) {
			return
		}
		c.Next()
	}
}

// OptionalAuthorize identifies the caller when a token is sent and lets
// anonymous requests through.
func (s *Server) OptionalAuthorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if accessToken := getTokenFromHeader(c); accessToken != "" {
			if !s.authenticate(c, accessToken) {
				return
			}
		}
		c.Next()
	}
}

// AuthorizeWebSocket accepts the token as a "token" query parameter, since
// browsers cannot set headers on a websocket handshake.
func (s *Server) AuthorizeWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := c.Query("token")
		if accessToken == "" {
			accessToken = getTokenFromHeader(c)
		}
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}
		if !s.authenticate(c, accessToken) {
			return
		}
		c.Next()
	}
}

// authenticate validates the token and stores the user on the context. It
// aborts the request and returns false on failure.
func (s *Server) authenticate(c *gin.Context, accessToken string) bool {
	claims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
	if err != nil {
		respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
		return false
	}
	userID, err := jwt.UserIDFromClaims(claims)
	if err != nil {
		respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("Invalid userID format", http.StatusBadRequest))
		return false
	}

	user, err := s.UserRepository.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.New(err.Error(), http.StatusUnauthorized))
			return false
		}
		respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
		return false
	}

	c.Set("user", user)
	c.Set("userID", userID)
	c.Set("access_token", accessToken)
	c.Set("username", user.Username)
	return true
}

// getTokenFromHeader returns the token string in the authorization header
func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

const defaultRateLimit = 60

// limitRate throttles write-heavy endpoints per user, falling back to the
// client IP for anonymous callers. Without a shared store each call gets its
// own in-memory store sized from Config.RateLimit.
func (s *Server) limitRate() gin.HandlerFunc {
	store := s.RateLimitStore
	if store == nil {
		limit := s.Config.RateLimit
		if limit == 0 {
			limit = defaultRateLimit
		}
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: limit,
		})
	}
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFunc,
	})
}

func keyFunc(c *gin.Context) string {
	if id, ok := c.Get("userID"); ok {
		if userID, ok := id.(uint); ok {
			return "user:" + strconv.FormatUint(uint64(userID), 10)
		}
	}
	return "ip:" + c.ClientIP()
}

// RequestLogger writes one structured line per request and records its
// metrics under the matched route.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordRequest(c.Request.Method, c.FullPath(), status, latency)

		ev := logging.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = logging.Error()
		case status >= http.StatusBadRequest:
			ev = logging.Warn()
		}
		ev = ev.Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("user_agent", c.Request.UserAgent())
		if id, ok := c.Get("userID"); ok {
			if userID, ok := id.(uint); ok {
				ev = ev.Uint("user_id", userID)
			}
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			ev = ev.Str("error", msg)
		}
		ev.Msg("request")
	}
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// viewerFromContext describes the caller for listing visibility.
func viewerFromContext(c *gin.Context) models.Viewer {
	user, ok := currentUser(c)
	if !ok {
		return models.Viewer{}
	}
	id := user.ID
	return models.Viewer{UserID: &id, IsStaff: user.IsStaff}
}
