package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filevault/internal/common"
	"filevault/internal/server/auth"
	"filevault/internal/server/models"
)

const userIDKey = "userID"

// corsMiddleware sets permissive CORS headers and short-circuits preflight
// requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept-Language, Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// authMiddleware resolves the bearer token to a user id and stores it on the
// request context. Missing, malformed and expired tokens all yield the same
// 401 so the failure cause is not observable.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			abortWithError(c, common.ErrInvalidToken)
			return
		}

		rawID, err := auth.GetUserIDFromToken(header[7:], s.jwtSecret)
		if err != nil {
			abortWithError(c, common.ErrInvalidToken)
			return
		}

		userID, err := models.ParseUserID(rawID)
		if err != nil {
			abortWithError(c, common.ErrInvalidToken)
			return
		}

		// The account must still exist; a token minted for a vanished user
		// is as good as no token.
		if _, err := s.users.GetByID(c.Request.Context(), userID); err != nil {
			abortWithError(c, common.ErrInvalidToken)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// callerID returns the authenticated identity stored by authMiddleware.
func callerID(c *gin.Context) (models.UserID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(models.UserID)
	return id, ok
}
