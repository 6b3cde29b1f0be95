package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/stringify/pkg/auth"
)

const SessionIDKey = "sessionID"

// ConnectTokenMiddleware admits a websocket handshake only when its connect
// token was issued for the session named by the :chatId path parameter.
func ConnectTokenMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID, err := uuid.Parse(c.Param("chatId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
			return
		}

		token, err := auth.ExtractToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		sessionID, err := jwtManager.SessionID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if sessionID != chatID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token was issued for another meeting"})
			return
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}
