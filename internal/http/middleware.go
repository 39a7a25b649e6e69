package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tips-service/internal/policy"
)

const actorIDKey = "actor_id"

// requireAuth resolves the bearer token to a live account id. Account state
// is judged by the services on every call, not here.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format: expected 'Bearer <token>'"})
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		account, err := h.accounts.Authenticate(c.Request.Context(), token)
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(actorIDKey, account.ID)
		c.Next()
	}
}

// requireAction rejects the request before its body is read unless the
// actor may perform action.
func (h *Handler) requireAction(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.accounts.Authorize(c.Request.Context(), actorID(c), action); err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func actorID(c *gin.Context) string {
	return c.GetString(actorIDKey)
}

func (h *Handler) auditLog(c *gin.Context, targetID string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"actor_id":  actorID(c),
		"target_id": targetID,
	})
}
