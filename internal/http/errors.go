package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tips-service/internal/service"
)

// errorCase maps a sentinel error to an HTTP status code and response message.
type errorCase struct {
	err     error
	status  int
	message string
}

// Wrapped forbidden reasons precede ErrForbidden so the specific text wins.
var errorCases = []errorCase{
	{service.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{service.ErrAccountDeactivated, http.StatusForbidden, "account is deactivated"},
	{service.ErrAccountBlocked, http.StatusForbidden, "account is blocked"},
	{service.ErrNotAdmin, http.StatusForbidden, "admin privileges required"},
	{service.ErrNotOwner, http.StatusForbidden, "not allowed to modify this resource"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrNotFound, http.StatusNotFound, "not found"},
	{service.ErrConflict, http.StatusConflict, "username or email already exists"},
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	}

	for _, cs := range errorCases {
		if errors.Is(err, cs.err) {
			c.JSON(cs.status, gin.H{"error": cs.message})
			return
		}
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"method":   c.Request.Method,
		"path":     c.FullPath(),
		"actor_id": actorID(c),
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
