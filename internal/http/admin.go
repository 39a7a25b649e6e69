package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tips-service/internal/domain"
	"tips-service/internal/service"
)

func (h *Handler) listUsers(c *gin.Context) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context(), actorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]AccountResponse, len(accounts))
	for i := range accounts {
		resp[i] = h.accountToResponse(accounts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) adminStats(c *gin.Context) {
	stats, err := h.stats.AdminStats(c.Request.Context(), actorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsToResponse(stats))
}

type grantVIPRequest struct {
	DurationDays int `json:"duration_days"`
}

func (h *Handler) grantVIP(c *gin.Context) {
	var req grantVIPRequest
	// an empty body falls back to the configured default duration
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.accounts.GrantVIP(c.Request.Context(), actorID(c), c.Param("id"), req.DurationDays)
	h.respondTransition(c, "vip granted", account, err)
}

func (h *Handler) revokeVIP(c *gin.Context) {
	account, err := h.accounts.RevokeVIP(c.Request.Context(), actorID(c), c.Param("id"))
	h.respondTransition(c, "vip revoked", account, err)
}

func (h *Handler) block(c *gin.Context) {
	account, err := h.accounts.Block(c.Request.Context(), actorID(c), c.Param("id"))
	h.respondTransition(c, "account blocked", account, err)
}

func (h *Handler) unblock(c *gin.Context) {
	account, err := h.accounts.Unblock(c.Request.Context(), actorID(c), c.Param("id"))
	h.respondTransition(c, "account unblocked", account, err)
}

func (h *Handler) tempPassword(c *gin.Context) {
	targetID := c.Param("id")
	code, err := h.accounts.IssueTemporaryPassword(c.Request.Context(), actorID(c), targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.auditLog(c, targetID).Info("temporary password issued")
	c.JSON(http.StatusOK, TempPasswordResponse{
		AccountID:         targetID,
		TemporaryPassword: code,
	})
}

func (h *Handler) respondTransition(c *gin.Context, msg string, account *domain.Account, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.auditLog(c, account.ID).Info(msg)
	c.JSON(http.StatusOK, h.accountToResponse(*account))
}

func (h *Handler) createGame(c *gin.Context) {
	var req service.GameInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	game, err := h.games.CreateGame(c.Request.Context(), actorID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gameToResponse(*game))
}

func (h *Handler) updateGame(c *gin.Context) {
	var req service.GameInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	game, err := h.games.UpdateGame(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameToResponse(*game))
}

type setResultRequest struct {
	Result string `json:"result"`
}

func (h *Handler) setResult(c *gin.Context) {
	var req setResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	game, err := h.games.SetResult(c.Request.Context(), actorID(c), c.Param("id"), req.Result)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameToResponse(*game))
}

func (h *Handler) deleteGame(c *gin.Context) {
	if err := h.games.DeleteGame(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
