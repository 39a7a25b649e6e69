package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tips-service/internal/policy"
	"tips-service/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts service.AccountService
	games    service.GameService
	stats    service.StatsService
	logger   *logrus.Logger
	now      func() time.Time
}

func NewHandler(accounts service.AccountService, games service.GameService, stats service.StatsService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		accounts: accounts,
		games:    games,
		stats:    stats,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		auth := api.Group("/auth")
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)

		secured := api.Group("", h.requireAuth())
		secured.GET("/me", h.me)
		secured.POST("/me/password", h.changePassword)
		secured.GET("/games", h.listGames)
		secured.GET("/games/:id", h.getGame)

		admin := secured.Group("/admin")
		admin.GET("/users", h.requireAction(policy.ActionListUsers), h.listUsers)
		admin.GET("/stats", h.requireAction(policy.ActionViewStats), h.adminStats)
		admin.POST("/users/:id/vip", h.requireAction(policy.ActionGrantVIP), h.grantVIP)
		admin.DELETE("/users/:id/vip", h.requireAction(policy.ActionRevokeVIP), h.revokeVIP)
		admin.POST("/users/:id/block", h.requireAction(policy.ActionBlock), h.block)
		admin.DELETE("/users/:id/block", h.requireAction(policy.ActionUnblock), h.unblock)
		admin.POST("/users/:id/temp-password", h.requireAction(policy.ActionIssueTempPassword), h.tempPassword)
		admin.POST("/games", h.requireAction(policy.ActionCreateGame), h.createGame)
		admin.PUT("/games/:id", h.requireAction(policy.ActionUpdateGame), h.updateGame)
		admin.PUT("/games/:id/result", h.requireAction(policy.ActionUpdateGame), h.setResult)
		admin.DELETE("/games/:id", h.requireAction(policy.ActionDeleteGame), h.deleteGame)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.WithField("account_id", res.Account.ID).Info("account registered")
	c.JSON(http.StatusCreated, h.authToResponse(res))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.authToResponse(res))
}

func (h *Handler) me(c *gin.Context) {
	account, err := h.accounts.GetSelf(c.Request.Context(), actorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.accountToResponse(*account))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), actorID(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listGames(c *gin.Context) {
	games, err := h.games.ListGames(c.Request.Context(), actorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]GameResponse, len(games))
	for i := range games {
		resp[i] = gameToResponse(games[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getGame(c *gin.Context) {
	game, err := h.games.GetGame(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameToResponse(*game))
}
