package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tips-service/internal/config"
	apphttp "tips-service/internal/http"
	"tips-service/internal/repository/sqlite"
	"tips-service/internal/security"
	"tips-service/internal/service"
	"tips-service/internal/sweeper"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	} else {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountRepo := sqlite.NewAccountRepository(db)
	gameRepo := sqlite.NewGameRepository(db)

	if err := accountRepo.Init(ctx); err != nil {
		logger.Fatalf("init account repository: %v", err)
	}
	if err := gameRepo.Init(ctx); err != nil {
		logger.Fatalf("init game repository: %v", err)
	}

	tokens, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL(), nil)
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	accountService := service.NewAccountService(accountRepo, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, service.AccountOptions{
		DefaultVIPDays: cfg.VIP.DefaultDays,
	})
	gameService := service.NewGameService(accountRepo, gameRepo, nil)
	statsService := service.NewStatsService(accountRepo, gameRepo, nil)

	created, err := accountService.EnsureDefaultAdmin(ctx, service.BootstrapAdmin{
		Username: cfg.Bootstrap.AdminUsername,
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		logger.Fatalf("bootstrap admin: %v", err)
	}
	if created {
		logger.WithField("username", cfg.Bootstrap.AdminUsername).Warn("bootstrap admin created; change its password")
	}

	vipSweeper := sweeper.New(sweeper.Config{
		Interval: cfg.SweepInterval(),
		Logger:   logger,
	}, accountService)
	if err := vipSweeper.Start(ctx); err != nil {
		logger.Fatalf("start vip sweeper: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(accountService, gameService, statsService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	vipSweeper.Shutdown()

	logger.Info("bye")
}
