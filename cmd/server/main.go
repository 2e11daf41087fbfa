package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	notifservice "inventory-backend/internal/apps/notification/service"
	otphandler "inventory-backend/internal/apps/otp/handler"
	otprepository "inventory-backend/internal/apps/otp/repository"
	otpservice "inventory-backend/internal/apps/otp/service"
	producthandler "inventory-backend/internal/apps/product/handler"
	productmodels "inventory-backend/internal/apps/product/models"
	productrepository "inventory-backend/internal/apps/product/repository"
	productservice "inventory-backend/internal/apps/product/service"
	reporthandler "inventory-backend/internal/apps/report/handler"
	reportservice "inventory-backend/internal/apps/report/service"
	userhandler "inventory-backend/internal/apps/user/handler"
	usermodels "inventory-backend/internal/apps/user/models"
	userrepository "inventory-backend/internal/apps/user/repository"
	userservice "inventory-backend/internal/apps/user/service"
	"inventory-backend/internal/common/config"
	"inventory-backend/internal/common/database"
	"inventory-backend/internal/common/logger"
	"inventory-backend/internal/common/middleware"
	"inventory-backend/pkg/secure"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("config_load_failed", slog.String("reason", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server_exited", slog.String("reason", err.Error()))
		os.Exit(1)
	}
}

func newOTPStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (otprepository.Store, func(), error) {
	if cfg.OTPStore != "redis" {
		log.Info("otp_store_selected", slog.String("backend", "memory"), slog.Int("shards", cfg.OTPStoreShards))
		return otprepository.NewMemoryStore(cfg.OTPStoreShards), func() {}, nil
	}

	client, err := otprepository.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("otp_store_selected", slog.String("backend", "redis"), slog.String("addr", cfg.RedisAddr))
	return otprepository.NewRedisStore(client), func() { _ = client.Close() }, nil
}

func newNotifier(cfg *config.Config, log *slog.Logger) notifservice.Notifier {
	if !cfg.MailEnabled() {
		log.Warn("mail_disabled", slog.String("reason", "SMTP_USERNAME or SMTP_PASSWORD not set"))
		return notifservice.NewNoOpNotifier(log)
	}
	return notifservice.NewSMTPMailer(notifservice.MailerConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.Sender(),
		Timeout:  cfg.SMTPTimeout,
	}, log)
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("database_close_failed", slog.String("reason", err.Error()))
		}
	}()

	if err := database.Migrate(db, &productmodels.Product{}, &usermodels.User{}); err != nil {
		return err
	}

	store, closeStore, err := newOTPStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier := newNotifier(cfg, log)
	dispatcher := notifservice.NewDispatcher(notifier, cfg.MailWorkers, cfg.MailQueueSize, log)
	dispatcher.Start(ctx)

	verifier := otpservice.NewVerifier(store, dispatcher, log, otpservice.WithWindow(cfg.OTPValidity))
	sweeper := otpservice.NewSweeper(store, cfg.OTPValidity, cfg.OTPSweepInterval, log)
	tokens := secure.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	productRepo := productrepository.NewProductRepository(db)
	productService := productservice.NewProductService(productRepo, log)
	reportService := reportservice.NewReportService(productRepo, notifier, log)
	userService := userservice.NewUserService(userrepository.NewUserRepository(db), verifier, tokens, cfg.BcryptCost, log,
		userservice.WithAdminEmails(cfg.AdminEmailList()...))

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	corsMiddleware, err := middleware.SetupCORS(cfg.Env, cfg.CORSAllowedOrigins)
	if err != nil {
		return err
	}
	router.Use(corsMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Server is running",
		})
	})

	v1 := router.Group("/api/v1")
	authed := v1.Group("", middleware.RequireAuth(tokens))
	admin := authed.Group("", middleware.RequireRole(usermodels.RoleAdmin))
	{
		otphandler.RegisterOTPRoutes(v1, otphandler.NewEmailOTPHandler(verifier, log))
		userhandler.RegisterUserRoutes(v1, admin, userhandler.NewUserHandler(userService, log))
		producthandler.RegisterProductRoutes(authed, admin, producthandler.NewProductHandler(productService, log))
		reporthandler.RegisterReportRoutes(admin, reporthandler.NewReportHandler(reportService, log))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server_starting", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
