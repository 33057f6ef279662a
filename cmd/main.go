package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/careledger/auth-service/config"
	"github.com/careledger/auth-service/db"
	"github.com/careledger/auth-service/internal/auth/domain"
	"github.com/careledger/auth-service/internal/auth/handler"
	repo "github.com/careledger/auth-service/internal/auth/repository/postgres"
	"github.com/careledger/auth-service/internal/auth/service"
	"github.com/careledger/auth-service/internal/mailer"
	"github.com/careledger/auth-service/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWinSec)*time.Second)

	otpMailer, err := buildMailer(cfg, log)
	if err != nil {
		log.Error("failed to configure mailer", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := repo.NewPostgresRepository(dbPool)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.TokenLifetime)
	userService := service.NewUserService(userRepo, tokenService, otpMailer, log, cfg)
	authHandler := handler.NewAuthHandler(userService, tokenService, limiter, cfg, log)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendOrigin,
		AllowCredentials: cfg.FrontendOrigin != "*",
	}))
	app.Use(logger.New())

	handler.RegisterRoutes(app, authHandler)

	log.Info("server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildMailer(cfg *config.Config, log *slog.Logger) (domain.OtpMailer, error) {
	if cfg.SMTPHost == "" {
		if cfg.IsProduction() {
			return mailer.NewSMTPMailer(cfg) // surfaces the config error
		}
		log.Warn("SMTP not configured, OTP mails will be suppressed")
		return &suppressedMailer{log: log}, nil
	}
	return mailer.NewSMTPMailer(cfg)
}

// suppressedMailer stands in for SMTP in development. It never logs the
// code itself.
type suppressedMailer struct {
	log *slog.Logger
}

func (m *suppressedMailer) SendOtp(_ context.Context, toEmail, _ string) error {
	m.log.Info("OTP mail suppressed", slog.String("to", toEmail))
	return nil
}
