package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/suteetoe/salesbot/gomicro/config"
	"github.com/suteetoe/salesbot/gomicro/database"
	"github.com/suteetoe/salesbot/gomicro/jwtutil"
	"github.com/suteetoe/salesbot/gomicro/logger"
	"github.com/suteetoe/salesbot/gomicro/metrics"
	"github.com/suteetoe/salesbot/gomicro/middleware"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/handler"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/lock"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/onboarding"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/processor"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/store"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	conf, err := config.Load("chatbot")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Configuration loaded", conf.LogConfig()...)

	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(model.Models()...); err != nil {
		log.Fatal("Failed to migrate database models", zap.Error(err))
	}

	profile, err := onboarding.LoadProfile(conf.Onboarding.ProfilePath)
	if err != nil {
		log.Fatal("Failed to load onboarding profile", zap.Error(err))
	}

	var locker onboarding.Locker
	if conf.Redis.Enabled {
		rdb, err := lock.NewRedisClient(conf.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, conf.Redis.LockTTL)
		log.Info("Using redis onboarding lock", zap.String("addr", conf.Redis.Addr))
	} else {
		locker = lock.NewLocalLocker()
		log.Info("Using in-process onboarding lock")
	}

	users := store.NewUserStore(db)
	orchestrator, err := onboarding.NewOrchestrator(
		processor.NewStripeProcessor(conf.Stripe, log.Named("stripe")),
		users,
		store.NewAttemptStore(db, store.DefaultStaleAfter),
		locker,
		profile,
	)
	if err != nil {
		log.Fatal("Failed to build onboarding orchestrator", zap.Error(err))
	}
	orchestrator.WithCompensationTimeout(conf.Onboarding.CompensationTimeout)

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: conf.JWT.SigningKey})

	httpMetrics := metrics.NewHTTPMetrics(conf.ServiceName, metrics.PrefixedRegisterer(conf.Metrics.Prefix, nil))

	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	handler.Routes{
		JWT:     jwt,
		Users:   users,
		Connect: handler.NewConnectHandler(orchestrator, conf.Onboarding.RequestTimeout),
		Domains: handler.NewDomainHandler(store.NewDomainStore(db)),
	}.Register(e)

	go func() {
		log.Info("Starting chatbot-service on port " + conf.Server.Port)
		if err := e.Start(":" + conf.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// let in-flight onboarding runs finish their compensation
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("chatbot-service stopped")
}
