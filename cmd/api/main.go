package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/studyverse/backend/internal/config"
	"github.com/emilythestrangee/studyverse/backend/internal/database"
	"github.com/emilythestrangee/studyverse/backend/internal/handlers"
	"github.com/emilythestrangee/studyverse/backend/internal/ratelimit"
	"github.com/emilythestrangee/studyverse/backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if gin.Mode() == gin.ReleaseMode {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := newLogger(cfg.LogLevel)

	if err := handlers.RegisterValidators(); err != nil {
		log.WithError(err).Fatal("register validators")
	}

	db, err := database.New(cfg.DB.DSN(), log)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("close database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, vote rate limiting fails open until it recovers")
		}
		limiter = ratelimit.NewRedisLimiter(client)
	} else {
		log.Info("REDIS_ADDR not set, vote rate limiting disabled")
	}

	srv := server.New(cfg, db, limiter, log).HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
		return
	}
	log.Info("server exited")
}
