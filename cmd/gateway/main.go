package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"legalaid-admin/config"
	"legalaid-admin/internal/gateway"
	"legalaid-admin/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	state := gateway.NewState()
	admin, err := state.SeedAdmin(cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}
	state.SeedDemo()
	l.Infof("seeded admin account %s (%s)", admin.Email, admin.ID)

	sessions := gateway.NewSessionService(cfg.JWTSecret, time.Duration(cfg.SessionExpiryMin)*time.Minute)

	var redisClient *goredis.Client
	var presence gateway.PresenceTracker
	if cfg.RedisHost != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
		})
		presence = gateway.NewRedisPresence(redisClient, 0)
		l.Infof("presence tracking via redis at %s:%s", cfg.RedisHost, cfg.RedisPort)
	} else {
		presence = gateway.NewMemoryPresence()
	}

	ctx := context.Background()

	var archive *gateway.Archive
	if cfg.DatabaseURL != "" {
		archive, err = gateway.NewArchive(ctx, cfg.DatabaseURL, l)
		if err != nil {
			log.Fatalf("Failed to open message archive: %v", err)
		}
		defer archive.Close()
		l.Infof("message archive enabled")
	}

	hub := gateway.NewHub()
	go hub.Run(ctx)

	var fanout *gateway.Fanout
	if redisClient != nil {
		fanout = gateway.NewFanout(redisClient, hub, l)
		go func() {
			if err := fanout.Run(ctx); err != nil && ctx.Err() == nil {
				l.Errorf("fanout subscriber stopped: %v", err)
			}
		}()
	}

	ws := gateway.NewWSHandler(hub, state, presence, sessions, archive, fanout, l)
	rest := gateway.NewRESTHandler(state, sessions, l)
	r := gateway.NewRouter(rest, ws, sessions, l)

	l.Infof("gateway listening on port %s", cfg.GatewayPort)
	if err := r.Run(":" + cfg.GatewayPort); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}
}
