package main

import (
	"fmt"
	"net/http"
	"time"

	"wardsync/app/handler"
	"wardsync/app/router"
	"wardsync/app/ws"
	"wardsync/internal/station"
	"wardsync/pkg/clock"
	"wardsync/pkg/config"
	"wardsync/pkg/logger"
	"wardsync/pkg/marker"
	"wardsync/pkg/scheduleapi"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		_ = logger.Sync()
	})
	return nil
}

// initRedis connects to redis for the reset marker store. Redis is
// optional: without it markers fall back to process memory, costing at
// most one extra reset after a restart.
func (app *Application) initRedis() error {
	if app.config.Redis.Addr == "" {
		logger.Warnf("Redis not configured, reset markers will not survive restarts")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.Redis.Addr,
		Password: app.config.Redis.Password,
		DB:       app.config.Redis.DB,
	})
	if err := client.Ping(app.ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.redisClient = client
	app.registerCleanup(func() {
		_ = client.Close()
	})
	return nil
}

// initUpstream creates the scheduling service client
func (app *Application) initUpstream() error {
	cfg := app.config.Upstream
	if cfg.BaseURL == "" {
		return fmt.Errorf("upstream base_url is required")
	}

	app.upstream = scheduleapi.NewClient(scheduleapi.Options{
		BaseURL:    cfg.BaseURL,
		StreamPath: cfg.StreamPath,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		RetryCount: cfg.RetryCount,
	})
	return nil
}

// initHub creates the viewer fan-out hub
func (app *Application) initHub() error {
	app.hub = ws.NewHub()
	return nil
}

// initStationManager creates the per-station engine supervisor
func (app *Application) initStationManager() error {
	var markers marker.Store
	if app.redisClient != nil {
		markers = marker.NewRedisStore(app.redisClient)
	} else {
		markers = marker.NewMemoryStore()
	}

	app.stationManager = station.NewManager(
		app.ctx,
		app.upstream,
		markers,
		app.hub,
		clock.System(),
		app.config.Engine,
	)
	return nil
}

// initHandlers creates the handler layer
func (app *Application) initHandlers() error {
	app.stationHandler = handler.NewStationHandler(app.stationManager)
	app.resetHandler = handler.NewResetHandler(app.stationManager)
	return nil
}

// initHTTPServer creates the gin engine and HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()
	router.Setup(app.ginEngine, app.stationHandler, app.resetHandler, app.hub)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}
