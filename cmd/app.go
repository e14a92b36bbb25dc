package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"wardsync/app/handler"
	"wardsync/app/ws"
	"wardsync/internal/station"
	"wardsync/pkg/config"
	"wardsync/pkg/logger"
	"wardsync/pkg/scheduleapi"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Application manages the lifecycle of the entire application
type Application struct {
	// Infrastructure components
	config      *config.Config
	redisClient *redis.Client
	upstream    *scheduleapi.Client

	// Engine layer
	stationManager *station.Manager
	hub            *ws.Hub

	// Handler layer
	stationHandler *handler.StationHandler
	resetHandler   *handler.ResetHandler

	// HTTP server
	httpServer *http.Server
	ginEngine  *gin.Engine

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupFuncs []func()
}

// NewApplication creates a new Application instance
func NewApplication() *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		ctx:          ctx,
		cancel:       cancel,
		cleanupFuncs: make([]func(), 0),
	}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	var err error

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"Redis", app.initRedis},
		{"Upstream Client", app.initUpstream},
		{"Viewer Hub", app.initHub},
		{"Station Manager", app.initStationManager},
		{"Handler Layer", app.initHandlers},
		{"HTTP Server", app.initHTTPServer},
	}

	for _, step := range steps {
		logger.Infof("Initializing %s...", step.name)
		if err = step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		logger.Infof("%s initialized successfully", step.name)
	}

	logger.Infof("Application initialization completed")
	return nil
}

// Start starts all application components
func (app *Application) Start() error {
	logger.Infof("Starting application components...")

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.hub.Run()
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		addr := fmt.Sprintf(":%d", app.config.Server.Port)
		logger.Infof("HTTP server listening on: %s", addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Infof("All components started successfully")
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown(timeout time.Duration) error {
	logger.Infof("Starting graceful shutdown (timeout: %v)...", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 1. Stop every station engine (timers, transports)
	logger.Infof("Stopping station engines...")
	app.stationManager.StopAll()
	app.cancel()

	// 2. Stop HTTP server (stop accepting new requests)
	logger.Infof("Shutting down HTTP server...")
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	// 3. Disconnect viewers
	app.hub.Close()

	// 4. Wait for background goroutines
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Infof("All background tasks completed")
	case <-shutdownCtx.Done():
		logger.Warnf("Shutdown timeout, some tasks may not have completed")
	}

	// 5. Execute all cleanup functions (in reverse registration order)
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		app.cleanupFuncs[i]()
	}

	logger.Sync()

	logger.Infof("Graceful shutdown completed")
	return nil
}

// registerCleanup registers cleanup function
func (app *Application) registerCleanup(cleanup func()) {
	app.cleanupFuncs = append(app.cleanupFuncs, cleanup)
}
