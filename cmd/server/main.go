package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ZerkerEOD/slotban/internal/bot"
	"github.com/ZerkerEOD/slotban/internal/config"
	"github.com/ZerkerEOD/slotban/internal/database"
	"github.com/ZerkerEOD/slotban/internal/db"
	"github.com/ZerkerEOD/slotban/internal/handlers/slots"
	"github.com/ZerkerEOD/slotban/internal/handlers/websocket"
	"github.com/ZerkerEOD/slotban/internal/repository"
	"github.com/ZerkerEOD/slotban/internal/routes"
	"github.com/ZerkerEOD/slotban/internal/services"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize debug package first with default settings
	debug.Reinitialize()

	cwd, err := os.Getwd()
	if err != nil {
		debug.Fatal("Failed to get working directory: %v", err)
	}
	debug.Info("Current working directory: %s", cwd)

	// .env is optional; plain environment variables work as well
	if err := godotenv.Load(); err != nil {
		debug.Debug("No .env in current directory: %v", err)
		if err := godotenv.Load("../.env"); err != nil {
			debug.Info("No .env file found, using process environment")
		} else {
			debug.Info("Loaded .env file from parent directory")
		}
	} else {
		debug.Info("Loaded .env file from current directory")
	}

	// Reinitialize debug package with loaded environment variables
	debug.Reinitialize()

	cfg, err := config.Load()
	if err != nil {
		debug.Fatal("Configuration error: %v", err)
	}

	slotRepo, settingsRepo, closeStore, err := openStores(cfg)
	if err != nil {
		debug.Fatal("Storage initialization failed: %v", err)
	}

	banService, err := services.NewBanService(slotRepo, settingsRepo,
		services.WithBanDuration(cfg.BanDuration()),
		services.WithSweepSchedule(cfg.SweepSchedule),
	)
	if err != nil {
		debug.Fatal("Failed to start ban service: %v", err)
	}

	hub := websocket.NewHandler(cfg.CORSAllowedOrigin)
	notifications := services.NewNotificationService(hub)
	banService.SetExpiredObserver(notifications)

	if cfg.IsDevelopment() {
		seedDevelopmentData(cfg, banService)
	}

	commands := bot.NewCommandHandler(banService, notifications, nil)
	twitchBot := bot.NewTwitchBot(bot.Credentials{
		Username: cfg.TwitchUsername,
		Token:    cfg.TwitchToken,
		Channels: cfg.TwitchChannels,
	}, commands, notifications)

	botCtx, stopBot := context.WithCancel(context.Background())
	var botDone sync.WaitGroup
	botDone.Add(1)
	go func() {
		defer botDone.Done()
		if err := twitchBot.Run(botCtx); err != nil {
			debug.Error("Twitch bot stopped: %v", err)
		}
	}()

	r := mux.NewRouter()
	routes.SetupRoutes(r, cfg.CORSAllowedOrigin, slots.NewHandler(banService, notifications, twitchBot), hub)

	server := &http.Server{
		Addr:              cfg.GetAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		debug.Info("Starting server on %s (events at %s)", cfg.GetAddress(), cfg.GetWSEndpoint())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-stop:
		debug.Info("Received %s, shutting down", sig)
	case err := <-serverErr:
		debug.Error("Server failed: %v", err)
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		debug.Error("HTTP server shutdown: %v", err)
	}
	cancel()

	stopBot()
	botDone.Wait()
	banService.Stop()
	hub.Close()
	closeStore()

	debug.Info("Shutdown complete")
	os.Exit(exitCode)
}

// openStores builds the repositories for the configured storage driver. The
// returned func releases any connections.
func openStores(cfg *config.Config) (repository.SlotBanRepository, repository.SettingsRepository, func(), error) {
	if cfg.StorageDriver != config.StoragePostgres {
		debug.Info("Using in-memory storage; bans are lost on restart")
		return repository.NewMemorySlotBanRepository(), repository.NewMemorySettingsRepository(), func() {}, nil
	}

	if names, err := database.MigrationNames(); err == nil {
		debug.Debug("Embedded migrations: %v", names)
	}

	dbCfg := cfg.DB()
	if err := database.RunMigrations(dbCfg); err != nil {
		return nil, nil, nil, err
	}

	conn, err := db.New(dbCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	debug.Info("Database connection established")

	closeFn := func() {
		if err := conn.Close(); err != nil {
			debug.Error("Failed to close database: %v", err)
		}
	}
	return repository.NewPostgresSlotRepository(conn), repository.NewPostgresSettingsRepository(conn), closeFn, nil
}

func seedDevelopmentData(cfg *config.Config, banService *services.BanService) {
	seeds := services.DefaultSeedBans
	if cfg.SeedFile != "" {
		loaded, err := services.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			debug.Error("Failed to load seed file %s: %v", cfg.SeedFile, err)
			return
		}
		seeds = loaded
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := services.SeedBans(ctx, banService, seeds); err != nil {
		debug.Error("Failed to seed development data: %v", err)
	}
}
