package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-server/auth"
	"chat-server/httpapi"
	"chat-server/internal"
	"chat-server/moderation"
	"chat-server/observability"
	"chat-server/relay"
	"chat-server/repositories"
	"chat-server/services"
	"chat-server/workers"
	"chat-server/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Returning instead of exiting lets every
// defer (database close, index close) execute on the way out.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge search index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Domain wiring
	issuer, err := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	if err != nil {
		return fmt.Errorf("token issuer setup failed: %w", err)
	}

	censoredChar, err := internal.CharacterRune(config.CensoredChar)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(config.CensoredWords, censoredChar)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	userRepository := repositories.NewUserRepository(db, index, log, config.SearchLimit)
	chatRepository := repositories.NewChatRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)

	authService := services.NewAuthService(userRepository, issuer)
	userService := services.NewUserService(userRepository)
	chatService := services.NewChatService(chatRepository, userRepository, messageRepository, log)
	messageService := services.NewMessageService(messageRepository, chatRepository, userRepository, moderator, log)

	monitor := observability.NewMonitor(log)
	registry := relay.NewRegistry()
	r := relay.NewRelay(log, registry, monitor)
	socketHandler := ws.NewHandler(registry, r, monitor, log, config.SendBufferSize, config.AllowedOrigin)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewStatsWorker(monitor, config.StatsInterval, log),
		workers.NewGCWorker(db, config.GCInterval, log),
	)
	go sup.Run(ctx)

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, internal.ChatMapper, func() map[string]any {
			stats := monitor.Snapshot()
			return map[string]any{
				"connections_open": stats.ConnectionsOpen,
				"events_handled":   stats.EventsHandled,
			}
		})
	}

	// 6. HTTP Server
	api := httpapi.NewServer(log, issuer, authService, userService, chatService, messageService, socketHandler, monitor)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := httpapi.NewHTTPServer(address, api.Routes())

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
