package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	users "github.com/goliatone/go-users"
)

func main() {
	cfg, err := users.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := users.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := users.RunMigrations(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrations: %v", err)
	}
	cancel()

	repo := users.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := users.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetAccessTokenTTL(),
		cfg.GetRefreshTokenTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		nil,
	)

	auther := users.NewAuthenticator(repo, tokens)

	app := fiber.New(fiber.Config{
		AppName:               "go-users",
		DisableStartupMessage: false,
	})

	guard := users.ProtectedRoute(cfg, tokens, nil)
	users.RegisterAuthRoutes(app, guard,
		users.WithAuther(auther),
		users.WithContextKey(cfg.GetContextKey()),
	)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
