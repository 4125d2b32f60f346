package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/typedash/typedash/internal/relay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine; the environment wins anyway.
		_ = err
	}

	level := slog.LevelInfo
	if os.Getenv("TYPEDASH_RELAY_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))

	validate := validator.New(validator.WithRequiredStructEnabled())

	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	app.Use(func(c *fiber.Ctx) error {
		slog.Debug("request", "ip", c.IP(), "path", c.Path())
		return c.Next()
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	hub := relay.NewHub()
	go hub.Run()

	wsGr := app.Group("/ws")
	wsGr.Use(relay.UpgradeWall)
	wsGr.Get("/duel", hub.Handler(validate))

	addr := os.Getenv("TYPEDASH_RELAY_ADDR")
	if addr == "" {
		addr = ":8800"
	}
	slog.Info("relay listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}
