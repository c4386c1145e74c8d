package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MarcoHuebner/TicketPilot/internal/pkg/cache"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/env"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/jobqueue"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/payments"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// Graceful shutdown: stop taking requests, then drain the queue.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("shutting down")
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	jobqueue.GetManager().Stop()
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	// With STRICT_CONFIG=true missing provider credentials are fatal;
	// otherwise the platform runs with the configured subset.
	if err := payments.CheckConfiguration(env.IsStrictConfig()); err != nil {
		log.Fatalf("provider configuration: %v", err)
	}

	database.SetupDatabase()
	cache.SetupCache()

	// Background workers: webhook processing, ticket issuance, counter
	// flush, order expiry.
	jobqueue.GetManager().Start()

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "TicketPilot",
		BodyLimit: 1 << 20, // webhook and API payloads are small
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
