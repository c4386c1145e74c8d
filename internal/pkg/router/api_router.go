package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/MarcoHuebner/TicketPilot/app/controllers"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/cache"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/env"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	v1.Post("/orders", controllers.HandleCreateOrder)
	v1.Get("/orders/:shortID", controllers.HandleGetOrder)
	v1.Post("/orders/:shortID/checkout", controllers.HandleCheckout)
	v1.Post("/orders/:shortID/payment/verify", controllers.HandleVerifyPayment)

	admin := v1.Group("/admin", middleware.AdminKeyAuthMiddleware())
	admin.Post("/orders/:shortID/refund", controllers.HandleRefund)
	admin.Post("/orders/:shortID/settle/boxoffice", controllers.HandleBoxofficeSettle)
	admin.Post("/orders/:shortID/settle/banktransfer", controllers.HandleBankTransferSettle)
	admin.Get("/orders", controllers.HandleOrderList)
	admin.Get("/tickets/:code", controllers.HandleTicketCheck)
	admin.Get("/queue/stats", controllers.HandleQueueStats)
	admin.Get("/queue/jobs/:jobID", controllers.HandleJobStatus)
	admin.Get("/queue/keys", controllers.HandleQueueInspect)
	admin.Get("/providers/stats", controllers.HandleProviderStats)
}

// newLimiterStorage backs the rate limiter with Redis so counts survive
// restarts and are shared across instances. Database 1 keeps limiter keys
// away from the cache and job queue on database 0.
func newLimiterStorage() *redisstorage.Storage {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		addr := client.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
