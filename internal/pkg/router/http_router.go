package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarcoHuebner/TicketPilot/app/controllers"
	"github.com/MarcoHuebner/TicketPilot/app/repository"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/constants"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize the repository factory before any route takes traffic.
	repository.InitializeFactory(database.GetDB())

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	// Provider deliveries land outside the rate-limited API group; a
	// throttled webhook would just be redelivered later anyway.
	app.Post(constants.WebhooksRoute+"/:provider", controllers.HandleProviderWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
