package honorRoutes

import (
	controllers "honors/controllers/honors"
	validators "honors/validators/honors"

	"github.com/gofiber/fiber/v2"
)

// SetupHonorRoutes sets up all honor lifecycle routes
func SetupHonorRoutes(app *fiber.App, ctrl *controllers.HonorController) {
	honorGroup := app.Group("/honors")

	// Issuance pipeline front door
	honorGroup.Post("/issue", validators.IssueHonor(), ctrl.IssueHonor)
	honorGroup.Post("/:id/regenerate", ctrl.RegenerateHonor)
	honorGroup.Post("/:id/revoke", ctrl.RevokeHonor)

	// Reads; never block on the queue
	honorGroup.Get("/public/:slug", ctrl.PublicView)
	honorGroup.Get("/me", validators.MyHonors(), ctrl.MyHonors)
	honorGroup.Get("/:id/download", validators.DownloadHonor(), ctrl.DownloadHonor)

	// Admin list
	honorGroup.Get("/", validators.HonorList(), ctrl.ListHonors)
}
