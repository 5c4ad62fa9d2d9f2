package templateRoutes

import (
	controllers "honors/controllers/templates"
	validators "honors/validators/templates"

	"github.com/gofiber/fiber/v2"
)

// SetupTemplateRoutes sets up all template routes
func SetupTemplateRoutes(app *fiber.App, ctrl *controllers.TemplateController) {
	templateGroup := app.Group("/templates")

	templateGroup.Post("/", validators.CreateTemplate(), ctrl.CreateTemplate)
	templateGroup.Put("/:id", validators.UpdateTemplate(), ctrl.UpdateTemplate)
	templateGroup.Get("/", ctrl.ListTemplates)
	templateGroup.Get("/:id", ctrl.GetTemplate)
	templateGroup.Get("/:id/preview", ctrl.PreviewTemplate)
}
