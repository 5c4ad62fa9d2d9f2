package uploadRoutes

import (
	controllers "honors/controllers/upload"
	validators "honors/validators/upload"

	"github.com/gofiber/fiber/v2"
)

// SetupUploadRoutes sets up the file upload routes
func SetupUploadRoutes(app *fiber.App, ctrl *controllers.UploadController) {
	uploadGroup := app.Group("/upload")

	uploadGroup.Post("/", ctrl.UploadFile)
	uploadGroup.Delete("/", validators.ObjectKey(), ctrl.DeleteUpload)
	uploadGroup.Post("/refresh-url", validators.ObjectKey(), ctrl.RefreshURL)
}
