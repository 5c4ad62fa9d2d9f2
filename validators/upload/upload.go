package uploadValidator

import (
	"strings"

	"honors/middleware"

	"github.com/gofiber/fiber/v2"
)

// KeyRequest carries an object key for delete/refresh operations
type KeyRequest struct {
	Key string `json:"key"`
}

func ObjectKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(KeyRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if strings.TrimSpace(reqData.Key) == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "No file key provided!", nil)
		}

		c.Locals("validatedKey", reqData.Key)
		return c.Next()
	}
}
