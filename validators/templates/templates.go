package templateValidator

import (
	"strings"

	"honors/middleware"
	"honors/models"

	"github.com/gofiber/fiber/v2"
)

// TemplateRequest is the validated create/update payload. Version is
// server-assigned and deliberately absent.
type TemplateRequest struct {
	ClientID string                 `json:"client_id"`
	Name     string                 `json:"name"`
	Type     string                 `json:"type"`
	Category string                 `json:"category"`
	Layout   models.TemplateLayout  `json:"layout"`
	Fields   []models.TemplateField `json:"fields"`
	Styles   models.TemplateStyles  `json:"styles"`
	Meta     models.TemplateMeta    `json:"meta"`
	Active   *bool                  `json:"active"`
}

func validateTemplate(reqData *TemplateRequest) map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(reqData.Name) == "" {
		errors["name"] = "Name is required!"
	} else if len(strings.TrimSpace(reqData.Name)) < 3 {
		errors["name"] = "Name must be at least 3 characters long!"
	}
	if strings.TrimSpace(reqData.Type) == "" {
		errors["type"] = "Type is required!"
	}
	if strings.TrimSpace(reqData.Category) == "" {
		errors["category"] = "Category is required!"
	}

	for _, field := range reqData.Fields {
		if strings.TrimSpace(field.Key) == "" {
			errors["fields"] = "Every field needs a key!"
			break
		}
		if field.Type != "" && field.Type != models.FieldTypeStatic && field.Type != models.FieldTypeDynamic {
			errors["fields"] = "Field type must be static or dynamic!"
			break
		}
	}

	return errors
}

func CreateTemplate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(TemplateRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validateTemplate(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		if strings.TrimSpace(reqData.ClientID) == "" {
			reqData.ClientID = "default"
		}

		c.Locals("validatedTemplate", reqData)
		return c.Next()
	}
}

func UpdateTemplate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(TemplateRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validateTemplate(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedTemplate", reqData)
		return c.Next()
	}
}
