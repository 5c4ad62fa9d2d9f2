package honorValidator

import (
	"strings"
	"time"

	"honors/middleware"
	"honors/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// IssueHonorRequest is the validated issue payload
type IssueHonorRequest struct {
	ClientID        string                      `json:"client_id"`
	HonorType       string                      `json:"honor_type" validate:"required,oneof=certificate badge"`
	EventType       string                      `json:"event_type" validate:"required,oneof=course exam participation custom"`
	Recipient       models.Recipient            `json:"recipient"`
	Course          *models.CourseDetail        `json:"course"`
	Exam            *models.ExamDetail          `json:"exam"`
	Participation   *models.ParticipationDetail `json:"participation"`
	Badge           *models.BadgeDetail         `json:"badge"`
	TemplateID      uint                        `json:"template_id" validate:"required"`
	TemplateVersion int                         `json:"template_version" validate:"required,min=1"`
	IssueMode       string                      `json:"issue_mode" validate:"omitempty,oneof=auto manual bulk rule_based"`
	IssuedBy        string                      `json:"issued_by"`
	Metadata        map[string]interface{}      `json:"metadata"`
	ExpiryDate      *time.Time                  `json:"expiry_date"`
}

// detailBlock returns which detail block the event type requires
func (r *IssueHonorRequest) detailBlocks() map[string]bool {
	return map[string]bool{
		"course":        r.Course != nil,
		"exam":          r.Exam != nil,
		"participation": r.Participation != nil,
		"badge":         r.Badge != nil,
	}
}

// requiredBlockFor maps an event type to its detail block
func requiredBlockFor(eventType string) string {
	if eventType == models.EventTypeCustom {
		return "badge"
	}
	return eventType
}

func IssueHonor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(IssueHonorRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "HonorType":
					errors["honor_type"] = "Honor type must be certificate or badge!"
				case "EventType":
					errors["event_type"] = "Event type must be course, exam, participation or custom!"
				case "TemplateID":
					errors["template_id"] = "Template id is required!"
				case "TemplateVersion":
					errors["template_version"] = "Template version must be at least 1!"
				case "IssueMode":
					errors["issue_mode"] = "Issue mode must be auto, manual, bulk or rule_based!"
				}
			}
		}

		// Validate Recipient
		if strings.TrimSpace(reqData.Recipient.Name) == "" {
			errors["recipient.name"] = "Recipient name is required!"
		}
		if strings.TrimSpace(reqData.Recipient.Email) == "" {
			errors["recipient.email"] = "Recipient email is required!"
		} else if validate.Var(reqData.Recipient.Email, "email") != nil {
			errors["recipient.email"] = "Recipient email must be a valid email address!"
		}

		// Exactly one detail block, matching the event type
		if reqData.EventType != "" && errors["event_type"] == "" {
			required := requiredBlockFor(reqData.EventType)
			blocks := reqData.detailBlocks()
			if !blocks[required] {
				errors[required] = "The " + required + " detail block is required for event type " + reqData.EventType + "!"
			}
			for name, present := range blocks {
				if present && name != required {
					errors[name] = "The " + name + " detail block does not match event type " + reqData.EventType + "!"
				}
			}
		}

		// Respond with validation errors if any exist
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		// Defaults
		if strings.TrimSpace(reqData.ClientID) == "" {
			reqData.ClientID = "default"
		}
		if reqData.IssueMode == "" {
			reqData.IssueMode = models.IssueModeManual
		}
		if strings.TrimSpace(reqData.IssuedBy) == "" {
			reqData.IssuedBy = "system"
		}

		c.Locals("validatedIssue", reqData)
		return c.Next()
	}
}

func DownloadHonor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		assetType := c.Query("type", "pdf")
		if assetType != "pdf" && assetType != "image" {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"type": "Type must be pdf or image!",
			})
		}
		c.Locals("validatedAssetType", assetType)
		return c.Next()
	}
}

func HonorList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page     int    `query:"page"`
			Limit    int    `query:"limit"`
			Status   string `query:"status"`
			ClientID string `query:"client_id"`
		})

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		if reqData.Page < 0 {
			errors["page"] = "Page must be greater than 0!"
		}
		if reqData.Limit < 0 {
			errors["limit"] = "Limit must be greater than 0!"
		}
		if reqData.Status != "" &&
			reqData.Status != models.HonorStatusActive &&
			reqData.Status != models.HonorStatusRevoked &&
			reqData.Status != models.HonorStatusExpired {
			errors["status"] = "Status must be active, revoked or expired!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		if reqData.Page < 1 {
			reqData.Page = 1
		}
		if reqData.Limit < 1 || reqData.Limit > 100 {
			reqData.Limit = 100
		}

		c.Locals("validatedPage", reqData.Page)
		c.Locals("validatedLimit", reqData.Limit)
		c.Locals("validatedStatus", reqData.Status)
		c.Locals("validatedClientID", reqData.ClientID)
		return c.Next()
	}
}

func MyHonors() fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := c.Query("email")
		if strings.TrimSpace(email) == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Provide email in query!", nil)
		}
		c.Locals("validatedEmail", email)
		return c.Next()
	}
}
