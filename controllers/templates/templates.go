package controllers

import (
	"errors"
	"log"

	"honors/middleware"
	"honors/models"
	"honors/renderer"
	templateValidator "honors/validators/templates"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateController manages templates and their immutable version
// snapshots. Every create/update writes a snapshot so honors pinned to an
// older version keep rendering identically.
type TemplateController struct {
	DB *gorm.DB
}

func NewTemplateController(db *gorm.DB) *TemplateController {
	return &TemplateController{DB: db}
}

func applyRequest(tpl *models.Template, reqData *templateValidator.TemplateRequest) {
	tpl.Name = reqData.Name
	tpl.Type = reqData.Type
	tpl.Category = reqData.Category
	tpl.Layout = datatypes.NewJSONType(reqData.Layout)
	tpl.Fields = datatypes.NewJSONType(reqData.Fields)
	tpl.Styles = datatypes.NewJSONType(reqData.Styles)
	tpl.Meta = datatypes.NewJSONType(reqData.Meta)
	if reqData.Active != nil {
		tpl.Active = *reqData.Active
	}
}

// CreateTemplate persists a template at version 1 plus its first snapshot,
// transactionally.
func (t *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedTemplate").(*templateValidator.TemplateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	tpl := models.Template{
		ClientID: reqData.ClientID,
		Version:  1,
		Active:   true,
	}
	applyRequest(&tpl, reqData)

	err := t.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tpl).Error; err != nil {
			return err
		}
		version := models.TemplateVersion{
			TemplateID: tpl.ID,
			Version:    tpl.Version,
			Snapshot:   datatypes.NewJSONType(tpl.Snapshot()),
		}
		return tx.Create(&version).Error
	})
	if err != nil {
		log.Printf("Error creating template: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create template!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Template created successfully!", tpl)
}

// UpdateTemplate bumps the version and writes a fresh snapshot. Earlier
// snapshots are never touched.
func (t *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}
	reqData, ok := c.Locals("validatedTemplate").(*templateValidator.TemplateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	var tpl models.Template
	if err := t.DB.First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load template!", nil)
	}

	applyRequest(&tpl, reqData)
	tpl.Version++

	err = t.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&tpl).Error; err != nil {
			return err
		}
		version := models.TemplateVersion{
			TemplateID: tpl.ID,
			Version:    tpl.Version,
			Snapshot:   datatypes.NewJSONType(tpl.Snapshot()),
		}
		return tx.Create(&version).Error
	})
	if err != nil {
		log.Printf("Error updating template %d: %v", tpl.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update template!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Template updated successfully!", tpl)
}

// GetTemplate returns one template by id
func (t *TemplateController) GetTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}

	var tpl models.Template
	if err := t.DB.First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load template!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Template fetched successfully!", tpl)
}

// ListTemplates is a bounded read of all templates
func (t *TemplateController) ListTemplates(c *fiber.Ctx) error {
	var templates []models.Template
	if err := t.DB.Order("created_at desc").Limit(100).Find(&templates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch templates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Templates fetched successfully!", fiber.Map{
		"templates": templates,
		"total":     len(templates),
	})
}

// PreviewTemplate resolves the template's fields for the builder preview.
// Dynamic fields with no bound value render a bracketed placeholder.
func (t *TemplateController) PreviewTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}

	var tpl models.Template
	if err := t.DB.First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load template!", nil)
	}

	fields := tpl.Fields.Data()
	resolved := make([]fiber.Map, len(fields))
	for i, field := range fields {
		resolved[i] = fiber.Map{
			"key":      field.Key,
			"value":    renderer.PreviewFieldValue(field, nil),
			"position": field.Position,
			"font":     field.Font,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Preview resolved!", fiber.Map{
		"preview_url": tpl.Layout.Data().BackgroundURL,
		"fields":      resolved,
	})
}
