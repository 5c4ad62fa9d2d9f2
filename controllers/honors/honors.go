package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"honors/config"
	"honors/middleware"
	"honors/models"
	"honors/queue"
	"honors/storage"
	"honors/utils"
	honorValidator "honors/validators/honors"
	"honors/worker"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const slugAttempts = 5

// HonorController is the synchronous front door of the issuance pipeline:
// it enqueues work and reads results, never blocking on rendering.
type HonorController struct {
	DB    *gorm.DB
	Queue *queue.Queue
	Store storage.ObjectStore
}

func NewHonorController(db *gorm.DB, q *queue.Queue, store storage.ObjectStore) *HonorController {
	return &HonorController{DB: db, Queue: q, Store: store}
}

type assetsView struct {
	PdfKey   string  `json:"pdf_key,omitempty"`
	ImageKey string  `json:"image_key,omitempty"`
	PdfURL   *string `json:"pdf_url"`
	ImageURL *string `json:"image_url"`
}

// honorView is an honor with per-request signed URLs and derived status.
type honorView struct {
	models.Honor
	Status string     `json:"status"`
	Assets assetsView `json:"assets"`
}

func signedURLTTL() time.Duration {
	if config.AppConfig != nil && config.AppConfig.SignedURLTTL > 0 {
		return time.Duration(config.AppConfig.SignedURLTTL) * time.Second
	}
	return 600 * time.Second
}

// withSignedURLs mints fresh read URLs for whatever keys the honor has.
// Absent keys (pipeline still pending) become null URLs, not errors.
func (h *HonorController) withSignedURLs(c *fiber.Ctx, honor models.Honor) honorView {
	view := honorView{
		Honor:  honor,
		Status: honor.EffectiveStatus(time.Now()),
	}
	assets := honor.Assets.Data()
	view.Assets.PdfKey = assets.PdfKey
	view.Assets.ImageKey = assets.ImageKey

	ttl := signedURLTTL()
	if assets.PdfKey != "" {
		if url, err := h.Store.SignedURL(c.Context(), assets.PdfKey, ttl); err == nil && url != "" {
			view.Assets.PdfURL = &url
		} else if err != nil {
			log.Printf("Error signing pdf url for honor %d: %v", honor.ID, err)
		}
	}
	if assets.ImageKey != "" {
		if url, err := h.Store.SignedURL(c.Context(), assets.ImageKey, ttl); err == nil && url != "" {
			view.Assets.ImageURL = &url
		} else if err != nil {
			log.Printf("Error signing image url for honor %d: %v", honor.ID, err)
		}
	}
	return view
}

func jsonBlock[T any](v *T) *datatypes.JSONType[T] {
	if v == nil {
		return nil
	}
	block := datatypes.NewJSONType(*v)
	return &block
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

// IssueHonor persists an honor with empty assets and queues asset
// generation. The reply never waits for rendering.
func (h *HonorController) IssueHonor(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedIssue").(*honorValidator.IssueHonorRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	// The pinned snapshot must exist up front; a dangling pin would leave
	// every render job failing.
	var version models.TemplateVersion
	err := h.DB.Where("template_id = ? AND version = ?", reqData.TemplateID, reqData.TemplateVersion).
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"template_version": "Template version not found!",
			})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to resolve template version!", nil)
	}

	honor := models.Honor{
		ClientID:        reqData.ClientID,
		HonorType:       reqData.HonorType,
		EventType:       reqData.EventType,
		Recipient:       datatypes.NewJSONType(reqData.Recipient),
		Course:          jsonBlock(reqData.Course),
		Exam:            jsonBlock(reqData.Exam),
		Participation:   jsonBlock(reqData.Participation),
		Badge:           jsonBlock(reqData.Badge),
		TemplateID:      reqData.TemplateID,
		TemplateVersion: reqData.TemplateVersion,
		IssueMode:       reqData.IssueMode,
		IssuedBy:        reqData.IssuedBy,
		Metadata:        datatypes.JSONMap(reqData.Metadata),
		Status:          models.HonorStatusActive,
		ExpiryDate:      reqData.ExpiryDate,
	}
	honor.AppendAudit("issued", reqData.IssuedBy)

	// Slugs are globally unique; retry on the rare collision.
	created := false
	for attempt := 0; attempt < slugAttempts; attempt++ {
		honor.PublicSlug = utils.GenerateSlug()
		if err := h.DB.Create(&honor).Error; err != nil {
			if isDuplicateKey(err) {
				continue
			}
			log.Printf("Error creating honor: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue honor!", nil)
		}
		created = true
		break
	}
	if !created {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to allocate a unique slug!", nil)
	}

	if _, err := h.Queue.Enqueue(worker.JobTypeGenerateAssets, worker.GenerateAssetsPayload{HonorID: honor.ID}); err != nil {
		log.Printf("Error enqueueing generate-assets for honor %d: %v", honor.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Honor saved but asset generation could not be queued!", fiber.Map{
			"honor_id":    honor.ID,
			"public_slug": honor.PublicSlug,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Honor issued successfully!", fiber.Map{
		"honor_id":    honor.ID,
		"public_slug": honor.PublicSlug,
		"status":      "queued",
	})
}

// RegenerateHonor re-queues asset generation for an existing honor. Status,
// slug and template binding stay untouched.
func (h *HonorController) RegenerateHonor(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}

	var honor models.Honor
	if err := h.DB.First(&honor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load honor!", nil)
	}

	honor.AppendAudit("regenerate_requested", "api")
	if err := h.DB.Model(&models.Honor{}).Where("id = ?", honor.ID).
		Update("audit", honor.Audit).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record regeneration request!", nil)
	}

	if _, err := h.Queue.Enqueue(worker.JobTypeGenerateAssets, worker.GenerateAssetsPayload{HonorID: honor.ID}); err != nil {
		log.Printf("Error enqueueing regenerate for honor %d: %v", honor.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to queue regeneration!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Regeneration queued", nil)
}

// RevokeHonor performs the one-way active/expired -> revoked transition.
// There is no un-revoke.
func (h *HonorController) RevokeHonor(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}

	var honor models.Honor
	if err := h.DB.First(&honor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load honor!", nil)
	}

	if honor.Status == models.HonorStatusRevoked {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Honor already revoked", nil)
	}

	honor.AppendAudit("revoked", "api")
	err = h.DB.Model(&models.Honor{}).Where("id = ?", honor.ID).
		Updates(map[string]interface{}{
			"status": models.HonorStatusRevoked,
			"audit":  honor.Audit,
		}).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to revoke honor!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Revoked", nil)
}

// PublicView resolves an honor by its public slug with fresh signed URLs
func (h *HonorController) PublicView(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var honor models.Honor
	if err := h.DB.Where("public_slug = ?", slug).First(&honor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load honor!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Honor fetched successfully!", h.withSignedURLs(c, honor))
}

// DownloadHonor resolves a single signed URL for the pdf or image asset.
// A missing key yields a null url, not an error.
func (h *HonorController) DownloadHonor(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}
	assetType, _ := c.Locals("validatedAssetType").(string)
	if assetType == "" {
		assetType = "pdf"
	}

	var honor models.Honor
	if err := h.DB.First(&honor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load honor!", nil)
	}

	assets := honor.Assets.Data()
	key := assets.PdfKey
	if assetType == "image" {
		key = assets.ImageKey
	}

	var url *string
	if key != "" {
		signed, err := h.Store.SignedURL(c.Context(), key, signedURLTTL())
		if err != nil {
			log.Printf("Error signing %s url for honor %d: %v", assetType, honor.ID, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to sign download URL!", nil)
		}
		if signed != "" {
			url = &signed
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Download URL resolved!", fiber.Map{"url": url})
}

// ListHonors is the bounded admin read with signed-URL expansion
func (h *HonorController) ListHonors(c *fiber.Ctx) error {
	page, _ := c.Locals("validatedPage").(int)
	limit, _ := c.Locals("validatedLimit").(int)
	status, _ := c.Locals("validatedStatus").(string)
	clientID, _ := c.Locals("validatedClientID").(string)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}

	query := h.DB.Model(&models.Honor{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var honors []models.Honor
	if err := query.Order("created_at desc").Limit(limit).Offset((page - 1) * limit).Find(&honors).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch honors!", nil)
	}

	views := make([]honorView, len(honors))
	for i, honor := range honors {
		views[i] = h.withSignedURLs(c, honor)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Honors fetched successfully!", fiber.Map{
		"honors": views,
		"total":  len(views),
	})
}

// MyHonors lists honors for one recipient email
func (h *HonorController) MyHonors(c *fiber.Ctx) error {
	email, _ := c.Locals("validatedEmail").(string)

	var honors []models.Honor
	err := h.DB.Where(datatypes.JSONQuery("recipient").Equals(email, "email")).
		Order("created_at desc").
		Limit(100).
		Find(&honors).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch honors!", nil)
	}

	views := make([]honorView, len(honors))
	for i, honor := range honors {
		views[i] = h.withSignedURLs(c, honor)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Honors fetched successfully!", fiber.Map{
		"honors": views,
		"total":  len(views),
	})
}
