package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"honors/models"
	"honors/queue"
	"honors/renderengine"
	"honors/renderer"
	"honors/storage"
	"honors/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobTypeGenerateAssets is the queue job type for the issuance pipeline
const JobTypeGenerateAssets = "generate-assets"

// GenerateAssetsPayload is the job message for generate-assets
type GenerateAssetsPayload struct {
	HonorID uint `json:"honorId"`
}

// AssetWorker turns an honor plus its pinned template snapshot into durable
// PDF/PNG objects and records their keys on the honor.
type AssetWorker struct {
	db            *gorm.DB
	store         storage.ObjectStore
	engine        renderengine.Engine
	renderTimeout time.Duration
}

// NewAssetWorker builds the pipeline worker
func NewAssetWorker(db *gorm.DB, store storage.ObjectStore, engine renderengine.Engine, renderTimeout time.Duration) *AssetWorker {
	return &AssetWorker{db: db, store: store, engine: engine, renderTimeout: renderTimeout}
}

// Register binds the generate-assets handler onto the queue with the given
// worker concurrency.
func Register(q *queue.Queue, w *AssetWorker, concurrency int) {
	q.Register(JobTypeGenerateAssets, concurrency, w.HandleGenerateAssets)
}

// HandleGenerateAssets runs one pipeline pass. Re-running for the same
// honor is safe: renders are deterministic for a pinned snapshot and both
// uploads overwrite fixed keys.
func (w *AssetWorker) HandleGenerateAssets(ctx context.Context, payload []byte) error {
	var msg GenerateAssetsPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode generate-assets payload: %w", err)
	}
	log.Printf("[ASSET-WORKER] Processing honor %d", msg.HonorID)

	var honor models.Honor
	if err := w.db.First(&honor, msg.HonorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A deleted honor is not a job failure; nothing to render.
			log.Printf("[ASSET-WORKER] Honor %d not found, skipping", msg.HonorID)
			return nil
		}
		return fmt.Errorf("load honor %d: %w", msg.HonorID, err)
	}

	// Always the pinned snapshot, never the live template: edits after
	// issue must not change this honor's rendering.
	var version models.TemplateVersion
	err := w.db.Where("template_id = ? AND version = ?", honor.TemplateID, honor.TemplateVersion).
		First(&version).Error
	if err != nil {
		return fmt.Errorf("load template %d version %d: %w", honor.TemplateID, honor.TemplateVersion, err)
	}

	html := renderer.BuildHTML(&honor, version.Snapshot.Data())

	renderCtx, cancel := context.WithTimeout(ctx, w.renderTimeout)
	defer cancel()
	pdf, png, err := w.engine.Render(renderCtx, html)
	if err != nil {
		return fmt.Errorf("render honor %d: %w", honor.ID, err)
	}

	pdfKey := storage.PdfKey(honor.ID)
	imageKey := storage.ImageKey(honor.ID)
	if err := w.store.Put(ctx, pdfKey, pdf, "application/pdf"); err != nil {
		return fmt.Errorf("upload pdf for honor %d: %w", honor.ID, err)
	}
	if err := w.store.Put(ctx, imageKey, png, "image/png"); err != nil {
		return fmt.Errorf("upload png for honor %d: %w", honor.ID, err)
	}

	// Only the assets column: a concurrent revoke or expiry sweep must
	// never be clobbered by this write.
	assets := datatypes.NewJSONType(models.Assets{PdfKey: pdfKey, ImageKey: imageKey})
	if err := w.db.Model(&models.Honor{}).Where("id = ?", honor.ID).
		Update("assets", assets).Error; err != nil {
		return fmt.Errorf("record assets for honor %d: %w", honor.ID, err)
	}
	honor.Assets = assets
	log.Printf("[ASSET-WORKER] Assets uploaded for honor %d - PDF key: %s", honor.ID, pdfKey)

	// Best-effort notifications; failures are logged, never job failures.
	recipient := honor.Recipient.Data()
	if recipient.Email != "" {
		if err := utils.SendHonorReadyEmail(recipient.Email, recipient.Name, honor.HonorType, honor.PublicSlug); err != nil {
			log.Printf("[ASSET-WORKER] Error emailing recipient for honor %d: %v", honor.ID, err)
		}
	}
	if err := utils.NotifyAssetsReady(&honor); err != nil {
		log.Printf("[ASSET-WORKER] Error notifying webhook for honor %d: %v", honor.ID, err)
	}

	return nil
}
