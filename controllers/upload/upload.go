package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"honors/config"
	"honors/middleware"
	"honors/storage"

	"github.com/gofiber/fiber/v2"
)

const maxUploadBytes = 5 * 1024 * 1024

var allowedUploadTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

// UploadController mediates template background images into the object
// store. Only keys are handed back; URLs are signed per request.
type UploadController struct {
	Store storage.ObjectStore
}

func NewUploadController(store storage.ObjectStore) *UploadController {
	return &UploadController{Store: store}
}

func uploadURLTTL() time.Duration {
	if config.AppConfig != nil && config.AppConfig.UploadURLTTL > 0 {
		return time.Duration(config.AppConfig.UploadURLTTL) * time.Second
	}
	return 3600 * time.Second
}

// UploadFile stores a multipart file under {folder}/{randomHex}.{ext} and
// returns the key with a fresh signed URL.
func (u *UploadController) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "No file uploaded!", nil)
	}
	if fileHeader.Size > maxUploadBytes {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "File exceeds the 5MB limit!", nil)
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid file type. Please upload PNG, JPG, or WebP!", nil)
	}

	folder := c.FormValue("folder", "uploads")
	if strings.Contains(folder, "..") {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid folder!", nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read file!", nil)
	}
	defer src.Close()
	body, err := io.ReadAll(src)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read file!", nil)
	}

	var random [16]byte
	if _, err := rand.Read(random[:]); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to allocate file key!", nil)
	}
	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	if ext == "" {
		ext = "bin"
	}
	key := folder + "/" + hex.EncodeToString(random[:]) + "." + ext

	if err := u.Store.Put(c.Context(), key, body, contentType); err != nil {
		log.Printf("Error uploading %s: %v", key, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to upload file!", nil)
	}

	url, err := u.Store.SignedURL(c.Context(), key, uploadURLTTL())
	if err != nil {
		log.Printf("Error signing url for %s: %v", key, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to sign file URL!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "File uploaded successfully!", fiber.Map{
		"key":      key,
		"url":      url,
		"filename": fileHeader.Filename,
	})
}

// DeleteUpload removes an uploaded file. Deleting an unknown key succeeds.
func (u *UploadController) DeleteUpload(c *fiber.Ctx) error {
	key, _ := c.Locals("validatedKey").(string)

	if err := u.Store.Delete(c.Context(), key); err != nil {
		log.Printf("Error deleting %s: %v", key, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete file!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "File deleted successfully!", nil)
}

// RefreshURL mints a fresh signed URL for an existing key
func (u *UploadController) RefreshURL(c *fiber.Ctx) error {
	key, _ := c.Locals("validatedKey").(string)

	url, err := u.Store.SignedURL(c.Context(), key, uploadURLTTL())
	if err != nil {
		log.Printf("Error refreshing url for %s: %v", key, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to refresh URL!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "URL refreshed successfully!", fiber.Map{
		"url": url,
	})
}
