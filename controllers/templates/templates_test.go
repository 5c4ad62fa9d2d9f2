package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	controllers "honors/controllers/templates"
	"honors/models"
	templateRoutes "honors/routers/templateRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "templates.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Template{}, &models.TemplateVersion{}))

	app := fiber.New()
	templateRoutes.SetupTemplateRoutes(app, controllers.NewTemplateController(db))
	return app, db
}

func request(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", string(raw))
	return resp, env
}

func templatePayload() map[string]interface{} {
	return map[string]interface{}{
		"name":     "Course Certificate",
		"type":     "certificate",
		"category": "course",
		"layout": map[string]interface{}{
			"background_url": "https://cdn.example.com/bg.png",
		},
		"fields": []map[string]interface{}{
			{"key": "title", "type": "static", "label": "Certificate of Completion"},
			{"key": "recipient_name", "type": "dynamic"},
		},
		"meta": map[string]interface{}{
			"signature_block": map[string]interface{}{
				"show": true,
				"name": "Dr. Rao",
			},
		},
	}
}

func TestCreateTemplateWritesVersionOneSnapshot(t *testing.T) {
	app, db := newTestApp(t)

	resp, env := request(t, app, "POST", "/templates/", templatePayload())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
	assert.EqualValues(t, 1, env.Data["version"])
	assert.Equal(t, "default", env.Data["client_id"])

	tplID := uint(env.Data["ID"].(float64))
	var versions []models.TemplateVersion
	require.NoError(t, db.Where("template_id = ?", tplID).Find(&versions).Error)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "Course Certificate", versions[0].Snapshot.Data().Name)
}

func TestCreateTemplateValidation(t *testing.T) {
	app, _ := newTestApp(t)

	payload := templatePayload()
	payload["name"] = "ab"
	resp, env := request(t, app, "POST", "/templates/", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Data, "name")

	payload = templatePayload()
	delete(payload, "category")
	resp, env = request(t, app, "POST", "/templates/", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Data, "category")

	payload = templatePayload()
	payload["fields"] = []map[string]interface{}{{"key": "title", "type": "computed"}}
	resp, env = request(t, app, "POST", "/templates/", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Data, "fields")
}

func TestUpdateTemplateBumpsVersionAndKeepsOldSnapshot(t *testing.T) {
	app, db := newTestApp(t)

	_, env := request(t, app, "POST", "/templates/", templatePayload())
	tplID := uint(env.Data["ID"].(float64))

	payload := templatePayload()
	payload["meta"] = map[string]interface{}{
		"signature_block": map[string]interface{}{"show": true, "name": "New Signer"},
	}
	resp, env := request(t, app, "PUT", "/templates/1", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, env.Data["version"])

	var versions []models.TemplateVersion
	require.NoError(t, db.Where("template_id = ?", tplID).Order("version").Find(&versions).Error)
	require.Len(t, versions, 2)

	// The version 1 snapshot is frozen; the edit only lands in version 2
	assert.Equal(t, "Dr. Rao", versions[0].Snapshot.Data().Meta.SignatureBlock.Name)
	assert.Equal(t, "New Signer", versions[1].Snapshot.Data().Meta.SignatureBlock.Name)
}

func TestUpdateTemplateNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := request(t, app, "PUT", "/templates/99", templatePayload())
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetAndListTemplates(t *testing.T) {
	app, _ := newTestApp(t)

	request(t, app, "POST", "/templates/", templatePayload())
	second := templatePayload()
	second["name"] = "Badge Template"
	request(t, app, "POST", "/templates/", second)

	resp, env := request(t, app, "GET", "/templates/1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Course Certificate", env.Data["name"])

	_, env = request(t, app, "GET", "/templates/", nil)
	assert.EqualValues(t, 2, env.Data["total"])

	resp, _ = request(t, app, "GET", "/templates/99", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPreviewTemplateResolvesFields(t *testing.T) {
	app, _ := newTestApp(t)
	request(t, app, "POST", "/templates/", templatePayload())

	resp, env := request(t, app, "GET", "/templates/1/preview", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://cdn.example.com/bg.png", env.Data["preview_url"])

	fields := env.Data["fields"].([]interface{})
	require.Len(t, fields, 2)

	static := fields[0].(map[string]interface{})
	assert.Equal(t, "title", static["key"])
	assert.Equal(t, "Certificate of Completion", static["value"])

	dynamic := fields[1].(map[string]interface{})
	assert.Equal(t, "recipient_name", dynamic["key"])
	assert.Equal(t, "[recipient_name]", dynamic["value"])
}
