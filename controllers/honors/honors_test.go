package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"honors/config"
	controllers "honors/controllers/honors"
	"honors/models"
	"honors/queue"
	"honors/renderengine"
	honorRoutes "honors/routers/honorRoutes"
	"honors/storage"
	"honors/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *storage.MemoryStore
	queue *queue.Queue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	config.AppConfig = &config.Config{SignedURLTTL: 600, UploadURLTTL: 3600}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "honors.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Honor{}, &models.Template{}, &models.TemplateVersion{}, &models.Job{}))

	store := storage.NewMemoryStore()
	q := queue.New(db, time.Second, 3) // never started; tests drive jobs by hand

	app := fiber.New()
	honorRoutes.SetupHonorRoutes(app, controllers.NewHonorController(db, q, store))

	return &testEnv{app: app, db: db, store: store, queue: q}
}

func (e *testEnv) seedTemplate(t *testing.T) models.Template {
	t.Helper()
	tpl := models.Template{
		ClientID: "default",
		Name:     "Course Certificate",
		Type:     "certificate",
		Category: "course",
		Version:  1,
		Active:   true,
	}
	require.NoError(t, e.db.Create(&tpl).Error)
	require.NoError(t, e.db.Create(&models.TemplateVersion{
		TemplateID: tpl.ID,
		Version:    1,
		Snapshot:   datatypes.NewJSONType(tpl.Snapshot()),
	}).Error)
	return tpl
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) (*http.Response, envelope) {
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
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", string(raw))
	return resp, env
}

func issuePayload(tpl models.Template) map[string]interface{} {
	return map[string]interface{}{
		"client_id":  "default",
		"honor_type": "certificate",
		"event_type": "course",
		"recipient":  map[string]string{"name": "Alice Johnson", "email": "alice@example.com"},
		"course": map[string]interface{}{
			"title":    "Advanced Go",
			"duration": "6 weeks",
		},
		"template_id":      tpl.ID,
		"template_version": 1,
	}
}

func (e *testEnv) issue(t *testing.T, tpl models.Template) (uint, string) {
	t.Helper()
	resp, env := e.request(t, "POST", "/honors/issue", issuePayload(tpl))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
	return uint(env.Data["honor_id"].(float64)), env.Data["public_slug"].(string)
}

// runPendingAssets drains queued generate-assets jobs through the pipeline
// handler with a fake engine, simulating worker completion.
func (e *testEnv) runPendingAssets(t *testing.T) {
	t.Helper()
	w := worker.NewAssetWorker(e.db, e.store, renderengine.NewFakeEngine(), time.Minute)
	var jobs []models.Job
	require.NoError(t, e.db.Where("type = ? AND status = ?", worker.JobTypeGenerateAssets, models.JobStatusQueued).Find(&jobs).Error)
	for _, job := range jobs {
		require.NoError(t, w.HandleGenerateAssets(context.Background(), job.Payload))
		e.db.Model(&models.Job{}).Where("id = ?", job.ID).Update("status", models.JobStatusCompleted)
	}
}

func TestIssueHonorQueuesAssetGeneration(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)

	resp, env := e.request(t, "POST", "/honors/issue", issuePayload(tpl))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
	assert.Equal(t, "queued", env.Data["status"])
	assert.Len(t, env.Data["public_slug"].(string), 8)

	honorID := uint(env.Data["honor_id"].(float64))
	var honor models.Honor
	require.NoError(t, e.db.First(&honor, honorID).Error)
	assert.Equal(t, models.HonorStatusActive, honor.Status)
	assert.Empty(t, honor.Assets.Data().PdfKey, "assets are absent until the worker completes")

	trail := honor.Audit.Data()
	require.Len(t, trail, 1)
	assert.Equal(t, "issued", trail[0].Action)

	var jobs []models.Job
	require.NoError(t, e.db.Where("type = ?", worker.JobTypeGenerateAssets).Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusQueued, jobs[0].Status)
	assert.Contains(t, string(jobs[0].Payload), fmt.Sprintf(`"honorId":%d`, honorID))
}

func TestIssueHonorValidation(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)

	// Missing recipient email
	payload := issuePayload(tpl)
	payload["recipient"] = map[string]string{"name": "Alice Johnson"}
	resp, env := e.request(t, "POST", "/honors/issue", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Data, "recipient.email")

	// Detail block not matching the event type
	payload = issuePayload(tpl)
	delete(payload, "course")
	payload["exam"] = map[string]interface{}{"exam_title": "Entrance Exam"}
	resp, env = e.request(t, "POST", "/honors/issue", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Data, "course")
	assert.Contains(t, env.Data, "exam")

	// Unknown honor type
	payload = issuePayload(tpl)
	payload["honor_type"] = "diploma"
	resp, env = e.request(t, "POST", "/honors/issue", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Data, "honor_type")
}

func TestIssueHonorRejectsUnknownTemplateVersion(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)

	payload := issuePayload(tpl)
	payload["template_version"] = 7
	resp, env := e.request(t, "POST", "/honors/issue", payload)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Data, "template_version")
}

func TestPublicSlugsArePairwiseDistinct(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)

	seen := make(map[string]bool)
	for i := 0; i < 15; i++ {
		_, slug := e.issue(t, tpl)
		assert.False(t, seen[slug], "slug %q issued twice", slug)
		seen[slug] = true
	}
}

func TestRegenerateHonor(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	honorID, _ := e.issue(t, tpl)

	resp, env := e.request(t, "POST", fmt.Sprintf("/honors/%d/regenerate", honorID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "Regeneration queued", env.Message)

	// One job from issue, one from regenerate
	var count int64
	e.db.Model(&models.Job{}).Where("type = ?", worker.JobTypeGenerateAssets).Count(&count)
	assert.EqualValues(t, 2, count)

	var honor models.Honor
	require.NoError(t, e.db.First(&honor, honorID).Error)
	trail := honor.Audit.Data()
	require.Len(t, trail, 2)
	assert.Equal(t, "regenerate_requested", trail[1].Action)

	// Repeated regeneration always converges on populated assets
	resp, _ = e.request(t, "POST", fmt.Sprintf("/honors/%d/regenerate", honorID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	e.runPendingAssets(t)
	require.NoError(t, e.db.First(&honor, honorID).Error)
	assert.NotEmpty(t, honor.Assets.Data().PdfKey)
	assert.NotEmpty(t, honor.Assets.Data().ImageKey)
}

func TestRegenerateHonorNotFound(t *testing.T) {
	e := newTestEnv(t)

	resp, env := e.request(t, "POST", "/honors/999/regenerate", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestRevokeHonorIsOneWay(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	honorID, slug := e.issue(t, tpl)

	resp, _ := e.request(t, "POST", fmt.Sprintf("/honors/%d/revoke", honorID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var honor models.Honor
	require.NoError(t, e.db.First(&honor, honorID).Error)
	assert.Equal(t, models.HonorStatusRevoked, honor.Status)

	// Revoking again is a no-op success
	resp, env := e.request(t, "POST", fmt.Sprintf("/honors/%d/revoke", honorID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	// Regenerate and asset completion never resurrect the honor
	e.request(t, "POST", fmt.Sprintf("/honors/%d/regenerate", honorID), nil)
	e.runPendingAssets(t)

	_, env = e.request(t, "GET", "/honors/public/"+slug, nil)
	assert.Equal(t, models.HonorStatusRevoked, env.Data["status"])
	assets := env.Data["assets"].(map[string]interface{})
	assert.NotNil(t, assets["pdf_url"], "revocation does not touch assets")
}

func TestPublicViewPendingThenComplete(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	_, slug := e.issue(t, tpl)

	// Pending: keys absent, URLs null, read does not block on the queue
	resp, env := e.request(t, "GET", "/honors/public/"+slug, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	recipient := env.Data["recipient"].(map[string]interface{})
	assert.Equal(t, "Alice Johnson", recipient["name"])
	assets := env.Data["assets"].(map[string]interface{})
	assert.Nil(t, assets["pdf_url"])
	assert.Nil(t, assets["image_url"])

	e.runPendingAssets(t)

	_, env = e.request(t, "GET", "/honors/public/"+slug, nil)
	assets = env.Data["assets"].(map[string]interface{})
	require.NotNil(t, assets["pdf_url"])
	require.NotNil(t, assets["image_url"])
	firstImageURL := assets["image_url"].(string)

	// Fresh signature on every read
	_, env = e.request(t, "GET", "/honors/public/"+slug, nil)
	assets = env.Data["assets"].(map[string]interface{})
	assert.NotEqual(t, firstImageURL, assets["image_url"].(string))
}

func TestPublicViewNotFound(t *testing.T) {
	e := newTestEnv(t)

	resp, env := e.request(t, "GET", "/honors/public/NOPE1234", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestDownloadHonor(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	honorID, _ := e.issue(t, tpl)

	// Absent key resolves to a null URL, not an error
	resp, env := e.request(t, "GET", fmt.Sprintf("/honors/%d/download?type=image", honorID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Nil(t, env.Data["url"])

	e.runPendingAssets(t)

	_, env = e.request(t, "GET", fmt.Sprintf("/honors/%d/download?type=image", honorID), nil)
	assert.NotNil(t, env.Data["url"])
	_, env = e.request(t, "GET", fmt.Sprintf("/honors/%d/download", honorID), nil)
	assert.Contains(t, env.Data["url"].(string), ".pdf")

	resp, _ = e.request(t, "GET", fmt.Sprintf("/honors/%d/download?type=docx", honorID), nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = e.request(t, "GET", "/honors/999/download", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPublicViewDerivesExpiry(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	_, slug := e.issue(t, tpl)

	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, e.db.Model(&models.Honor{}).Where("public_slug = ?", slug).
		Update("expiry_date", past).Error)

	_, env := e.request(t, "GET", "/honors/public/"+slug, nil)
	assert.Equal(t, models.HonorStatusExpired, env.Data["status"])

	// Stored status stays active until the sweep persists the transition
	var honor models.Honor
	require.NoError(t, e.db.Where("public_slug = ?", slug).First(&honor).Error)
	assert.Equal(t, models.HonorStatusActive, honor.Status)
}

func TestListHonors(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)

	var ids []uint
	for i := 0; i < 3; i++ {
		id, _ := e.issue(t, tpl)
		ids = append(ids, id)
	}
	e.request(t, "POST", fmt.Sprintf("/honors/%d/revoke", ids[0]), nil)

	resp, env := e.request(t, "GET", "/honors/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, env.Data["total"])

	_, env = e.request(t, "GET", "/honors/?status=revoked", nil)
	assert.EqualValues(t, 1, env.Data["total"])

	_, env = e.request(t, "GET", "/honors/?limit=2&page=1", nil)
	assert.EqualValues(t, 2, env.Data["total"])

	resp, _ = e.request(t, "GET", "/honors/?status=bogus", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMyHonors(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	e.issue(t, tpl)
	e.issue(t, tpl)

	payload := issuePayload(tpl)
	payload["recipient"] = map[string]string{"name": "Bob", "email": "bob@example.com"}
	resp, _ := e.request(t, "POST", "/honors/issue", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, env := e.request(t, "GET", "/honors/me?email=alice@example.com", nil)
	assert.EqualValues(t, 2, env.Data["total"])

	_, env = e.request(t, "GET", "/honors/me?email=bob@example.com", nil)
	assert.EqualValues(t, 1, env.Data["total"])

	resp, _ = e.request(t, "GET", "/honors/me", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// End to end: issue a course certificate for Alice Johnson, let the
// pipeline run, and verify the public view exposes her name and a usable
// image link.
func TestIssueToPublicViewScenario(t *testing.T) {
	e := newTestEnv(t)
	tpl := e.seedTemplate(t)
	_, slug := e.issue(t, tpl)

	e.runPendingAssets(t)

	resp, env := e.request(t, "GET", "/honors/public/"+slug, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	recipient := env.Data["recipient"].(map[string]interface{})
	assert.Equal(t, "Alice Johnson", recipient["name"])
	assets := env.Data["assets"].(map[string]interface{})
	require.NotNil(t, assets["image_url"])
	assert.Contains(t, assets["image_url"].(string), ".png")
}
