package services

import (
	"net/http"
	"testing"

	"goblin-backend/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGalleryTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := setupMockDB(t)
	svc := NewGalleryService(db)

	app := fiber.New()
	app.Use(middleware.UserContextMiddleware())

	app.Get("/gallery", svc.GetGallery)
	admin := app.Group("/gallery", middleware.RequireUser(), middleware.RequireAdmin())
	admin.Post("/", svc.CreateEntry)
	admin.Post("/upload", svc.UploadImage)

	return app, mock
}

func TestGetGallery_NewestFirst(t *testing.T) {
	app, mock := newGalleryTestApp(t)

	mock.ExpectQuery(`SELECT \* FROM "gallery_images".*ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "image_url"}).
			AddRow("g2", "Second", "https://cdn.example/2.png").
			AddRow("g1", "First", "https://cdn.example/1.png"))

	req := buildJSONRequest(t, "GET", "/gallery", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGalleryEntry(t *testing.T) {
	app, mock := newGalleryTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "gallery_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g1"))
	mock.ExpectCommit()

	status, body := adminJSON(t, app, "POST", "/gallery/", map[string]string{
		"title":    "Goblin Launch",
		"imageUrl": "https://cdn.example/launch.png",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Goblin Launch", body["title"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGalleryEntry_MissingFields(t *testing.T) {
	app, _ := newGalleryTestApp(t)

	status, body := adminJSON(t, app, "POST", "/gallery/", map[string]string{"title": "No URL"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing fields", body["error"])
}

func TestUploadImage_NoFile(t *testing.T) {
	app, _ := newGalleryTestApp(t)

	status, body := adminJSON(t, app, "POST", "/gallery/upload", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No file provided", body["error"])
}
