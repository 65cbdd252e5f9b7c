package crud

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Testimonial{}, &models.TopBar{}))
	return db
}

func setupTestRouter(register func(gin.IRouter)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Admin") == "1" {
			common.MarkAdmin(c, 1)
		}
		c.Next()
	})
	register(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Test-Admin", "1")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newTestimonials(db *gorm.DB) *Resource[models.Testimonial, *models.Testimonial] {
	return New[models.Testimonial]("/api/testimonials", db, Hooks[models.Testimonial, *models.Testimonial]{}, Options{IDRoutes: true})
}

func TestCreate_RequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	w := doJSON(router, http.MethodPost, "/api/testimonials", gin.H{"name": "Anna", "text": "Super", "rating": 5}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreate_FieldErrors(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	w := doJSON(router, http.MethodPost, "/api/testimonials", gin.H{"name": "Anna", "rating": 9}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "text")
	assert.Contains(t, resp.Errors, "rating")
}

func TestList_PublicSeesOnlyActive(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	db.Create(&models.Testimonial{Name: "Visible", Text: "t", Rating: 5, IsActive: true, SortOrder: 2})
	db.Create(&models.Testimonial{Name: "Hidden", Text: "t", Rating: 4, IsActive: false, SortOrder: 1})

	var public []models.Testimonial
	w := doJSON(router, http.MethodGet, "/api/testimonials", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &public))
	require.Len(t, public, 1)
	assert.Equal(t, "Visible", public[0].Name)

	var all []models.Testimonial
	w = doJSON(router, http.MethodGet, "/api/testimonials", nil, true)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "Hidden", all[0].Name)

	w = doJSON(router, http.MethodGet, "/api/testimonials?id=2", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/testimonials?limit=-1", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_FullReplace(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	rec := models.Testimonial{Name: "Anna", Text: "Labi", Rating: 5, Service: "Zobu higiēna", IsActive: true}
	db.Create(&rec)

	w := doJSON(router, http.MethodPut, "/api/testimonials", gin.H{"id": rec.ID, "name": "Anna B", "text": "Ļoti labi", "rating": 4}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Testimonial
	db.First(&got, rec.ID)
	assert.Equal(t, "Anna B", got.Name)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "", got.Service)
	assert.False(t, got.IsActive)
}

func TestUpdate_UnknownID(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	w := doJSON(router, http.MethodPut, "/api/testimonials/77", gin.H{"name": "A", "text": "B", "rating": 3}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPut, "/api/testimonials", gin.H{"name": "A", "text": "B", "rating": 3}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_StaleVersionConflicts(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	rec := models.Testimonial{Name: "Anna", Text: "Labi", Rating: 5}
	db.Create(&rec)

	w := doJSON(router, http.MethodPut, "/api/testimonials", gin.H{
		"id": rec.ID, "name": "Anna", "text": "Labi", "rating": 5,
		"updatedAt": "2001-01-01T00:00:00Z",
	}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(newTestimonials(db).RegisterRoutes)

	rec := models.Testimonial{Name: "Anna", Text: "Labi", Rating: 5}
	db.Create(&rec)

	w := doJSON(router, http.MethodDelete, "/api/testimonials?id=1", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/testimonials/1", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/testimonials?id=abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSingleton(t *testing.T) {
	db := setupTestDB(t)
	res := New[models.TopBar]("/api/topbar", db, Hooks[models.TopBar, *models.TopBar]{}, Options{Singleton: true})
	router := setupTestRouter(res.RegisterRoutes)

	w := doJSON(router, http.MethodGet, "/api/topbar", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/topbar", gin.H{"phone": "+371 2000 0000", "isActive": true}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/topbar", gin.H{"phone": "1"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/topbar", gin.H{"phone": "+371 2999 9999", "isActive": true}, true)
	require.Equal(t, http.StatusOK, w.Code)

	var bar models.TopBar
	w = doJSON(router, http.MethodGet, "/api/topbar", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bar))
	assert.Equal(t, "+371 2999 9999", bar.Phone)
}
