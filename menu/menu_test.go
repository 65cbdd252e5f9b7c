package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
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
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MenuItem{}, &models.DropdownItem{}))
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Admin") == "1" {
			common.MarkAdmin(c, 1)
		}
		c.Next()
	})
	NewMenuModule(db).RegisterRoutes(router)
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

func strPtr(s string) *string { return &s }

func TestCreateMenuItem_WithDropdowns(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := doJSON(router, http.MethodPost, "/api/menu", map[string]any{
		"label":    "Pakalpojumi",
		"isActive": true,
		"dropdowns": []map[string]any{
			{"label": "Zobārstniecība", "href": "/pakalpojumi/zobarstnieciba", "order": 1, "isActive": true},
			{"label": "Higiēna", "href": "/pakalpojumi/higiena", "order": 0, "isActive": true},
		},
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item models.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Nil(t, item.Href)
	require.Len(t, item.Dropdowns, 2)
	assert.Equal(t, "Higiēna", item.Dropdowns[0].Label)
}

func TestCreateMenuItem_HrefAndDropdownsRejected(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := doJSON(router, http.MethodPost, "/api/menu", map[string]any{
		"label":     "Par mums",
		"href":      "/par-mums",
		"dropdowns": []map[string]any{{"label": "Komanda", "href": "/komanda"}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.MenuItem{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateMenuItem_InvalidDropdownRollsBack(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := doJSON(router, http.MethodPost, "/api/menu", map[string]any{
		"label":     "Pakalpojumi",
		"dropdowns": []map[string]any{{"label": "Bez saites"}},
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "dropdowns[0].href")

	var count int64
	db.Model(&models.MenuItem{}).Count(&count)
	assert.Zero(t, count)
}

func TestDropdown_ParentWithHrefRejected(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	link := &models.MenuItem{Label: "Kontakti", Href: strPtr("/kontakti"), IsActive: true}
	require.NoError(t, db.Create(link).Error)

	w := doJSON(router, http.MethodPost, "/api/menu/dropdown", map[string]any{
		"menuItemId": link.ID, "label": "Karte", "href": "/kontakti#karte",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/menu/dropdown", map[string]any{
		"menuItemId": 999, "label": "Karte", "href": "/karte",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMenuItem_HrefWithExistingDropdowns(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	parent := &models.MenuItem{Label: "Pakalpojumi", IsActive: true}
	require.NoError(t, db.Create(parent).Error)
	require.NoError(t, db.Create(&models.DropdownItem{MenuItemID: parent.ID, Label: "Higiēna", Href: "/higiena"}).Error)

	w := doJSON(router, http.MethodPut, "/api/menu", map[string]any{
		"id": parent.ID, "label": "Pakalpojumi", "href": "/pakalpojumi", "isActive": true,
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/menu", map[string]any{
		"id": parent.ID, "label": "Visi pakalpojumi", "href": "", "isActive": true,
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var item models.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Nil(t, item.Href)
	assert.Len(t, item.Dropdowns, 1)
}

func TestPublicTree(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	parent := &models.MenuItem{Label: "Pakalpojumi", SortOrder: 1, IsActive: true}
	hidden := &models.MenuItem{Label: "Melnraksts", SortOrder: 0, IsActive: false}
	home := &models.MenuItem{Label: "Sākums", Href: strPtr("/"), SortOrder: 0, IsActive: true}
	require.NoError(t, db.Create(parent).Error)
	require.NoError(t, db.Create(hidden).Error)
	require.NoError(t, db.Create(home).Error)
	require.NoError(t, db.Create(&models.DropdownItem{MenuItemID: parent.ID, Label: "Higiēna", Href: "/higiena", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.DropdownItem{MenuItemID: parent.ID, Label: "Slēpts", Href: "/slepts", IsActive: false}).Error)
	require.NoError(t, db.Create(&models.DropdownItem{MenuItemID: hidden.ID, Label: "Bārenis", Href: "/barenis", IsActive: true}).Error)

	w := doJSON(router, http.MethodGet, "/api/menu", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var tree []models.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Len(t, tree, 2)
	assert.Equal(t, "Sākums", tree[0].Label)
	assert.Empty(t, tree[0].Dropdowns)
	require.Len(t, tree[1].Dropdowns, 1)
	assert.Equal(t, "Higiēna", tree[1].Dropdowns[0].Label)

	w = doJSON(router, http.MethodGet, "/api/menu/dropdown", nil, false)
	var dropdowns []models.DropdownItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dropdowns))
	assert.Len(t, dropdowns, 1)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/menu/dropdown?menuItemId=%d", hidden.ID), nil, true)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dropdowns))
	assert.Len(t, dropdowns, 1)
}

func TestDeleteMenuItem_Cascades(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	parent := &models.MenuItem{Label: "Pakalpojumi", IsActive: true}
	require.NoError(t, db.Create(parent).Error)
	require.NoError(t, db.Create(&models.DropdownItem{MenuItemID: parent.ID, Label: "Higiēna", Href: "/higiena"}).Error)

	w := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/menu?id=%d", parent.ID), nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.DropdownItem{}).Count(&count)
	assert.Zero(t, count)

	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/menu?id=%d", parent.ID), nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
