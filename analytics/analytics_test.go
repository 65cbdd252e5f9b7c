package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/models"
)

func setupTestModule(t *testing.T) (*AnalyticsModule, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BlogPost{}))

	a, err := NewAnalyticsModule(nil, db, nil)
	require.NoError(t, err)
	return a, db
}

func trackRequest(a *AnalyticsModule, postID uint, cookie string) (bool, *httptest.ResponseRecorder, error) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/jaunumi/x", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept-Language", "lv-LV,lv;q=0.9,en;q=0.8")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: visitorCookie, Value: cookie})
	}
	c.Request = req
	counted, err := a.TrackView(c, postID)
	return counted, w, err
}

func TestTrackView_Throttles(t *testing.T) {
	a, _ := setupTestModule(t)

	counted, w, err := trackRequest(a, 1, "")
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Contains(t, w.Header().Get("Set-Cookie"), visitorCookie)

	counted, _, err = trackRequest(a, 1, "visitor-a")
	require.NoError(t, err)
	assert.True(t, counted)

	counted, _, err = trackRequest(a, 1, "visitor-a")
	require.NoError(t, err)
	assert.False(t, counted, "same visitor within the throttle window")

	counted, _, err = trackRequest(a, 2, "visitor-a")
	require.NoError(t, err)
	assert.True(t, counted, "other post")

	a.now = func() time.Time { return time.Now().Add(ViewThrottle + time.Minute) }
	counted, _, err = trackRequest(a, 1, "visitor-a")
	require.NoError(t, err)
	assert.True(t, counted, "window elapsed")

	var view PostView
	require.NoError(t, a.events.Where("visitor_id = ?", "visitor-a").First(&view).Error)
	require.NotNil(t, view.Browser)
	assert.Equal(t, "Chrome", *view.Browser)
	require.NotNil(t, view.Language)
	assert.Equal(t, "lv-LV", *view.Language)
}

func TestTrackView_NilModuleCountsEverything(t *testing.T) {
	var a *AnalyticsModule
	counted, err := a.TrackView(nil, 1)
	require.NoError(t, err)
	assert.True(t, counted)
}

func TestVisitsAndTopPosts(t *testing.T) {
	a, db := setupTestModule(t)
	ctx := context.Background()

	first := &models.BlogPost{Title: "Zobu higiēna", Slug: "zobu-higiena"}
	second := &models.BlogPost{Title: "Implanti", Slug: "implanti"}
	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(second).Error)

	now := time.Now().UTC()
	views := []PostView{
		{PostID: first.ID, VisitorID: "a", IP: "1", CreatedAt: now},
		{PostID: first.ID, VisitorID: "b", IP: "1", CreatedAt: now},
		{PostID: second.ID, VisitorID: "a", IP: "1", CreatedAt: now.AddDate(0, 0, -1)},
		{PostID: second.ID, VisitorID: "c", IP: "1", CreatedAt: now.AddDate(0, 0, -100)},
	}
	require.NoError(t, a.events.Create(&views).Error)

	days, err := a.VisitsByDay(ctx, 7)
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, now.Format("2006-01-02"), days[6].Date)
	assert.Equal(t, int64(2), days[6].Count)
	assert.Equal(t, int64(1), days[5].Count)

	top, err := a.TopPosts(ctx, 30, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Zobu higiēna", top[0].PostTitle)
	assert.Equal(t, int64(2), top[0].Count)
	assert.Equal(t, "implanti", top[1].PostSlug)

	removed, err := a.Prune(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestEndpoints_AdminOnly(t *testing.T) {
	a, _ := setupTestModule(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Admin") == "1" {
			common.MarkAdmin(c, 1)
		}
		c.Next()
	})
	a.RegisterRoutes(router)

	get := func(path string, admin bool) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		if admin {
			req.Header.Set("X-Test-Admin", "1")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, get("/api/analytics/visits", false).Code)

	w := get("/api/analytics/visits?days=3", true)
	require.Equal(t, http.StatusOK, w.Code)
	var days []DayVisits
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &days))
	assert.Len(t, days, 3)

	assert.Equal(t, http.StatusBadRequest, get("/api/analytics/visits?days=abc", true).Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/analytics/top?limit=0", true).Code)

	w = get("/api/analytics/top", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
