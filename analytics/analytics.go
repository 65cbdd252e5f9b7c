package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/models"
)

const (
	visitorCookie  = "klinika_visitor_id"
	ViewThrottle   = 30 * time.Minute
	defaultDays    = 30
	maxDays        = 365
	defaultTopSize = 10
)

// PostView is one counted visit of a blog post.
type PostView struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	VisitorID string    `gorm:"not null;index" json:"-"`
	IP        string    `gorm:"not null" json:"-"`
	Language  *string   `json:"language"`
	Browser   *string   `json:"browser"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// AnalyticsModule records post views in events and reports on them.
// content is the main database, used to resolve post titles.
type AnalyticsModule struct {
	events  *gorm.DB
	content *gorm.DB
	log     *zap.Logger
	now     func() time.Time
}

// NewAnalyticsModule falls back to the content database when events is nil.
func NewAnalyticsModule(events, content *gorm.DB, log *zap.Logger) (*AnalyticsModule, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = content
	}
	if err := events.AutoMigrate(&PostView{}); err != nil {
		return nil, err
	}
	return &AnalyticsModule{events: events, content: content, log: log, now: time.Now}, nil
}

func (a *AnalyticsModule) RegisterRoutes(router gin.IRouter) {
	g := router.Group("/api/analytics", common.RequireAdmin)
	g.GET("/visits", a.visits)
	g.GET("/top", a.top)
}

// TrackView records a view unless the same visitor saw the post within ViewThrottle.
// It reports whether the view was counted. A nil module counts every view.
func (a *AnalyticsModule) TrackView(c *gin.Context, postID uint) (bool, error) {
	if a == nil {
		return true, nil
	}

	visitorID := a.visitorID(c)
	now := a.now().UTC()

	var recent int64
	err := a.events.WithContext(c.Request.Context()).Model(&PostView{}).
		Where("visitor_id = ? AND post_id = ? AND created_at > ?", visitorID, postID, now.Add(-ViewThrottle)).
		Count(&recent).Error
	if err != nil {
		return false, err
	}
	if recent > 0 {
		return false, nil
	}

	view := PostView{
		PostID:    postID,
		VisitorID: visitorID,
		IP:        clientIP(c),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		Browser:   extractBrowser(c.Request.UserAgent()),
		CreatedAt: now,
	}
	if err := a.events.WithContext(c.Request.Context()).Create(&view).Error; err != nil {
		return false, err
	}
	return true, nil
}

// Prune deletes views older than retention.
func (a *AnalyticsModule) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	res := a.events.WithContext(ctx).
		Where("created_at < ?", a.now().UTC().Add(-retention)).
		Delete(&PostView{})
	return res.RowsAffected, res.Error
}

func (a *AnalyticsModule) visitorID(c *gin.Context) string {
	if cookie, err := c.Cookie(visitorCookie); err == nil && cookie != "" {
		return cookie
	}

	data := a.now().String() + c.ClientIP() + c.Request.UserAgent()
	hash := sha256.Sum256([]byte(data))
	id := hex.EncodeToString(hash[:])

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(visitorCookie, id, 60*60*24*365*2, "/", "", c.Request.TLS != nil, true)
	return id
}

func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// more specific engines first
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "msie") || strings.Contains(ua, "trident"):
		browser = "Internet Explorer"
	default:
		browser = "Other"
	}
	return &browser
}

// extractLanguage returns the first entry of an Accept-Language header.
func extractLanguage(header string) *string {
	if header == "" {
		return nil
	}
	lang := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	if lang == "" {
		return nil
	}
	return &lang
}

type DayVisits struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PostVisits struct {
	PostID    uint   `json:"postId"`
	PostTitle string `json:"postTitle"`
	PostSlug  string `json:"postSlug"`
	Count     int64  `json:"count"`
}

// VisitsByDay returns one entry per UTC day of the last days days, oldest first.
func (a *AnalyticsModule) VisitsByDay(ctx context.Context, days int) ([]DayVisits, error) {
	today := a.now().UTC()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	var views []PostView
	err := a.events.WithContext(ctx).Select("created_at").
		Where("created_at >= ?", start).
		Find(&views).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, days)
	for _, v := range views {
		counts[v.CreatedAt.UTC().Format("2006-01-02")]++
	}

	result := make([]DayVisits, days)
	for i := range result {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		result[i] = DayVisits{Date: date, Count: counts[date]}
	}
	return result, nil
}

// TopPosts returns the most viewed posts of the last days days.
func (a *AnalyticsModule) TopPosts(ctx context.Context, days, limit int) ([]PostVisits, error) {
	since := a.now().UTC().AddDate(0, 0, -days)

	results := []PostVisits{}
	err := a.events.WithContext(ctx).Model(&PostView{}).
		Select("post_id, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("post_id").
		Order("count DESC, post_id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil || len(results) == 0 {
		return results, err
	}

	ids := make([]uint, len(results))
	for i, r := range results {
		ids[i] = r.PostID
	}
	var posts []models.BlogPost
	if err := a.content.WithContext(ctx).Select("id", "title", "slug").Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.BlogPost, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	for i := range results {
		p := byID[results[i].PostID]
		results[i].PostTitle = p.Title
		results[i].PostSlug = p.Slug
	}
	return results, nil
}

func intQuery(c *gin.Context, key string, def, max int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > max {
		n = max
	}
	return n, true
}

func (a *AnalyticsModule) visits(c *gin.Context) {
	days, ok := intQuery(c, "days", defaultDays, maxDays)
	if !ok {
		common.BadRequest(c, "days", "must be a positive integer")
		return
	}
	result, err := a.VisitsByDay(c.Request.Context(), days)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *AnalyticsModule) top(c *gin.Context) {
	days, ok := intQuery(c, "days", defaultDays, maxDays)
	if !ok {
		common.BadRequest(c, "days", "must be a positive integer")
		return
	}
	limit, ok := intQuery(c, "limit", defaultTopSize, 100)
	if !ok {
		common.BadRequest(c, "limit", "must be a positive integer")
		return
	}
	result, err := a.TopPosts(c.Request.Context(), days, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
