package site

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/models"
)

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

var staticPages = []urlEntry{
	{Loc: "/", ChangeFreq: "weekly", Priority: "1.0"},
	{Loc: "/pakalpojumi", ChangeFreq: "weekly", Priority: "0.9"},
	{Loc: "/cenas", ChangeFreq: "monthly", Priority: "0.8"},
	{Loc: "/jaunumi", ChangeFreq: "daily", Priority: "0.8"},
	{Loc: "/kontakti", ChangeFreq: "monthly", Priority: "0.7"},
}

func lastMod(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// buildSitemap lists every page a public visitor can reach.
func (s *SiteModule) buildSitemap(db *gorm.DB) (*urlSet, error) {
	set := &urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPages {
		p.Loc = s.domain + p.Loc
		set.URLs = append(set.URLs, p)
	}

	var services []models.Service
	err := db.Where("is_active = ?", true).
		Preload("SubServices", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
		}).
		Preload("SubServices.SubSubServices", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
		}).
		Order("sort_order ASC, id ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}

	for _, svc := range services {
		base := s.domain + "/pakalpojumi/" + svc.Href
		set.URLs = append(set.URLs, urlEntry{Loc: base, LastMod: lastMod(svc.UpdatedAt), ChangeFreq: "monthly", Priority: "0.8"})
		for _, sub := range svc.SubServices {
			subURL := base + "/" + sub.Slug
			set.URLs = append(set.URLs, urlEntry{Loc: subURL, LastMod: lastMod(sub.UpdatedAt), ChangeFreq: "monthly", Priority: "0.7"})
			for _, child := range sub.SubSubServices {
				set.URLs = append(set.URLs, urlEntry{Loc: subURL + "/" + child.Slug, LastMod: lastMod(child.UpdatedAt), ChangeFreq: "monthly", Priority: "0.6"})
			}
		}
	}

	var posts []models.BlogPost
	err = db.Select("slug", "updated_at").
		Where("published = ?", true).
		Order("COALESCE(published_at, created_at) DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        s.domain + "/jaunumi/" + post.Slug,
			LastMod:    lastMod(post.UpdatedAt),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		})
	}
	return set, nil
}

func (s *SiteModule) sitemap(c *gin.Context) {
	set, err := s.buildSitemap(s.db.WithContext(c.Request.Context()))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
