package site

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"klinika/content"
	"klinika/crud"
	"klinika/models"
	"klinika/validation"
)

type routes interface {
	RegisterRoutes(router gin.IRouter)
}

// SiteModule serves the site settings and simple content lists.
type SiteModule struct {
	db        *gorm.DB
	domain    string
	resources []routes
}

func NewSiteModule(db *gorm.DB, domain string) *SiteModule {
	singleton := crud.Options{Singleton: true}
	list := crud.Options{IDRoutes: true}

	s := &SiteModule{db: db, domain: strings.TrimSuffix(domain, "/")}
	s.resources = []routes{
		crud.New("/api/contact-info", db, crud.Hooks[models.ContactInfo, *models.ContactInfo]{}, singleton),
		crud.New("/api/footer-settings", db, crud.Hooks[models.FooterSettings, *models.FooterSettings]{}, singleton),
		crud.New("/api/topbar", db, crud.Hooks[models.TopBar, *models.TopBar]{}, singleton),
		crud.New("/api/experience-content", db, crud.Hooks[models.ExperienceContent, *models.ExperienceContent]{}, singleton),

		crud.New("/api/contact-benefits", db, crud.Hooks[models.ContactBenefit, *models.ContactBenefit]{}, list),
		crud.New("/api/contact-services", db, crud.Hooks[models.ContactService, *models.ContactService]{}, list),
		crud.New("/api/social-links", db, crud.Hooks[models.SocialLink, *models.SocialLink]{}, list),
		crud.New("/api/quick-links", db, crud.Hooks[models.QuickLink, *models.QuickLink]{}, list),
		crud.New("/api/slider", db, crud.Hooks[models.Slide, *models.Slide]{}, list),
		crud.New("/api/testimonials", db, crud.Hooks[models.Testimonial, *models.Testimonial]{
			Filters: testimonialFilters,
		}, list),
		crud.New("/api/experience-stats", db, crud.Hooks[models.ExperienceStat, *models.ExperienceStat]{}, list),
		crud.New("/api/info", db, crud.Hooks[models.InfoBlock, *models.InfoBlock]{}, list),

		crud.New("/api/pricing", db, crud.Hooks[models.PricingGroup, *models.PricingGroup]{
			Preloads: pricingPreloads,
			Prepare: func(_ context.Context, _ *gorm.DB, rec, _ *models.PricingGroup) error {
				rec.Items = nil
				return nil
			},
			Delete: deletePricingGroup,
		}, crud.Options{}),
		crud.New("/api/pricing/items", db, crud.Hooks[models.PricingItem, *models.PricingItem]{
			Filters: pricingItemFilters,
			Public:  publicPricingItems,
			Prepare: preparePricingItem,
		}, list),
	}
	return s
}

func (s *SiteModule) RegisterRoutes(router gin.IRouter) {
	for _, r := range s.resources {
		r.RegisterRoutes(router)
	}
	router.GET("/sitemap.xml", s.sitemap)
}

func testimonialFilters(c *gin.Context) ([]content.Scope, error) {
	service := strings.TrimSpace(c.Query("service"))
	if service == "" {
		return nil, nil
	}
	return []content.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("service = ?", service)
	}}, nil
}

func pricingPreloads(_ *gin.Context, public bool) []content.Preload {
	p := content.Preload{Path: "Items"}
	if public {
		p.Scopes = []content.Scope{content.Active}
	}
	return []content.Preload{p}
}

func deletePricingGroup(ctx context.Context, tx *gorm.DB, id uint) error {
	tx = tx.WithContext(ctx)
	res := tx.Delete(&models.PricingGroup{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return content.ErrNotFound
	}
	return tx.Where("group_id = ?", id).Delete(&models.PricingItem{}).Error
}

func pricingItemFilters(c *gin.Context) ([]content.Scope, error) {
	raw := c.Query("groupId")
	if raw == "" {
		return nil, nil
	}
	id, ok := crud.ParseID(raw)
	if !ok {
		return nil, validation.FieldErrors{"groupId": "must be a positive integer"}
	}
	return []content.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", id)
	}}, nil
}

func publicPricingItems(db *gorm.DB) *gorm.DB {
	groups := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.PricingGroup{}).Select("id").Where("is_active = ?", true)
	return db.Where("is_active = ? AND group_id IN (?)", true, groups)
}

func preparePricingItem(ctx context.Context, tx *gorm.DB, rec, _ *models.PricingItem) error {
	err := tx.WithContext(ctx).Select("id").First(&models.PricingGroup{}, rec.GroupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validation.FieldErrors{"groupId": fmt.Sprintf("pricing group %d does not exist", rec.GroupID)}
	}
	return err
}
