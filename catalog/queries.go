package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/content"
	"klinika/crud"
	"klinika/models"
	"klinika/richtext"
	"klinika/validation"
)

func activeServiceIDs(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Service{}).Select("id").Where("is_active = ?", true)
}

func activeSubServiceIDs(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.SubService{}).Select("id").
		Where("is_active = ?", true).
		Where("service_id IN (?)", activeServiceIDs(db))
}

// publicSubServices hides sub-services that are inactive or sit under an inactive service.
func publicSubServices(db *gorm.DB) *gorm.DB {
	return content.Active(db).Where("service_id IN (?)", activeServiceIDs(db))
}

func publicSubSubServices(db *gorm.DB) *gorm.DB {
	return content.Active(db).Where("sub_service_id IN (?)", activeSubServiceIDs(db))
}

func activeSubSubServiceIDs(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.SubSubService{}).Select("id").
		Where("is_active = ?", true).
		Where("sub_service_id IN (?)", activeSubServiceIDs(db))
}

// publicFAQ hides FAQ items that are inactive or belong to a hidden sub-service or sub-sub-service.
// Site-wide items have neither parent.
func publicFAQ(db *gorm.DB) *gorm.DB {
	return content.Active(db).
		Where("(sub_service_id IS NULL OR sub_service_id IN (?))", activeSubServiceIDs(db)).
		Where("(sub_sub_service_id IS NULL OR sub_sub_service_id IN (?))", activeSubSubServiceIDs(db))
}

func servicePreloads(c *gin.Context, public bool) []content.Preload {
	var preloads []content.Preload
	withSub, withSubSub := queryBool(c, "includeSub"), queryBool(c, "includeSubSub")
	if withSub || withSubSub {
		preloads = append(preloads, content.Preload{Path: "SubServices", Scopes: visible(public)})
	}
	if withSubSub {
		preloads = append(preloads, content.Preload{Path: "SubServices.SubSubServices", Scopes: visible(public)})
	}
	return preloads
}

func subServicePreloads(c *gin.Context, public bool) []content.Preload {
	var preloads []content.Preload
	if !public || queryBool(c, "includeSubSub") {
		preloads = append(preloads, content.Preload{Path: "SubSubServices", Scopes: visible(public)})
	}
	if !public || queryBool(c, "includeFaq") {
		preloads = append(preloads, content.Preload{Path: "FAQ", Scopes: visible(public)})
	}
	return preloads
}

func subSubServicePreloads(c *gin.Context, public bool) []content.Preload {
	if !public || queryBool(c, "includeFaq") {
		return []content.Preload{{Path: "FAQ", Scopes: visible(public)}}
	}
	return nil
}

func idFilter(c *gin.Context, param, column string) ([]content.Scope, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	id, ok := crud.ParseID(raw)
	if !ok {
		return nil, validation.FieldErrors{param: "must be a positive integer"}
	}
	return []content.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", id)
	}}, nil
}

func subServiceFilters(c *gin.Context) ([]content.Scope, error) {
	scopes, err := idFilter(c, "serviceId", "service_id")
	if err != nil {
		return nil, err
	}
	if href := c.Query("service"); href != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("service_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Service{}).Select("id").Where("href = ?", href))
		})
	}
	return scopes, nil
}

func subSubServiceFilters(c *gin.Context) ([]content.Scope, error) {
	return idFilter(c, "subServiceId", "sub_service_id")
}

func faqFilters(c *gin.Context) ([]content.Scope, error) {
	var scopes []content.Scope
	for param, column := range map[string]string{
		"subServiceId":    "sub_service_id",
		"subSubServiceId": "sub_sub_service_id",
	} {
		s, err := idFilter(c, param, column)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, s...)
	}
	if c.Query("scope") == "site" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("sub_service_id IS NULL AND sub_sub_service_id IS NULL")
		})
	}
	if category := c.Query("category"); category != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("category = ?", category)
		})
	}
	return scopes, nil
}

func presentService(c *gin.Context, rec *models.Service) {
	for i := range rec.SubServices {
		presentSubService(c, &rec.SubServices[i])
	}
}

func presentSubService(c *gin.Context, rec *models.SubService) {
	rec.Preview = richtext.Excerpt(rec.Content, richtext.PreviewLength)
	rec.Images = rec.Gallery()
	for i := range rec.SubSubServices {
		presentSubSubService(c, &rec.SubSubServices[i])
	}
}

func presentSubSubService(_ *gin.Context, rec *models.SubSubService) {
	rec.Preview = richtext.Excerpt(rec.Content, richtext.PreviewLength)
}

func (m *CatalogModule) serviceByHref(c *gin.Context) {
	public := !common.IsAdmin(c)
	href := c.Param("href")

	opts := content.ListOptions{
		Scopes: append(visible(public), func(db *gorm.DB) *gorm.DB {
			return db.Where("href = ?", href)
		}),
		Preloads: []content.Preload{{Path: "SubServices", Scopes: visible(public)}},
	}
	if queryBool(c, "includeSubSub") {
		opts.Preloads = append(opts.Preloads, content.Preload{Path: "SubServices.SubSubServices", Scopes: visible(public)})
	}

	rec, err := m.services.Store().First(c.Request.Context(), opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	presentService(c, rec)
	c.JSON(http.StatusOK, rec)
}

func (m *CatalogModule) subServiceDetailOptions(c *gin.Context, public bool) content.ListOptions {
	opts := content.ListOptions{
		Preloads: []content.Preload{
			{Path: "Service"},
			{Path: "FAQ", Scopes: visible(public)},
			{Path: "SubSubServices", Scopes: visible(public)},
		},
	}
	if public {
		opts.Scopes = append(opts.Scopes, publicSubServices)
	}
	return opts
}

// subServiceByRef answers /api/sub-services/:ref where ref is a numeric id or a service href.
func (m *CatalogModule) subServiceByRef(c *gin.Context) {
	public := !common.IsAdmin(c)
	ref := c.Param("ref")
	ctx := c.Request.Context()

	if id, ok := crud.ParseID(ref); ok {
		rec, err := m.subs.Store().Get(ctx, id, m.subServiceDetailOptions(c, public))
		if err != nil {
			common.RespondError(c, err)
			return
		}
		presentSubService(c, rec)
		c.JSON(http.StatusOK, rec)
		return
	}

	svc, err := m.services.Store().First(ctx, content.ListOptions{
		Scopes: append(visible(public), func(db *gorm.DB) *gorm.DB {
			return db.Where("href = ?", ref)
		}),
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	opts := content.ListOptions{
		Scopes: append(visible(public), func(db *gorm.DB) *gorm.DB {
			return db.Where("service_id = ?", svc.ID)
		}),
		Preloads: subServicePreloads(c, public),
	}
	items, err := m.subs.Store().List(ctx, opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	for i := range items {
		presentSubService(c, &items[i])
	}
	c.JSON(http.StatusOK, items)
}

// subServiceBySlug answers /api/sub-services/:serviceHref/:slug.
func (m *CatalogModule) subServiceBySlug(c *gin.Context) {
	public := !common.IsAdmin(c)
	href, slug := c.Param("ref"), c.Param("slug")

	opts := m.subServiceDetailOptions(c, public)
	opts.Scopes = append(opts.Scopes, func(db *gorm.DB) *gorm.DB {
		return db.Where("slug = ?", slug).
			Where("service_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Service{}).Select("id").Where("href = ?", href))
	})

	rec, err := m.subs.Store().First(c.Request.Context(), opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	presentSubService(c, rec)
	c.JSON(http.StatusOK, rec)
}

func (m *CatalogModule) subSubServiceDetailOptions(public bool) content.ListOptions {
	opts := content.ListOptions{
		Preloads: []content.Preload{
			{Path: "SubService"},
			{Path: "FAQ", Scopes: visible(public)},
		},
	}
	if public {
		opts.Scopes = append(opts.Scopes, publicSubSubServices)
	}
	return opts
}

// parentIDs returns the ids of sub-services with the given slug in display order,
// optionally narrowed to one service href.
func (m *CatalogModule) parentIDs(c *gin.Context, slug string, public bool) ([]uint, error) {
	scopes := []content.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("slug = ?", slug)
	}}
	if public {
		scopes = append(scopes, publicSubServices)
	}
	if href := c.Query("service"); href != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("service_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Service{}).Select("id").Where("href = ?", href))
		})
	}

	parents, err := m.subs.Store().List(c.Request.Context(), content.ListOptions{Scopes: scopes})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(parents))
	for _, p := range parents {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// subSubServiceByRef answers /api/sub-sub-services/:ref where ref is a numeric id or a parent slug.
func (m *CatalogModule) subSubServiceByRef(c *gin.Context) {
	public := !common.IsAdmin(c)
	ref := c.Param("ref")
	ctx := c.Request.Context()

	if id, ok := crud.ParseID(ref); ok {
		rec, err := m.subSubs.Store().Get(ctx, id, m.subSubServiceDetailOptions(public))
		if err != nil {
			common.RespondError(c, err)
			return
		}
		presentSubSubService(c, rec)
		c.JSON(http.StatusOK, rec)
		return
	}

	parents, err := m.parentIDs(c, ref, public)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if len(parents) == 0 {
		common.RespondError(c, content.ErrNotFound)
		return
	}

	items, err := m.subSubs.Store().List(ctx, content.ListOptions{
		Scopes: append(visible(public), func(db *gorm.DB) *gorm.DB {
			return db.Where("sub_service_id = ?", parents[0])
		}),
		Preloads: subSubServicePreloads(c, public),
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	for i := range items {
		presentSubSubService(c, &items[i])
	}
	c.JSON(http.StatusOK, items)
}

// subSubServiceBySlug answers /api/sub-sub-services/:parentSlug/:slug. When several
// sub-services share the parent slug, the first one in display order with a match wins.
func (m *CatalogModule) subSubServiceBySlug(c *gin.Context) {
	public := !common.IsAdmin(c)
	ref, slug := c.Param("ref"), c.Param("slug")
	ctx := c.Request.Context()

	parents, err := m.parentIDs(c, ref, public)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	for _, parentID := range parents {
		parentID := parentID
		opts := m.subSubServiceDetailOptions(public)
		opts.Scopes = append(opts.Scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("sub_service_id = ? AND slug = ?", parentID, slug)
		})
		rec, err := m.subSubs.Store().First(ctx, opts)
		if err == nil {
			presentSubSubService(c, rec)
			c.JSON(http.StatusOK, rec)
			return
		}
		if !errors.Is(err, content.ErrNotFound) {
			common.RespondError(c, err)
			return
		}
	}
	common.RespondError(c, content.ErrNotFound)
}
