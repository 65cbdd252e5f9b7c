package catalog

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/content"
	"klinika/crud"
	"klinika/models"
)

// CatalogModule serves the Service > SubService > SubSubService tree and the FAQ.
type CatalogModule struct {
	db       *gorm.DB
	log      *zap.Logger
	services *crud.Resource[models.Service, *models.Service]
	subs     *crud.Resource[models.SubService, *models.SubService]
	subSubs  *crud.Resource[models.SubSubService, *models.SubSubService]
	faq      *crud.Resource[models.FAQItem, *models.FAQItem]
}

func NewCatalogModule(db *gorm.DB, log *zap.Logger) *CatalogModule {
	if log == nil {
		log = zap.NewNop()
	}
	m := &CatalogModule{db: db, log: log}

	m.services = crud.New("/api/services", db, crud.Hooks[models.Service, *models.Service]{
		Preloads: servicePreloads,
		Prepare:  prepareService,
		Delete: func(ctx context.Context, tx *gorm.DB, id uint) error {
			return DeleteService(tx.WithContext(ctx), id)
		},
		Present: presentService,
	}, crud.Options{IDRoutes: true, NoGetByID: true})

	m.subs = crud.New("/api/sub-services", db, crud.Hooks[models.SubService, *models.SubService]{
		Filters:     subServiceFilters,
		Public:      publicSubServices,
		Preloads:    subServicePreloads,
		Prepare:     prepareSubService,
		AfterCreate: createNested,
		Delete: func(ctx context.Context, tx *gorm.DB, id uint) error {
			return DeleteSubService(tx.WithContext(ctx), id)
		},
		Present: presentSubService,
	}, crud.Options{IDRoutes: true, NoGetByID: true})

	m.subSubs = crud.New("/api/sub-sub-services", db, crud.Hooks[models.SubSubService, *models.SubSubService]{
		Filters:  subSubServiceFilters,
		Public:   publicSubSubServices,
		Preloads: subSubServicePreloads,
		Prepare:  prepareSubSubService,
		Delete: func(ctx context.Context, tx *gorm.DB, id uint) error {
			return DeleteSubSubService(tx.WithContext(ctx), id)
		},
		Present: presentSubSubService,
	}, crud.Options{IDRoutes: true, NoGetByID: true})

	m.faq = crud.New("/api/faq", db, crud.Hooks[models.FAQItem, *models.FAQItem]{
		Filters: faqFilters,
		Public:  publicFAQ,
		Prepare: prepareFAQ,
	}, crud.Options{IDRoutes: true})

	return m
}

func (m *CatalogModule) RegisterRoutes(router gin.IRouter) {
	m.services.RegisterRoutes(router)
	router.GET("/api/services/:href", m.serviceByHref)

	m.subs.RegisterRoutes(router)
	router.GET("/api/sub-services/:ref", m.subServiceByRef)
	router.GET("/api/sub-services/:ref/:slug", m.subServiceBySlug)

	m.subSubs.RegisterRoutes(router)
	router.GET("/api/sub-sub-services/:ref", m.subSubServiceByRef)
	router.GET("/api/sub-sub-services/:ref/:slug", m.subSubServiceBySlug)

	m.faq.RegisterRoutes(router)
}

func queryBool(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "true" || v == "1"
}

func visible(public bool) []content.Scope {
	if public {
		return []content.Scope{content.Active}
	}
	return nil
}
