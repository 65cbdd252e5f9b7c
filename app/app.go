package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/admin"
	"klinika/analytics"
	"klinika/appointment"
	"klinika/blog"
	"klinika/cache"
	"klinika/catalog"
	"klinika/common"
	"klinika/config"
	"klinika/menu"
	"klinika/middleware"
	"klinika/site"
	"klinika/upload"
)

const sessionName = "klinika-session"

// Services are the collaborators the router is built from. Cache, Storage and
// Notifier may be nil.
type Services struct {
	DB          *gorm.DB
	AnalyticsDB *gorm.DB
	Cache       cache.Store
	Storage     upload.Storage
	Notifier    appointment.Notifier
	Limiter     *middleware.RateLimiter
	Log         *zap.Logger
}

// App is the assembled HTTP application.
type App struct {
	Router    *gin.Engine
	Analytics *analytics.AnalyticsModule
	Limiters  []*middleware.RateLimiter
}

func New(cfg *config.Config, s Services) (*App, error) {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.Limiter == nil {
		s.Limiter = middleware.NewRateLimiter(cfg.SubmissionsPerMin, s.Log)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(common.RequestLogger(s.Log), common.Recovery(s.Log))
	origins := cfg.Origins()
	if len(origins) == 0 {
		origins = []string{cfg.Domain}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(sessionName, store))

	adminModule := admin.NewAdminModule(s.DB, admin.NewTokens(cfg.JWTSecret, cfg.JWTExpiryHours), s.Cache, s.Log)
	router.Use(adminModule.Identify)
	if s.Cache != nil {
		router.Use(cache.Middleware(s.Cache, "/api/", []string{"/api/jaunumi/"}, s.Log))
	}

	analyticsModule, err := analytics.NewAnalyticsModule(s.AnalyticsDB, s.DB, s.Log)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	logins := middleware.NewRateLimiter(cfg.SubmissionsPerMin, s.Log)
	adminModule.RegisterRoutes(router, logins.Handler())
	catalog.NewCatalogModule(s.DB, s.Log).RegisterRoutes(router)
	menu.NewMenuModule(s.DB).RegisterRoutes(router)
	appointment.NewAppointmentModule(s.DB, s.Notifier, s.Limiter.Handler(), s.Log).RegisterRoutes(router)
	blog.NewBlogModule(s.DB, analyticsModule, s.Log).RegisterRoutes(router)
	site.NewSiteModule(s.DB, cfg.Domain).RegisterRoutes(router)
	analyticsModule.RegisterRoutes(router)
	if s.Storage != nil {
		upload.NewUploadModule(s.Storage, cfg.MaxUploadMB, s.Log).RegisterRoutes(router)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &App{
		Router:    router,
		Analytics: analyticsModule,
		Limiters:  []*middleware.RateLimiter{s.Limiter, logins},
	}, nil
}
