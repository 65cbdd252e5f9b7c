package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/cache"
	"klinika/common"
	"klinika/models"
	"klinika/validation"
)

const sessionUserKey = "user_id"

type AdminModule struct {
	db     *gorm.DB
	tokens *Tokens
	cache  cache.Store
	log    *zap.Logger
}

// NewAdminModule wires login and admin maintenance endpoints. store may be nil when caching is off.
func NewAdminModule(db *gorm.DB, tokens *Tokens, store cache.Store, log *zap.Logger) *AdminModule {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminModule{db: db, tokens: tokens, cache: store, log: log}
}

func (a *AdminModule) RegisterRoutes(router gin.IRouter, limit gin.HandlerFunc) {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	router.POST("/api/auth/login", limit, a.login)
	router.POST("/api/auth/logout", a.logout)
	router.GET("/api/auth/me", common.RequireAdmin, a.me)
	router.POST("/api/admin/cache/clear", common.RequireAdmin, a.clearCache)
}

// Identify marks the request as admin when it carries a session or a valid bearer token.
func (a *AdminModule) Identify(c *gin.Context) {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionUserKey).(uint); ok && id != 0 {
		common.MarkAdmin(c, id)
		c.Next()
		return
	}

	if header := c.GetHeader("Authorization"); header != "" {
		id, err := a.tokens.Parse(header)
		if err != nil {
			a.log.Debug("rejected bearer token", zap.Error(err))
		} else {
			common.MarkAdmin(c, id)
		}
	}
	c.Next()
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *AdminModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, validation.FromBinding(err))
		return
	}

	var user models.User
	err := a.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		common.RespondError(c, err)
		return
	}
	if err != nil || !user.IsAdmin || !CheckPasswordHash(req.Password, user.PasswordHash) {
		a.log.Warn("failed login", zap.String("email", req.Email), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, expires, err := a.tokens.Generate(user.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		common.RespondError(c, err)
		return
	}

	a.log.Info("admin logged in", zap.Uint("user", user.ID))
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expires, "user": user})
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (a *AdminModule) me(c *gin.Context) {
	var user models.User
	err := a.db.WithContext(c.Request.Context()).First(&user, common.UserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *AdminModule) clearCache(c *gin.Context) {
	if a.cache != nil {
		if err := a.cache.Clear(c.Request.Context()); err != nil {
			common.RespondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

// SeedAdmin creates the configured admin user when it does not exist yet.
// An existing user keeps its password and is promoted to admin.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string, log *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var user models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if !user.IsAdmin {
			return db.WithContext(ctx).Model(&user).Update("is_admin", true).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user = models.User{Email: email, PasswordHash: hash, Name: "Administrator", IsAdmin: true}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}
	if log != nil {
		log.Info("admin user created", zap.String("email", email))
	}
	return nil
}
