package crud

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/content"
	"klinika/models"
	"klinika/validation"
)

// Hooks customise a Resource. Every field is optional.
type Hooks[T any, PT interface {
	*T
	models.Record
}] struct {
	// Filters narrows GET lists from query parameters.
	Filters func(c *gin.Context) ([]content.Scope, error)
	// Public restricts what non-admin callers can read. Defaults to content.Active.
	Public   content.Scope
	Preloads func(c *gin.Context, public bool) []content.Preload
	Order    func(c *gin.Context) string
	// Prepare runs inside the write transaction before the row is stored.
	// existing is nil on create.
	Prepare     func(ctx context.Context, tx *gorm.DB, rec PT, existing PT) error
	AfterCreate func(ctx context.Context, tx *gorm.DB, rec PT) error
	// Delete replaces the plain row delete, e.g. to cascade.
	Delete  func(ctx context.Context, tx *gorm.DB, id uint) error
	Present func(c *gin.Context, rec PT)
}

type Options struct {
	// Singleton resources hold at most one row; GET returns it as an object.
	Singleton bool
	// IDRoutes adds /:id variants of GET, PUT and DELETE.
	IDRoutes bool
	// NoGetByID leaves GET /:id to the owning module.
	NoGetByID bool
}

// Resource serves GET/POST/PUT/DELETE for one table.
type Resource[T any, PT interface {
	*T
	models.Record
}] struct {
	path  string
	store *content.Store[T, PT]
	hooks Hooks[T, PT]
	opts  Options
}

func New[T any, PT interface {
	*T
	models.Record
}](path string, db *gorm.DB, hooks Hooks[T, PT], opts Options) *Resource[T, PT] {
	validation.Setup()
	return &Resource[T, PT]{
		path:  path,
		store: content.NewStore[T, PT](db),
		hooks: hooks,
		opts:  opts,
	}
}

func (r *Resource[T, PT]) Store() *content.Store[T, PT] {
	return r.store
}

func (r *Resource[T, PT]) RegisterRoutes(router gin.IRouter) {
	router.GET(r.path, r.list)
	router.POST(r.path, common.RequireAdmin, r.create)
	router.PUT(r.path, common.RequireAdmin, r.update)
	router.DELETE(r.path, common.RequireAdmin, r.remove)

	if r.opts.IDRoutes {
		if !r.opts.NoGetByID {
			router.GET(r.path+"/:id", r.getOne)
		}
		router.PUT(r.path+"/:id", common.RequireAdmin, r.update)
		router.DELETE(r.path+"/:id", common.RequireAdmin, r.remove)
	}
}

// ParseID reads a positive integer id.
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParseLimit reads the optional limit query parameter.
func ParseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (r *Resource[T, PT]) readOptions(c *gin.Context) (content.ListOptions, error) {
	public := !common.IsAdmin(c)
	opts := content.ListOptions{}
	if public {
		scope := r.hooks.Public
		if scope == nil {
			scope = content.Active
		}
		opts.Scopes = append(opts.Scopes, scope)
	}
	if r.hooks.Filters != nil {
		scopes, err := r.hooks.Filters(c)
		if err != nil {
			return opts, err
		}
		opts.Scopes = append(opts.Scopes, scopes...)
	}
	if r.hooks.Preloads != nil {
		opts.Preloads = r.hooks.Preloads(c, public)
	}
	if r.hooks.Order != nil {
		opts.Order = r.hooks.Order(c)
	}
	return opts, nil
}

func (r *Resource[T, PT]) present(c *gin.Context, rec PT) PT {
	if r.hooks.Present != nil {
		r.hooks.Present(c, rec)
	}
	return rec
}

func (r *Resource[T, PT]) list(c *gin.Context) {
	if raw := c.Query("id"); raw != "" {
		r.getByID(c, raw)
		return
	}

	opts, err := r.readOptions(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if r.opts.Singleton {
		rec, err := r.store.First(c.Request.Context(), opts)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, r.present(c, rec))
		return
	}

	limit, ok := ParseLimit(c)
	if !ok {
		common.BadRequest(c, "limit", "must be a non-negative integer")
		return
	}
	opts.Limit = limit

	items, err := r.store.List(c.Request.Context(), opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	for i := range items {
		r.present(c, PT(&items[i]))
	}
	c.JSON(http.StatusOK, items)
}

func (r *Resource[T, PT]) getOne(c *gin.Context) {
	r.getByID(c, c.Param("id"))
}

func (r *Resource[T, PT]) getByID(c *gin.Context, raw string) {
	id, ok := ParseID(raw)
	if !ok {
		common.BadRequest(c, "id", "must be a positive integer")
		return
	}
	opts, err := r.readOptions(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	rec, err := r.store.Get(c.Request.Context(), id, opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r.present(c, rec))
}

// respond reloads the written row with the admin view so nested input is not echoed back.
func (r *Resource[T, PT]) respond(c *gin.Context, status int, id uint) {
	opts := content.ListOptions{}
	if r.hooks.Preloads != nil {
		opts.Preloads = r.hooks.Preloads(c, false)
	}
	rec, err := r.store.Get(c.Request.Context(), id, opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(status, r.present(c, rec))
}

func (r *Resource[T, PT]) create(c *gin.Context) {
	rec := PT(new(T))
	if err := c.ShouldBindJSON(rec); err != nil {
		common.RespondError(c, validation.FromBinding(err))
		return
	}
	*rec.Meta() = models.Base{}

	ctx := c.Request.Context()
	err := r.store.Transaction(ctx, func(tx *content.Store[T, PT]) error {
		if r.opts.Singleton {
			exists, err := tx.Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				return validation.NewConflict("id", "%s already exists, update it instead", r.path)
			}
		}
		if r.hooks.Prepare != nil {
			if err := r.hooks.Prepare(ctx, tx.DB(ctx), rec, nil); err != nil {
				return err
			}
		}
		if err := tx.Create(ctx, rec); err != nil {
			return err
		}
		if r.hooks.AfterCreate != nil {
			return r.hooks.AfterCreate(ctx, tx.DB(ctx), rec)
		}
		return nil
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	r.respond(c, http.StatusCreated, rec.Meta().ID)
}

func (r *Resource[T, PT]) update(c *gin.Context) {
	var id uint
	if raw := c.Param("id"); raw != "" {
		var ok bool
		if id, ok = ParseID(raw); !ok {
			common.BadRequest(c, "id", "must be a positive integer")
			return
		}
	} else if raw := c.Query("id"); raw != "" {
		var ok bool
		if id, ok = ParseID(raw); !ok {
			common.BadRequest(c, "id", "must be a positive integer")
			return
		}
	}

	rec := PT(new(T))
	if err := c.ShouldBindJSON(rec); err != nil {
		common.RespondError(c, validation.FromBinding(err))
		return
	}
	if id == 0 {
		id = rec.Meta().ID
	}

	ctx := c.Request.Context()
	if id == 0 && r.opts.Singleton {
		current, err := r.store.First(ctx, content.ListOptions{})
		if err != nil {
			common.RespondError(c, err)
			return
		}
		id = current.Meta().ID
	}
	if id == 0 {
		common.BadRequest(c, "id", "is required")
		return
	}

	var expected *time.Time
	if stamp := rec.Meta().UpdatedAt; !stamp.IsZero() {
		expected = &stamp
	}
	rec.Meta().ID = id

	err := r.store.Transaction(ctx, func(tx *content.Store[T, PT]) error {
		existing, err := tx.Get(ctx, id, content.ListOptions{})
		if err != nil {
			return err
		}
		if r.hooks.Prepare != nil {
			if err := r.hooks.Prepare(ctx, tx.DB(ctx), rec, existing); err != nil {
				return err
			}
		}
		return tx.Replace(ctx, rec, expected)
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	r.respond(c, http.StatusOK, id)
}

func (r *Resource[T, PT]) remove(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	id, ok := ParseID(raw)
	if !ok {
		common.BadRequest(c, "id", "must be a positive integer")
		return
	}

	ctx := c.Request.Context()
	err := r.store.Transaction(ctx, func(tx *content.Store[T, PT]) error {
		if r.hooks.Delete != nil {
			return r.hooks.Delete(ctx, tx.DB(ctx), id)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted", "id": id})
}
