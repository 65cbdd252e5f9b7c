package blog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/content"
	"klinika/crud"
	"klinika/models"
	"klinika/richtext"
	"klinika/slugs"
	"klinika/validation"
)

const listOrder = "COALESCE(published_at, created_at) DESC, id DESC"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ViewTracker decides whether a post view is counted.
type ViewTracker interface {
	TrackView(c *gin.Context, postID uint) (bool, error)
}

// BlogModule serves the news posts under /api/jaunumi.
type BlogModule struct {
	posts   *crud.Resource[models.BlogPost, *models.BlogPost]
	tracker ViewTracker
	log     *zap.Logger
	now     func() time.Time
}

func NewBlogModule(db *gorm.DB, tracker ViewTracker, log *zap.Logger) *BlogModule {
	if log == nil {
		log = zap.NewNop()
	}
	b := &BlogModule{tracker: tracker, log: log, now: time.Now}
	b.posts = crud.New("/api/jaunumi", db, crud.Hooks[models.BlogPost, *models.BlogPost]{
		Filters: filters,
		Public:  published,
		Order:   func(*gin.Context) string { return listOrder },
		Prepare: b.prepare,
		Present: present,
	}, crud.Options{IDRoutes: true, NoGetByID: true})
	return b
}

func (b *BlogModule) RegisterRoutes(router gin.IRouter) {
	b.posts.RegisterRoutes(router)
	router.GET("/api/jaunumi/:slug", b.bySlug)
}

func published(db *gorm.DB) *gorm.DB {
	return db.Where("published = ?", true)
}

func filters(c *gin.Context) ([]content.Scope, error) {
	var scopes []content.Scope

	if raw := c.Query("published"); raw != "" {
		if raw != "true" && raw != "false" {
			return nil, validation.FieldErrors{"published": "must be true or false"}
		}
		want := raw == "true"
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("published = ?", want)
		})
	}

	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		// tags are stored as a JSON array of strings; match one whole element
		element, err := json.Marshal(strings.ToLower(tag))
		if err != nil {
			return nil, err
		}
		pattern := "%" + likeEscaper.Replace(string(element)) + "%"
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(tags) LIKE ? ESCAPE '\'`, pattern)
		})
	}

	return scopes, nil
}

// present adds the excerpt to every post and the rendered body to single-post responses.
func present(c *gin.Context, post *models.BlogPost) {
	rendered := richtext.Render(post.Content)
	post.Excerpt = richtext.Excerpt(rendered, richtext.PreviewLength)
	if c.Query("id") != "" || c.Param("slug") != "" || c.Request.Method != http.MethodGet {
		post.ContentHTML = rendered
	}
}

// prepare derives the slug, keeps the view counter and stamps the first publication.
func (b *BlogModule) prepare(ctx context.Context, tx *gorm.DB, post, existing *models.BlogPost) error {
	post.Title = strings.TrimSpace(post.Title)
	post.Slug = strings.TrimSpace(post.Slug)
	if post.Slug == "" {
		post.Slug = slugs.Slugify(post.Title)
	}
	if post.Slug == "" {
		return validation.FieldErrors{"slug": "cannot be derived from the title, set it explicitly"}
	}

	var count int64
	q := tx.WithContext(ctx).Model(&models.BlogPost{}).Where("slug = ?", post.Slug)
	if existing != nil {
		q = q.Where("id <> ?", existing.ID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return validation.NewConflict("slug", "A post with slug %q already exists", post.Slug)
	}

	post.Tags = models.NewStringSet(post.Tags...)
	post.ContentHTML = ""
	post.Excerpt = ""

	if existing == nil {
		post.Views = 0
		post.PublishedAt = nil
	} else {
		post.Views = existing.Views
		post.PublishedAt = existing.PublishedAt
	}
	if post.Published && post.PublishedAt == nil {
		now := b.now()
		post.PublishedAt = &now
	}
	return nil
}

// bySlug returns one post and counts the view for public readers.
func (b *BlogModule) bySlug(c *gin.Context) {
	ctx := c.Request.Context()
	public := !common.IsAdmin(c)

	opts := content.ListOptions{Scopes: []content.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("slug = ?", c.Param("slug"))
	}}}
	if public {
		opts.Scopes = append(opts.Scopes, published)
	}

	store := b.posts.Store()
	post, err := store.First(ctx, opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if public {
		counted := true
		if b.tracker != nil {
			counted, err = b.tracker.TrackView(c, post.ID)
			if err != nil {
				b.log.Warn("view tracking failed", zap.Uint("post", post.ID), zap.Error(err))
				counted = false
			}
		}
		if counted {
			err := store.DB(ctx).Model(&models.BlogPost{}).Where("id = ?", post.ID).
				UpdateColumn("views", gorm.Expr("views + 1")).Error
			if err != nil {
				b.log.Error("view count update failed", zap.Uint("post", post.ID), zap.Error(err))
			} else {
				post.Views++
			}
		}
	}

	present(c, post)
	c.JSON(http.StatusOK, post)
}
