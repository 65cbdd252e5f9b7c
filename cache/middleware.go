package cache

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"klinika/common"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware caches public GET responses below prefix and purges the store after
// every successful admin write. Paths starting with one of bypass are never cached.
func Middleware(store Store, prefix string, bypass []string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if store == nil || !strings.HasPrefix(path, prefix) {
			c.Next()
			return
		}

		if c.Request.Method != http.MethodGet {
			c.Next()
			status := c.Writer.Status()
			if common.IsAdmin(c) && status >= 200 && status < 300 {
				if err := store.Clear(c.Request.Context()); err != nil {
					log.Error("cache purge failed", zap.String("path", path), zap.Error(err))
				}
			}
			return
		}

		if common.IsAdmin(c) || bypassed(path, bypass) {
			c.Next()
			return
		}

		key := Key(path, c.Request.URL.RawQuery)
		if e, found := store.Get(c.Request.Context(), key); found {
			c.Header("X-Cache", "HIT")
			c.Data(e.Status, e.ContentType, e.Body)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		writer := &responseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = writer

		c.Next()

		if writer.Status() == http.StatusOK {
			e := &Entry{
				Status:      http.StatusOK,
				ContentType: writer.Header().Get("Content-Type"),
				Body:        writer.body.Bytes(),
			}
			if err := store.Set(c.Request.Context(), key, e); err != nil {
				log.Warn("cache write failed", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

func bypassed(path string, bypass []string) bool {
	for _, p := range bypass {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
