package upload

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"klinika/common"
	"klinika/slugs"
)

const defaultFolder = "general"

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
}

type UploadModule struct {
	storage  Storage
	maxBytes int64
	log      *zap.Logger
}

func NewUploadModule(storage Storage, maxMB int64, log *zap.Logger) *UploadModule {
	if maxMB <= 0 {
		maxMB = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadModule{storage: storage, maxBytes: maxMB << 20, log: log}
}

func (u *UploadModule) RegisterRoutes(router gin.IRouter) {
	router.POST("/api/upload", common.RequireAdmin, u.upload)
	if local, ok := u.storage.(*LocalStorage); ok {
		router.Static("/uploads", local.Dir)
	}
}

// Folder turns a client supplied folder name into a single safe path segment.
func Folder(raw string) string {
	folder := slugs.Slugify(strings.TrimSpace(raw))
	if folder == "" {
		return defaultFolder
	}
	return folder
}

func (u *UploadModule) upload(c *gin.Context) {
	// room for the multipart envelope around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.maxBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		common.BadRequest(c, "file", "is required")
		return
	}
	if header.Size > u.maxBytes {
		common.BadRequest(c, "file", fmt.Sprintf("must be at most %d MB", u.maxBytes>>20))
		return
	}

	file, err := header.Open()
	if err != nil {
		common.BadRequest(c, "file", "could not be read")
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		common.BadRequest(c, "file", "could not be read")
		return
	}
	if !allowedTypes[mtype.String()] {
		common.BadRequest(c, "file", "must be a JPEG, PNG, WebP, GIF or AVIF image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		common.RespondError(c, err)
		return
	}

	folder := Folder(c.PostForm("folder"))
	name := uuid.NewString() + mtype.Extension()

	url, err := u.storage.Save(c.Request.Context(), folder, name, file)
	if err != nil {
		u.log.Error("upload failed", zap.String("folder", folder), zap.Error(err))
		common.RespondError(c, fmt.Errorf("%w: %v", common.ErrDispatch, err))
		return
	}

	u.log.Info("file uploaded",
		zap.String("url", url),
		zap.String("type", mtype.String()),
		zap.Int64("size", header.Size),
	)
	c.JSON(http.StatusOK, gin.H{"url": url})
}
