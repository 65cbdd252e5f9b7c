package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"klinika/config"
)

// Storage keeps uploaded files and returns their public URL.
type Storage interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (string, error)
}

// NewStorage picks the backend named by UPLOAD_DRIVER.
func NewStorage(cfg *config.Config) (Storage, error) {
	switch cfg.UploadDriver {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir, cfg.BaseURL), nil
	case "cloudinary":
		return NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}
	return nil, fmt.Errorf("unknown UPLOAD_DRIVER %q", cfg.UploadDriver)
}

// LocalStorage writes files below Dir; they are served under /uploads.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	if dir == "" {
		dir = "uploads"
	}
	return &LocalStorage{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalStorage) Save(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.Dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return s.BaseURL + "/uploads/" + folder + "/" + name, nil
}

type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStorage(cloudName, apiKey, apiSecret string) (*CloudinaryStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   "klinika/" + folder,
		PublicID: strings.TrimSuffix(name, filepath.Ext(name)),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: no url returned")
	}
	return result.SecureURL, nil
}
