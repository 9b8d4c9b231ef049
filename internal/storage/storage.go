// Package storage persists uploaded product images and returns the reference
// stored on the product. Exactly one driver is active per process.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"animeshop-be/internal/config"
)

type Store interface {
	// Save writes the upload and returns the public reference to it.
	Save(ctx context.Context, originalName, contentType string, r io.Reader) (string, error)
	// Delete removes an upload by the reference Save returned.
	Delete(ctx context.Context, ref string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds "<unix millis>-<original basename>" with path components
// and unsafe characters removed.
func ObjectName(now time.Time, originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "/" || base == "_" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// New returns the driver selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageLocal, "":
		return NewLocal(cfg.UploadDir, cfg.UploadURLPrefix)
	case config.StorageS3:
		return NewS3(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Key:       cfg.S3Key,
			Secret:    cfg.S3Secret,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}
