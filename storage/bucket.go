package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/LovationAdmin/triptrack-api/config"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidName  = errors.New("invalid object name")
)

// Bucket stores public objects. Uploads never overwrite an existing object.
type Bucket interface {
	Upload(ctx context.Context, name string, body io.Reader, contentType string) error
	Remove(ctx context.Context, names ...string) error
	PublicURL(name string) string
}

// New builds the bucket selected by STORAGE_DRIVER.
func New(cfg config.StorageConfig) (Bucket, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalBucket(cfg.Dir, cfg.Bucket, cfg.PublicURL), nil
	case "supabase":
		return NewSupabaseBucket(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Bucket, &http.Client{Timeout: 30 * time.Second}), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ObjectName extracts the object name from a public URL: its last path segment.
func ObjectName(publicURL string) string {
	if i := strings.IndexAny(publicURL, "?#"); i >= 0 {
		publicURL = publicURL[:i]
	}
	return path.Base(publicURL)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
