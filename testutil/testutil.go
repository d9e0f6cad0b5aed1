// Package testutil provides a throwaway SQLite database with the production
// schema and an in-memory bucket for tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/LovationAdmin/triptrack-api/config"
	"github.com/LovationAdmin/triptrack-api/storage"
)

// SetupTestDB opens a fresh SQLite database in a temp dir and migrates it.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "triptrack_test.db")
	db, driver, err := config.InitDB(dbURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := config.RunMigrations(db, driver); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// PNG is the smallest valid PNG: a 1x1 transparent pixel.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// FakeBucket keeps objects in memory.
type FakeBucket struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Removed   []string
	UploadErr error
	RemoveErr error
}

var _ storage.Bucket = (*FakeBucket)(nil)

func NewFakeBucket() *FakeBucket {
	return &FakeBucket{Objects: make(map[string][]byte)}
}

func (b *FakeBucket) Upload(ctx context.Context, name string, body io.Reader, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.UploadErr != nil {
		return b.UploadErr
	}
	if _, ok := b.Objects[name]; ok {
		return storage.ErrObjectExists
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	b.Objects[name] = buf.Bytes()
	return nil
}

func (b *FakeBucket) Remove(ctx context.Context, names ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Removed = append(b.Removed, names...)
	if b.RemoveErr != nil {
		return b.RemoveErr
	}
	for _, name := range names {
		delete(b.Objects, name)
	}
	return nil
}

func (b *FakeBucket) PublicURL(name string) string {
	return "https://cdn.test/user-photos/" + name
}

func (b *FakeBucket) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Objects)
}

var ErrFakeUpload = errors.New("fake upload failure")
