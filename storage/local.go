package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalBucket keeps objects under {dir}/{bucket} and serves them at
// {publicURL}/storage/{bucket}/{name}.
type LocalBucket struct {
	dir       string
	bucket    string
	publicURL string
}

func NewLocalBucket(dir, bucket, publicURL string) *LocalBucket {
	return &LocalBucket{dir: dir, bucket: bucket, publicURL: publicURL}
}

// Root is the directory to expose under /storage.
func (b *LocalBucket) Root() string {
	return b.dir
}

func (b *LocalBucket) Upload(ctx context.Context, name string, body io.Reader, contentType string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bucketDir := filepath.Join(b.dir, b.bucket)
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}

	target := filepath.Join(bucketDir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrObjectExists
		}
		return fmt.Errorf("create object: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("write object: %w", err)
	}
	return f.Close()
}

func (b *LocalBucket) Remove(ctx context.Context, names ...string) error {
	var errs []error
	for _, name := range names {
		if err := validName(name); err != nil {
			errs = append(errs, err)
			continue
		}
		err := os.Remove(filepath.Join(b.dir, b.bucket, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *LocalBucket) PublicURL(name string) string {
	return b.publicURL + "/storage/" + b.bucket + "/" + name
}
