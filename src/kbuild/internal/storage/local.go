package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/paths"
)

// LocalConfig holds the local filesystem storage configuration
type LocalConfig struct {
	// BasePath is the root directory published images are copied into
	BasePath string
}

// LocalBackend stores artifacts below a directory on the local filesystem
type LocalBackend struct {
	basePath string
}

// NewLocal creates a local filesystem storage backend
func NewLocal(cfg LocalConfig) (*LocalBackend, error) {
	if cfg.BasePath == "" {
		return nil, errors.ErrConfigInvalid.WithMessage("local storage requires a base path")
	}
	basePath := paths.Expand(cfg.BasePath)

	if err := paths.EnsureDirPath(basePath); err != nil {
		return nil, errors.ErrStorageUnavailable.
			WithMessagef("failed to create storage directory %s", basePath).WithCause(err)
	}

	return &LocalBackend{basePath: basePath}, nil
}

// fullPath maps a key below basePath; keys cannot escape it
func (b *LocalBackend) fullPath(key string) string {
	cleanKey := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(b.basePath, cleanKey)
}

// Upload writes reader to the file for key, replacing it atomically
func (b *LocalBackend) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	fullPath := b.fullPath(key)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}
	if size > 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, wrote %d bytes", size, written)
	}

	return os.Rename(tmp.Name(), fullPath)
}

// Delete removes the file for key and prunes empty parent directories
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	fullPath := b.fullPath(key)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	b.cleanEmptyDirs(filepath.Dir(fullPath))
	return nil
}

// cleanEmptyDirs removes empty parent directories up to basePath
func (b *LocalBackend) cleanEmptyDirs(dir string) {
	for dir != b.basePath && strings.HasPrefix(dir, b.basePath) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

// Exists checks if a file exists for key
func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	fullPath := b.fullPath(key)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file %s: %w", fullPath, err)
	}
	return true, nil
}

// GetInfo retrieves metadata for the file stored under key
func (b *LocalBackend) GetInfo(ctx context.Context, key string) (*ObjectInfo, error) {
	fullPath := b.fullPath(key)

	stat, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrStorageNotFound.WithMessagef("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", fullPath, err)
	}

	return b.objectInfo(key, stat), nil
}

func (b *LocalBackend) objectInfo(key string, stat os.FileInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          key,
		Size:         stat.Size(),
		ContentType:  contentType(key),
		ETag:         etag(stat),
		LastModified: stat.ModTime(),
	}
}

// etag derives an entity tag from name, size and modification time
func etag(stat os.FileInfo) string {
	data := fmt.Sprintf("%s-%d-%d", stat.Name(), stat.Size(), stat.ModTime().UnixNano())
	hash := md5.Sum([]byte(data))
	return fmt.Sprintf("%q", hex.EncodeToString(hash[:]))
}

// contentType guesses the media type from the file extension
func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Ping checks if the storage directory is accessible
func (b *LocalBackend) Ping(ctx context.Context) error {
	if !paths.IsDir(b.basePath) {
		return errors.ErrStorageUnavailable.WithMessagef("storage directory not accessible: %s", b.basePath)
	}
	return nil
}

// Type returns the storage backend type
func (b *LocalBackend) Type() string {
	return TypeLocal
}

// Location returns the base path
func (b *LocalBackend) Location() string {
	return b.basePath
}
