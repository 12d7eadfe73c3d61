// Package storage provides the backends kbuild publishes kernel images to.
package storage

import (
	"context"
	"io"
	"os"
	"path"
	"time"

	"github.com/bitswalk/kbuild/src/common/errors"
)

// Backend defines the interface for artifact storage backends
type Backend interface {
	// Upload stores size bytes read from reader under key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetInfo retrieves metadata for an object
	GetInfo(ctx context.Context, key string) (*ObjectInfo, error)

	// Ping checks if the storage is accessible
	Ping(ctx context.Context) error

	// Type returns the storage backend type
	Type() string

	// Location returns a human-readable location description
	Location() string
}

// ObjectInfo holds metadata about a stored artifact
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Backend type names accepted in Config.Type
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Config holds the storage configuration
type Config struct {
	// Type is the storage backend type: "s3" or "local"
	Type string

	// Local storage configuration
	Local LocalConfig

	// S3 storage configuration
	S3 S3Config
}

// DefaultConfig returns the default storage configuration: a local
// directory next to the raw images
func DefaultConfig() Config {
	return Config{
		Type: TypeLocal,
		Local: LocalConfig{
			BasePath: "out/publish",
		},
	}
}

// New creates a storage backend based on configuration
func New(cfg Config) (Backend, error) {
	switch cfg.Type {
	case TypeS3:
		return NewS3(cfg.S3)
	case TypeLocal, "":
		return NewLocal(cfg.Local)
	default:
		return nil, errors.ErrConfigInvalid.WithMessagef("unknown storage type %q", cfg.Type)
	}
}

// Key builds the object key an image is published under
func Key(board, invocation, name string) string {
	return path.Join(board, invocation, name)
}

// UploadFile publishes the file at src under key and returns its stored
// metadata. Existing objects are never overwritten.
func UploadFile(ctx context.Context, b Backend, key, src string) (*ObjectInfo, error) {
	exists, err := b.Exists(ctx, key)
	if err != nil {
		return nil, errors.ErrPublishFailed.
			WithMessagef("cannot check %s on %s", key, b.Location()).WithCause(err)
	}
	if exists {
		return nil, errors.ErrPublishFailed.
			WithMessagef("%s already exists on %s", key, b.Location())
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, errors.ErrPublishFailed.WithMessagef("cannot open %s", src).WithCause(err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.ErrPublishFailed.WithMessagef("cannot stat %s", src).WithCause(err)
	}

	if err := b.Upload(ctx, key, f, stat.Size(), contentType(src)); err != nil {
		return nil, errors.ErrPublishFailed.
			WithMessagef("failed to upload %s to %s", key, b.Location()).WithCause(err)
	}
	return b.GetInfo(ctx, key)
}
