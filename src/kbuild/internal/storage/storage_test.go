package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitswalk/kbuild/src/common/errors"
)

// =============================================================================
// Factory Tests
// =============================================================================

func TestNew_Local(t *testing.T) {
	base := filepath.Join(t.TempDir(), "publish")
	b, err := New(Config{Type: TypeLocal, Local: LocalConfig{BasePath: base}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Type() != TypeLocal || b.Location() != base {
		t.Errorf("unexpected backend %s at %s", b.Type(), b.Location())
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNew_DefaultsToLocal(t *testing.T) {
	b, err := New(Config{Local: LocalConfig{BasePath: t.TempDir()}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Type() != TypeLocal {
		t.Errorf("Type() = %s", b.Type())
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(Config{Type: "ftp"})
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestNew_S3(t *testing.T) {
	b, err := New(Config{Type: TypeS3, S3: S3Config{
		Endpoint:     "http://localhost:9000",
		Bucket:       "kernels",
		UsePathStyle: true,
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Type() != TypeS3 {
		t.Errorf("Type() = %s", b.Type())
	}
	if b.Location() != "http://localhost:9000/kernels" {
		t.Errorf("Location() = %s", b.Location())
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(S3Config{Endpoint: "http://localhost:9000"})
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("raspi3", "1234", "kernel8.img"); got != "raspi3/1234/kernel8.img" {
		t.Errorf("Key() = %s", got)
	}
}

// =============================================================================
// Local Backend Tests
// =============================================================================

func newLocal(t *testing.T) *LocalBackend {
	t.Helper()
	b, err := NewLocal(LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return b
}

func TestLocal_UploadAndInfo(t *testing.T) {
	b := newLocal(t)
	ctx := context.Background()
	data := []byte("raw image")

	if err := b.Upload(ctx, "raspi3/id/kernel8.img", bytes.NewReader(data), int64(len(data)), ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := b.Exists(ctx, "raspi3/id/kernel8.img")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}

	info, err := b.GetInfo(ctx, "raspi3/id/kernel8.img")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.Size != int64(len(data)) {
		t.Errorf("Size = %d", info.Size)
	}
	if info.ContentType == "" {
		t.Errorf("ContentType = %s", info.ContentType)
	}
	if info.ETag == "" {
		t.Error("expected an ETag")
	}
}

func TestLocal_UploadSizeMismatch(t *testing.T) {
	b := newLocal(t)
	ctx := context.Background()

	err := b.Upload(ctx, "k.img", strings.NewReader("abc"), 10, "")
	if err == nil {
		t.Fatal("expected size mismatch error")
	}
	if exists, _ := b.Exists(ctx, "k.img"); exists {
		t.Error("partial upload left behind")
	}
}

func TestLocal_KeysStayBelowBase(t *testing.T) {
	b := newLocal(t)

	for _, key := range []string{"../../etc/passwd", "/abs/key", "a/../../b"} {
		p := b.fullPath(key)
		if !strings.HasPrefix(p, b.Location()+string(filepath.Separator)) {
			t.Errorf("key %q escaped base: %s", key, p)
		}
	}
}

func TestLocal_GetInfoMissing(t *testing.T) {
	_, err := newLocal(t).GetInfo(context.Background(), "missing")
	if !errors.Is(err, errors.ErrStorageNotFound) {
		t.Fatalf("expected ErrStorageNotFound, got %v", err)
	}
}

func TestLocal_Delete(t *testing.T) {
	b := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"raspi3/a/kernel8.img", "virt/a/kernel.img"} {
		if err := b.Upload(ctx, key, strings.NewReader("x"), 1, ""); err != nil {
			t.Fatalf("Upload %s: %v", key, err)
		}
	}

	if err := b.Delete(ctx, "virt/a/kernel.img"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(b.Location(), "virt")); !os.IsNotExist(err) {
		t.Error("empty parent directories should be pruned")
	}
	if exists, _ := b.Exists(ctx, "raspi3/a/kernel8.img"); !exists {
		t.Error("unrelated object removed")
	}
	if err := b.Delete(ctx, "virt/a/kernel.img"); err != nil {
		t.Errorf("deleting a missing object should succeed: %v", err)
	}
}

func TestLocal_Ping(t *testing.T) {
	b := newLocal(t)
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if err := os.RemoveAll(b.Location()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := b.Ping(context.Background()); !errors.Is(err, errors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

// =============================================================================
// UploadFile Tests
// =============================================================================

func TestUploadFile(t *testing.T) {
	b := newLocal(t)
	src := filepath.Join(t.TempDir(), "kernel8.img")
	if err := os.WriteFile(src, []byte("image"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := UploadFile(context.Background(), b, Key("raspi3", "id", "kernel8.img"), src)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if info.Key != "raspi3/id/kernel8.img" || info.Size != 5 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestUploadFile_MissingSource(t *testing.T) {
	_, err := UploadFile(context.Background(), newLocal(t), "k", filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
}

func TestUploadFile_RefusesOverwrite(t *testing.T) {
	b := newLocal(t)
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "kernel8.img")
	if err := os.WriteFile(src, []byte("image"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	key := Key("raspi3", "id", "kernel8.img")
	if err := b.Upload(ctx, key, strings.NewReader("old"), 3, ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	_, err := UploadFile(ctx, b, key, src)
	if !errors.Is(err, errors.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
	if info, _ := b.GetInfo(ctx, key); info == nil || info.Size != 3 {
		t.Errorf("existing object was replaced: %+v", info)
	}
}
