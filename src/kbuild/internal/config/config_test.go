package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/viper"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/kbuild/internal/storage"
)

func newViper(t *testing.T, project string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyProjectDir, project)
	return v
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoad_Defaults(t *testing.T) {
	project := t.TempDir()
	s, err := Load(newViper(t, project), []string{"PATH=/bin"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.BoardsRoot != filepath.Join(project, "src", "bsp") {
		t.Errorf("BoardsRoot = %s", s.BoardsRoot)
	}
	if s.TargetDir != filepath.Join(project, "target") || s.OutputDir != filepath.Join(project, "out") {
		t.Errorf("unexpected output dirs %s %s", s.TargetDir, s.OutputDir)
	}
	if s.Tools.Cargo != "cargo" || s.Tools.Objcopy != "rust-objcopy" || s.Tools.Objdump != "rust-objdump" {
		t.Errorf("unexpected tools %+v", s.Tools)
	}
	if s.Environ["PATH"] != "/bin" {
		t.Errorf("environment snapshot missing PATH: %v", s.Environ)
	}
	if s.Storage.Type != storage.TypeLocal || s.Storage.Local.BasePath != filepath.Join(project, "out", "publish") {
		t.Errorf("unexpected storage %+v", s.Storage)
	}
}

func TestLoad_Overrides(t *testing.T) {
	project := t.TempDir()
	abs := filepath.Join(t.TempDir(), "boards")
	v := newViper(t, project)
	v.Set(KeyBoardsRoot, abs)
	v.Set(KeyOutputDir, "build/img")
	v.Set(KeyObjdump, "llvm-objdump")
	v.Set(KeyPassthrough, []string{"HOME", "CARGO_HOME"})
	v.Set(KeyCrate, "kernel")

	s, err := Load(v, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.BoardsRoot != abs {
		t.Errorf("absolute boards root should be kept, got %s", s.BoardsRoot)
	}
	if s.OutputDir != filepath.Join(project, "build", "img") {
		t.Errorf("OutputDir = %s", s.OutputDir)
	}
	if s.Tools.Objdump != "llvm-objdump" {
		t.Errorf("Objdump = %s", s.Tools.Objdump)
	}
	if !slices.Equal(s.Passthrough, []string{"HOME", "CARGO_HOME"}) {
		t.Errorf("Passthrough = %v", s.Passthrough)
	}

	name, err := s.CrateName()
	if err != nil || name != "kernel" {
		t.Errorf("CrateName() = %q, %v", name, err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	project := t.TempDir()
	content := "RUSTFLAGS=-C debuginfo=2\nPATH=/from/dotenv\nCARGO_HOME=/opt/cargo\n"
	if err := os.WriteFile(filepath.Join(project, ".env"), []byte(content), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	v := newViper(t, project)
	v.Set(KeyEnvFile, ".env")

	s, err := Load(v, []string{"PATH=/bin"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Environ["RUSTFLAGS"] != "-C debuginfo=2" || s.Environ["CARGO_HOME"] != "/opt/cargo" {
		t.Errorf("dotenv entries missing: %v", s.Environ)
	}
	if s.Environ["PATH"] != "/bin" {
		t.Errorf("caller variables must win over dotenv, PATH=%s", s.Environ["PATH"])
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	v := newViper(t, t.TempDir())
	v.Set(KeyEnvFile, "missing.env")

	_, err := Load(v, nil)
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

// =============================================================================
// Crate Tests
// =============================================================================

func TestLoad_EmptyDirectories(t *testing.T) {
	for _, key := range []string{KeyBoardsRoot, KeyTargetDir, KeyOutputDir, KeyStorageLocalPath} {
		t.Run(key, func(t *testing.T) {
			v := newViper(t, t.TempDir())
			v.Set(key, "  ")

			_, err := Load(v, nil)
			if !errors.Is(err, errors.ErrConfigInvalid) {
				t.Fatalf("expected ErrConfigInvalid for empty %s, got %v", key, err)
			}
		})
	}
}

func TestLoad_EmptyLocalPathIgnoredForS3(t *testing.T) {
	v := newViper(t, t.TempDir())
	v.Set(KeyStorageType, storage.TypeS3)
	v.Set(KeyStorageLocalPath, "")

	if _, err := Load(v, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestCrateName_FromManifest(t *testing.T) {
	project := t.TempDir()
	manifest := "[package]\nname = \"mingos\"\nversion = \"0.1.0\"\n"
	if err := os.WriteFile(filepath.Join(project, "Cargo.toml"), []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	s, err := Load(newViper(t, project), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	name, err := s.CrateName()
	if err != nil {
		t.Fatalf("CrateName: %v", err)
	}
	if name != "mingos" {
		t.Errorf("CrateName() = %q", name)
	}
}

func TestComposer_UsesSettings(t *testing.T) {
	v := newViper(t, t.TempDir())
	v.Set(KeyCargo, "/opt/rust/bin/cargo")

	s, err := Load(v, []string{"PATH=/bin", "HOME=/home/dev"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Composer().Tools().Cargo; got != "/opt/rust/bin/cargo" {
		t.Errorf("composer cargo = %s", got)
	}
}
