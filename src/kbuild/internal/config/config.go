// Package config resolves kbuild settings from viper and the caller's
// environment. Settings are built once by the CLI and passed down; nothing
// below it reads the process environment.
package config

import (
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bitswalk/kbuild/src/common/cli"
	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/paths"
	"github.com/bitswalk/kbuild/src/kbuild/internal/compose"
	"github.com/bitswalk/kbuild/src/kbuild/internal/storage"
	"github.com/bitswalk/kbuild/src/kbuild/internal/workspace"
)

// Viper keys
const (
	KeyProjectDir  = "project.dir"
	KeyBoardsRoot  = "boards.root"
	KeyTargetDir   = "target.dir"
	KeyOutputDir   = "output.dir"
	KeyCrate       = "kernel.crate"
	KeyCargo       = "tools.cargo"
	KeyObjcopy     = "tools.objcopy"
	KeyObjdump     = "tools.objdump"
	KeyPassthrough = "env.passthrough"
	KeyEnvFile     = "env.file"

	KeyStorageType      = "storage.type"
	KeyStorageLocalPath = "storage.local.path"
	KeyStorageEndpoint  = "storage.s3.endpoint"
	KeyStorageRegion    = "storage.s3.region"
	KeyStorageBucket    = "storage.s3.bucket"
	KeyStorageAccessKey = "storage.s3.access_key_id"
	KeyStorageSecretKey = "storage.s3.secret_access_key"
	KeyStoragePathStyle = "storage.s3.path_style"
)

// Settings is the resolved configuration of one kbuild invocation.
// Directory fields are absolute.
type Settings struct {
	ProjectDir string
	BoardsRoot string
	TargetDir  string
	OutputDir  string

	// Crate overrides the binary name read from Cargo.toml
	Crate string

	Tools       compose.Tools
	Passthrough []string

	// Environ is the caller environment snapshot, dotenv entries included
	Environ compose.Environment

	Storage storage.Config
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	d := compose.DefaultTools()

	v.SetDefault(KeyProjectDir, ".")
	v.SetDefault(KeyBoardsRoot, "src/bsp")
	v.SetDefault(KeyTargetDir, "target")
	v.SetDefault(KeyOutputDir, "out")
	v.SetDefault(KeyCrate, "")
	v.SetDefault(KeyCargo, d.Cargo)
	v.SetDefault(KeyObjcopy, d.Objcopy)
	v.SetDefault(KeyObjdump, d.Objdump)
	v.SetDefault(KeyPassthrough, []string{})
	v.SetDefault(KeyEnvFile, "")

	sd := storage.DefaultConfig()
	v.SetDefault(KeyStorageType, sd.Type)
	v.SetDefault(KeyStorageLocalPath, sd.Local.BasePath)
	v.SetDefault(KeyStorageRegion, "us-east-1")
	v.SetDefault(KeyStoragePathStyle, true)
}

// Load resolves Settings from v. environ is the caller environment in
// os.Environ form; entries from the env.file dotenv file are added to it
// without overriding variables already set.
func Load(v *viper.Viper, environ []string) (*Settings, error) {
	project, err := filepath.Abs(cli.GetExpandedString(v, KeyProjectDir))
	if err != nil {
		return nil, errors.ErrConfigInvalid.WithMessage("cannot resolve project directory").WithCause(err)
	}

	required := []string{KeyBoardsRoot, KeyTargetDir, KeyOutputDir}
	if t := v.GetString(KeyStorageType); t == storage.TypeLocal || t == "" {
		required = append(required, KeyStorageLocalPath)
	}
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, errors.ErrConfigInvalid.WithMessagef("%s must not be empty", key)
		}
	}

	env := compose.FromEnviron(environ)
	if envFile := v.GetString(KeyEnvFile); envFile != "" {
		envFile = paths.Resolve(project, envFile)
		extra, err := godotenv.Read(envFile)
		if err != nil {
			return nil, errors.ErrConfigInvalid.
				WithMessagef("cannot read env file %s", envFile).WithCause(err)
		}
		env = env.Merge(extra, false)
	}

	s := &Settings{
		ProjectDir: project,
		BoardsRoot: paths.Resolve(project, v.GetString(KeyBoardsRoot)),
		TargetDir:  paths.Resolve(project, v.GetString(KeyTargetDir)),
		OutputDir:  paths.Resolve(project, v.GetString(KeyOutputDir)),
		Crate:      v.GetString(KeyCrate),
		Tools: compose.Tools{
			Cargo:   v.GetString(KeyCargo),
			Objcopy: v.GetString(KeyObjcopy),
			Objdump: v.GetString(KeyObjdump),
		},
		Passthrough: v.GetStringSlice(KeyPassthrough),
		Environ:     env,
		Storage: storage.Config{
			Type: v.GetString(KeyStorageType),
			Local: storage.LocalConfig{
				BasePath: paths.Resolve(project, v.GetString(KeyStorageLocalPath)),
			},
			S3: storage.S3Config{
				Endpoint:        v.GetString(KeyStorageEndpoint),
				Region:          v.GetString(KeyStorageRegion),
				Bucket:          v.GetString(KeyStorageBucket),
				AccessKeyID:     v.GetString(KeyStorageAccessKey),
				SecretAccessKey: v.GetString(KeyStorageSecretKey),
				UsePathStyle:    v.GetBool(KeyStoragePathStyle),
			},
		},
	}
	return s, nil
}

// ManifestPath returns the crate manifest of the project
func (s *Settings) ManifestPath() string {
	return filepath.Join(s.ProjectDir, workspace.ManifestFile)
}

// CrateName returns the binary name of the kernel crate: the configured
// override, or the name declared in Cargo.toml
func (s *Settings) CrateName() (string, error) {
	if s.Crate != "" {
		return s.Crate, nil
	}
	return workspace.CrateBinary(s.ManifestPath())
}

// Composer returns a composer bound to these settings. Builds are directed
// at TargetDir so the artifacts kbuild acts on are the ones cargo produced.
func (s *Settings) Composer() *compose.Composer {
	return compose.New(s.Tools, s.Environ, s.Passthrough).WithTargetDir(s.TargetDir)
}
