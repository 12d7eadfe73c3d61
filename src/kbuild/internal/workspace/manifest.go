package workspace

import (
	"os"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/pelletier/go-toml/v2"
)

// ManifestFile is the crate manifest at the project root
const ManifestFile = "Cargo.toml"

// cargoManifest is the subset of Cargo.toml kbuild needs
type cargoManifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
}

// CrateBinary returns the name of the executable cargo links for the
// manifest at path: the single [[bin]] target if one is declared,
// otherwise the package name.
func CrateBinary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.ErrManifestInvalid.
			WithMessagef("cannot read %s", path).WithCause(err)
	}

	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", errors.ErrManifestInvalid.
			WithMessagef("cannot parse %s", path).WithCause(err)
	}

	if len(m.Bin) == 1 && m.Bin[0].Name != "" {
		return m.Bin[0].Name, nil
	}
	if len(m.Bin) > 1 {
		return "", errors.ErrManifestInvalid.
			WithMessagef("%s declares %d binaries; set kernel.crate to pick one", path, len(m.Bin))
	}
	if m.Package == nil || m.Package.Name == "" {
		return "", errors.ErrManifestInvalid.
			WithMessagef("%s has no [package] name", path)
	}
	return m.Package.Name, nil
}
