// Package board resolves board identifiers to validated board definitions.
//
// A configuration root holds one directory per board. Each board directory
// must contain a build.json record and a link.ld linker script:
//
//	src/bsp/
//	    raspi3/
//	        build.json
//	        link.ld
//	    riscv-virt/
//	        build.json
//	        link.ld
package board

import "slices"

// File names expected inside every board directory
const (
	ConfigFile       = "build.json"
	LinkerScriptFile = "link.ld"
)

// Definition is the validated in-memory configuration of one board
type Definition struct {
	Name       string   `json:"name"`
	Target     string   `json:"target"`
	Features   []string `json:"features"`
	RustFlags  []string `json:"rustflags"`
	KernelName string   `json:"kernel_name"`
	RunCmd     []string `json:"runcmd"`

	// Dir is the board directory the definition was loaded from
	Dir string `json:"-"`
	// LinkerScript is the path of the board's link.ld
	LinkerScript string `json:"-"`
}

// Clone returns a deep copy of d
func (d *Definition) Clone() *Definition {
	c := *d
	c.Features = slices.Clone(d.Features)
	c.RustFlags = slices.Clone(d.RustFlags)
	c.RunCmd = slices.Clone(d.RunCmd)
	return &c
}

// requiredFields lists every key a build.json record must declare
var requiredFields = []string{"name", "target", "features", "rustflags", "kernel_name", "runcmd"}
