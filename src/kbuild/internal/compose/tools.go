package compose

// Tools names the external binaries kbuild drives. Empty fields fall back
// to DefaultTools.
type Tools struct {
	Cargo   string // compiler driver
	Objcopy string // raw image extraction
	Objdump string // disassembly
}

// DefaultTools returns the cargo-binutils tool set
func DefaultTools() Tools {
	return Tools{
		Cargo:   "cargo",
		Objcopy: "rust-objcopy",
		Objdump: "rust-objdump",
	}
}

func (t Tools) withDefaults() Tools {
	d := DefaultTools()
	if t.Cargo == "" {
		t.Cargo = d.Cargo
	}
	if t.Objcopy == "" {
		t.Objcopy = d.Objcopy
	}
	if t.Objdump == "" {
		t.Objdump = d.Objdump
	}
	return t
}
