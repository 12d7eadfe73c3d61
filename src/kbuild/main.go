// kbuild builds a bare-metal kernel for one board of the project and chains
// into image extraction, disassembly, emulation or a debug session.
package main

import (
	"github.com/bitswalk/kbuild/src/kbuild/internal/cmd"
)

func main() {
	cmd.Execute()
}
