// Command wowguard is the composition root: it wires a real, concrete
// Guard and exposes its decision contract and operator subcommands over
// the process's stdin/stdout/stderr/exit-code surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
