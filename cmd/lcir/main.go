// Command lcir compiles YAML source file descriptions and dumps the resulting
// IR or LLVM modules.
package main

import "os"

// lcirVersion is the current version of the tool.
const lcirVersion = "0.1.0"

func main() {
	if !execute(os.Args, os.Stdout) {
		os.Exit(1)
	}
}
