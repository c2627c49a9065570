// Command lazyvolet runs the sleep/wake proxy. See cli.usage for the
// subcommand list; this file only wires os.Args/os.Exit into package
// cli, the way the teacher's cmd/main.go stayed a thin wrapper around
// the rest of the program.
package main

import (
	"os"

	"github.com/dragonium-labs/lazyvolet/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
