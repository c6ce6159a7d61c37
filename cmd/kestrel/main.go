// Command kestrel is the default kestrel CLI entrypoint, wiring
// cli.RootCmd() against tools discovered under --tools-dir.
package main

import (
	"os"

	"github.com/compozy/kestrel/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
