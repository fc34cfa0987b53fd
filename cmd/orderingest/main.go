// Command orderingest converts marketplace order exports into
// pending-shipment lists. See "orderingest --help".
package main

import (
	"fmt"
	"os"

	"github.com/roach88/orderingest/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
