package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	// Compute engines available to the driver. Real engines live out of
	// tree and register themselves the same way.
	_ "github.com/proofworks/zevm-harness/engine/null"
)

func main() {
	app := &cli.App{
		Name:  "harness",
		Usage: "zkEVM Conformance Test Harness",
		Commands: []*cli.Command{
			&SyncCmd,
			&RunCmd,
			&ListCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
