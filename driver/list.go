package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/proofworks/zevm-harness/catalog"
	cliUtils "github.com/proofworks/zevm-harness/driver/cli"
	"github.com/proofworks/zevm-harness/runner"
)

var ListCmd = cli.Command{
	Action: doList,
	Name:   "list",
	Usage:  "List the tests of the normalized catalog",
	Flags: []cli.Flag{
		&cliUtils.PathFilterFlag.StringFlag,
		&cliUtils.CatalogDirFlag.StringFlag,
	},
}

func doList(cliCtx *cli.Context) error {
	cat, err := catalog.Read(cliUtils.CatalogDirFlag.Fetch(cliCtx))
	if err != nil {
		return fmt.Errorf("failed to load catalog, run `sync` first: %w", err)
	}

	filter := cliUtils.PathFilterFlag.Fetch(cliCtx)
	count := 0
	cat.Walk(func(group, sub string, test *catalog.NormalizedTest) {
		if !runner.MatchesPath(filter, group+"/"+sub+"/"+test.Fixture) {
			return
		}
		fmt.Println(group + "/" + sub + "/" + test.Name)
		count++
	})
	fmt.Printf("%d tests\n", count)
	return nil
}
