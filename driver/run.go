package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"

	"github.com/proofworks/zevm-harness/catalog"
	cliUtils "github.com/proofworks/zevm-harness/driver/cli"
	"github.com/proofworks/zevm-harness/engine"
	"github.com/proofworks/zevm-harness/history"
	"github.com/proofworks/zevm-harness/report"
	"github.com/proofworks/zevm-harness/runner"
)

var RunCmd = cliUtils.AddCommonFlags(cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Run the normalized test catalog against a compute engine",
	ArgsUsage: "<engine>",
	Flags: []cli.Flag{
		&cliUtils.PathFilterFlag.StringFlag,
		&cliUtils.VariantsFlag.StringFlag,
		&cliUtils.BlacklistFlag.StringFlag,
		&cliUtils.SkipPassedFlag.BoolFlag,
		&cliUtils.FullModeFlag.BoolFlag,
		&cliUtils.JobsFlag.IntFlag,
		&cliUtils.SeedFlag.Uint64Flag,
		&cliUtils.DetailsFlag.StringFlag,
		&cliUtils.CatalogDirFlag.StringFlag,
		&cliUtils.HistoryDirFlag.StringFlag,
		&cliUtils.ReportDirFlag.StringFlag,
	},
})

func doRun(cliCtx *cli.Context) error {
	var engineIdentifier string
	if cliCtx.Args().Len() >= 1 {
		engineIdentifier = cliCtx.Args().Get(0)
	}
	eng := engine.Get(engineIdentifier)
	if eng == nil {
		return fmt.Errorf("invalid engine identifier, use one of: %v", engine.RegisteredNames())
	}

	mode := engine.Witness
	if cliUtils.FullModeFlag.Fetch(cliCtx) {
		mode = engine.Full
	}

	variants, err := cliUtils.VariantsFlag.Fetch(cliCtx)
	if err != nil {
		return err
	}
	blacklist, err := cliUtils.BlacklistFlag.Fetch(cliCtx)
	if err != nil {
		return err
	}
	detailsFilter, err := cliUtils.DetailsFlag.Fetch(cliCtx)
	if err != nil {
		return err
	}

	cat, err := catalog.Read(cliUtils.CatalogDirFlag.Fetch(cliCtx))
	if err != nil {
		return fmt.Errorf("failed to load catalog, run `sync` first: %w", err)
	}

	store, err := history.OpenBadger(cliUtils.HistoryDirFlag.Fetch(cliCtx))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed := cliUtils.SeedFlag.Fetch(cliCtx)
	options := runner.Options{
		Mode:    mode,
		Jobs:    cliUtils.JobsFlag.Fetch(cliCtx),
		Seed:    seed,
		Shuffle: seed != 0,
		Policy: runner.Policy{
			Path:       cliUtils.PathFilterFlag.Fetch(cliCtx),
			Variants:   variants,
			Blacklist:  blacklist,
			SkipPassed: cliUtils.SkipPassedFlag.Fetch(cliCtx),
		},
		Progress: func(elapsed time.Duration, rate float64, completed int64) {
			fmt.Printf(
				"[t=%4d:%02d] - Processing ~%s tests per second, total %d\n",
				int(elapsed.Seconds())/60, int(elapsed.Seconds())%60,
				unitconv.FormatPrefix(rate, unitconv.SI, 0), completed,
			)
		},
	}

	fmt.Printf("Running %d catalog tests in %s mode ...\n", cat.NumTests(), mode)
	records, err := runner.Run(ctx, cat, eng, store, options)
	if err != nil {
		return err
	}

	stats := report.Collect(cat, records)
	if err := report.WriteSummary(os.Stdout, stats); err != nil {
		return err
	}
	if path, err := report.WriteSummaryFile(cliUtils.ReportDirFlag.Fetch(cliCtx), stats); err == nil {
		fmt.Printf("Summary written to %s\n", path)
	} else {
		return err
	}
	if detailsFilter != nil {
		details := report.Details(cat, records, detailsFilter)
		if err := report.WriteDetails(os.Stdout, details, detailsFilter.String()); err != nil {
			return err
		}
	}

	failed := 0
	for _, record := range records {
		if record.Outcome == history.Failed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to pass %d test cases", failed)
	}
	return nil
}
