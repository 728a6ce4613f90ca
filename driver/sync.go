package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/proofworks/zevm-harness/catalog"
	"github.com/proofworks/zevm-harness/corpus"
	cliUtils "github.com/proofworks/zevm-harness/driver/cli"
	"github.com/proofworks/zevm-harness/normalize"
)

var SyncCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doSync,
	Name:   "sync",
	Usage:  "Mirror the upstream corpus and rebuild the normalized test catalog",
	Flags: []cli.Flag{
		&cliUtils.RemoteFlag.StringFlag,
		&cliUtils.GroupsFlag.StringSliceFlag,
		&cliUtils.NoFetchFlag.BoolFlag,
		&cliUtils.CorpusDirFlag.StringFlag,
		&cliUtils.CatalogDirFlag.StringFlag,
	},
})

func doSync(cliCtx *cli.Context) error {
	corpusDir := cliUtils.CorpusDirFlag.Fetch(cliCtx)
	catalogDir := cliUtils.CatalogDirFlag.Fetch(cliCtx)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source corpus.Source
	if cliUtils.NoFetchFlag.Fetch(cliCtx) {
		source = &corpus.DirSource{Dir: corpusDir}
	} else {
		source = &corpus.GitSource{
			URL:    cliUtils.RemoteFlag.Fetch(cliCtx),
			Dir:    corpusDir,
			Groups: cliUtils.GroupsFlag.Fetch(cliCtx),
		}
	}

	synchronizer := corpus.NewSynchronizer(source, corpusDir)
	diff, err := synchronizer.Sync(ctx)
	if err != nil {
		return err
	}
	if !diff.Empty() {
		fmt.Printf("Upstream changes: %s\n", diff)
	}

	cat, excluded, failures, err := buildCatalog(synchronizer)
	if err != nil {
		return err
	}
	if err := catalog.Write(cat, catalogDir); err != nil {
		return fmt.Errorf("failed to persist catalog: %w", err)
	}

	fmt.Printf("Catalog rebuilt: %d tests, %d excluded as not provable\n", cat.NumTests(), excluded)
	if failures > 0 {
		fmt.Printf("Skipped %d malformed fixture files, see log for details\n", failures)
	}
	return nil
}

// buildCatalog normalizes every fixture of the mirror. The catalog is
// rebuilt wholesale; a malformed fixture file only loses its own tests.
func buildCatalog(synchronizer *corpus.Synchronizer) (*catalog.Catalog, int, int, error) {
	paths, err := synchronizer.Fixtures()
	if err != nil {
		return nil, 0, 0, err
	}

	normalizer := normalize.New()
	cat := catalog.New()
	excluded := 0
	failures := 0

	for _, path := range paths {
		group, sub := splitFixturePath(path)

		data, err := synchronizer.ReadFixture(path)
		if err != nil {
			return nil, 0, 0, err
		}
		result, err := normalizer.NormalizeFile(data)
		if err != nil {
			log.WithField("fixture", path).Warnf("Fixture skipped: %v", err)
			failures++
		}
		for _, test := range result.Tests {
			if err := cat.Add(group, sub, test); err != nil {
				log.WithField("fixture", path).Warnf("Test skipped: %v", err)
			}
		}
		for _, variant := range result.Excluded {
			cat.Exclude(group, sub, variant)
			excluded++
		}
	}
	return cat, excluded, failures, nil
}

// splitFixturePath maps a mirror-relative fixture path to its catalog group
// and sub-group. The regular layout is <group>/<sub-group>/<fixture>.json;
// flatter files fall back to their file stem.
func splitFixturePath(path string) (string, string) {
	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return "ungrouped", stem(parts[0])
	case 2:
		return parts[0], stem(parts[1])
	default:
		return parts[0], parts[1]
	}
}

func stem(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
