package cliUtils

import (
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/proofworks/zevm-harness/runner"
)

type pathFilterFlagType struct {
	cli.StringFlag
}

var PathFilterFlag = &pathFilterFlagType{
	cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "run only tests whose group/sub-group/fixture path matches the given prefix",
		Value:   "",
	},
}

func (f *pathFilterFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type variantsFlagType struct {
	cli.StringFlag
}

var VariantsFlag = &variantsFlagType{
	cli.StringFlag{
		Name:  "variants",
		Usage: "run only variants with the given ordinal or inclusive ordinal range, e.g. 3 or 2..7",
	},
}

func (f *variantsFlagType) Fetch(context *cli.Context) (*runner.VariantRange, error) {
	value := context.String(f.Name)
	if value == "" {
		return nil, nil
	}
	low, high, found := strings.Cut(value, "..")
	if !found {
		high = low
	}
	lowOrdinal, err := strconv.Atoi(strings.TrimSpace(low))
	if err != nil {
		return nil, fmt.Errorf("invalid variant range %q", value)
	}
	highOrdinal, err := strconv.Atoi(strings.TrimSpace(high))
	if err != nil || highOrdinal < lowOrdinal || lowOrdinal < 0 {
		return nil, fmt.Errorf("invalid variant range %q", value)
	}
	return &runner.VariantRange{Low: lowOrdinal, High: highOrdinal}, nil
}

type blacklistFlagType struct {
	cli.StringFlag
}

var BlacklistFlag = &blacklistFlagType{
	cli.StringFlag{
		Name:      "blacklist",
		Usage:     "file listing variant identifiers to exclude from execution",
		TakesFile: true,
	},
}

func (f *blacklistFlagType) Fetch(context *cli.Context) (runner.Blacklist, error) {
	path := context.String(f.Name)
	if path == "" {
		return runner.Blacklist{}, nil
	}
	return runner.LoadBlacklist(path)
}

type skipPassedFlagType struct {
	cli.BoolFlag
}

var SkipPassedFlag = &skipPassedFlagType{
	cli.BoolFlag{
		Name:  "skip-passed",
		Usage: "skip variants whose recorded outcome already covers the current execution mode",
	},
}

func (f *skipPassedFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type fullModeFlagType struct {
	cli.BoolFlag
}

var FullModeFlag = &fullModeFlagType{
	cli.BoolFlag{
		Name:  "full-mode",
		Usage: "generate complete proofs instead of only input witnesses",
	},
}

func (f *fullModeFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type jobsFlagType struct {
	cli.IntFlag
}

var JobsFlag = &jobsFlagType{
	cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of jobs run simultaneously",
		Value:   runtime.NumCPU(),
	},
}

func (f *jobsFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

type seedFlagType struct {
	cli.Uint64Flag
}

var SeedFlag = &seedFlagType{
	cli.Uint64Flag{
		Name:    "seed",
		Aliases: []string{"s"},
		Usage:   "seed for shuffling the dispatch order; 0 keeps catalog order",
	},
}

func (f *seedFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type detailsFlagType struct {
	cli.StringFlag
}

var DetailsFlag = &detailsFlagType{
	cli.StringFlag{
		Name:  "details",
		Usage: "print per-test outcomes for test paths matching the given regex",
	},
}

func (f *detailsFlagType) Fetch(context *cli.Context) (*regexp.Regexp, error) {
	value := context.String(f.Name)
	if value == "" {
		return nil, nil
	}
	return regexp.Compile(value)
}

type dirFlagType struct {
	cli.StringFlag
}

func dirFlag(name, usage, value string) *dirFlagType {
	return &dirFlagType{cli.StringFlag{Name: name, Usage: usage, Value: value}}
}

func (f *dirFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

var (
	CorpusDirFlag  = dirFlag("corpus-dir", "local mirror of the upstream corpus", "corpus")
	CatalogDirFlag = dirFlag("catalog-dir", "directory holding the normalized test catalog", "catalog")
	HistoryDirFlag = dirFlag("history-dir", "directory holding the persisted run history", "run-history")
	ReportDirFlag  = dirFlag("report-dir", "directory report files are written to", "reports")
)

type remoteFlagType struct {
	cli.StringFlag
}

var RemoteFlag = &remoteFlagType{
	cli.StringFlag{
		Name:  "remote",
		Usage: "upstream corpus repository",
		Value: "https://github.com/ethereum/tests.git",
	},
}

func (f *remoteFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type groupsFlagType struct {
	cli.StringSliceFlag
}

var GroupsFlag = &groupsFlagType{
	cli.StringSliceFlag{
		Name:  "groups",
		Usage: "test groups to mirror from the upstream corpus",
		Value: cli.NewStringSlice("GeneralStateTests"),
	},
}

func (f *groupsFlagType) Fetch(context *cli.Context) []string {
	return context.StringSlice(f.Name)
}

type noFetchFlagType struct {
	cli.BoolFlag
}

var NoFetchFlag = &noFetchFlagType{
	cli.BoolFlag{
		Name:  "no-fetch",
		Usage: "skip the network step and treat the existing local mirror as authoritative",
	},
}

func (f *noFetchFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}
