package cliUtils

import (
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/proofworks/zevm-harness/runner"
)

func TestVariantsFlag_ParsesOrdinalsAndRanges(t *testing.T) {
	tests := map[string]struct {
		value string
		want  *runner.VariantRange
	}{
		"unset":          {"", nil},
		"single ordinal": {"3", &runner.VariantRange{Low: 3, High: 3}},
		"range":          {"2..7", &runner.VariantRange{Low: 2, High: 7}},
		"zero":           {"0", &runner.VariantRange{Low: 0, High: 0}},
		"spaced range":   {"2 .. 7", &runner.VariantRange{Low: 2, High: 7}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			rng, err := fetchVariants(t, test.value)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", test.value, err)
			}
			if test.want == nil {
				if rng != nil {
					t.Fatalf("expected no range, got %v", rng)
				}
				return
			}
			if rng == nil || *rng != *test.want {
				t.Errorf("unexpected range, wanted %v, got %v", test.want, rng)
			}
		})
	}
}

func TestVariantsFlag_RejectsMalformedRanges(t *testing.T) {
	for _, value := range []string{"abc", "7..2", "-1", "1..x", ".."} {
		t.Run(value, func(t *testing.T) {
			if _, err := fetchVariants(t, value); err == nil {
				t.Errorf("expected parsing of %q to fail", value)
			}
		})
	}
}

func TestDetailsFlag_CompilesTheFilter(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{DetailsFlag},
		Action: func(context *cli.Context) error {
			filter, err := DetailsFlag.Fetch(context)
			if err != nil {
				t.Fatalf("failed to compile filter: %v", err)
			}
			if !filter.MatchString("stGroup/add/add1_d0_g0_v0") {
				t.Errorf("filter does not match the expected path")
			}
			return nil
		},
	}
	if err := app.Run([]string{"app", "--details", "add"}); err != nil {
		t.Fatalf("app failed: %v", err)
	}
}

func TestDetailsFlag_RejectsInvalidExpressions(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{DetailsFlag},
		Action: func(context *cli.Context) error {
			if _, err := DetailsFlag.Fetch(context); err == nil {
				t.Errorf("expected invalid expression to be rejected")
			}
			return nil
		},
	}
	if err := app.Run([]string{"app", "--details", "("}); err != nil {
		t.Fatalf("app failed: %v", err)
	}
}

func fetchVariants(t *testing.T, value string) (*runner.VariantRange, error) {
	t.Helper()
	var rng *runner.VariantRange
	var fetchErr error
	app := &cli.App{
		Flags: []cli.Flag{VariantsFlag},
		Action: func(context *cli.Context) error {
			rng, fetchErr = VariantsFlag.Fetch(context)
			return nil
		},
	}
	args := []string{"app"}
	if value != "" {
		args = append(args, "--variants", value)
	}
	if err := app.Run(args); err != nil {
		t.Fatalf("app failed: %v", err)
	}
	return rng, fetchErr
}
