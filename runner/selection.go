package runner

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/proofworks/zevm-harness/catalog"
	"github.com/proofworks/zevm-harness/engine"
	"github.com/proofworks/zevm-harness/history"
)

// VariantRange is an inclusive range of variant ordinals. A single-variant
// selection is a range with Low == High.
type VariantRange struct {
	Low  int
	High int
}

// Contains reports whether the given expansion ordinal falls in the range.
func (r *VariantRange) Contains(ordinal int) bool {
	return r == nil || (ordinal >= r.Low && ordinal <= r.High)
}

// Blacklist is a set of variant identifiers excluded from execution
// unconditionally, typically known-pathological or resource-heavy cases.
type Blacklist map[string]struct{}

// LoadBlacklist reads a blacklist file: one variant identifier per line,
// blank lines and #-comments ignored.
func LoadBlacklist(path string) (Blacklist, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blacklist: %w", err)
	}
	defer file.Close()

	blacklist := Blacklist{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		blacklist[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read blacklist: %w", err)
	}
	return blacklist, nil
}

func (b Blacklist) Contains(variant string) bool {
	_, found := b[variant]
	return found
}

// Policy is the parsed, validated selection policy of a run. All filters are
// conjunctive; the zero value selects everything.
type Policy struct {
	// Path restricts execution to tests whose group/sub-group/fixture path
	// has the given prefix (segment-wise) or matches it exactly.
	Path string
	// Variants restricts execution to variants whose expansion ordinal falls
	// in the range.
	Variants *VariantRange
	// Blacklist excludes the listed variant identifiers unconditionally.
	Blacklist Blacklist
	// SkipPassed carries forward prior records compatible with the current
	// execution mode instead of re-executing their variants.
	SkipPassed bool
}

// Selects reports whether a test passes the path, range, and blacklist
// filters. Skip-passed is consulted separately since it depends on run
// history.
func (p *Policy) Selects(group, sub string, test *catalog.NormalizedTest) bool {
	return MatchesPath(p.Path, group+"/"+sub+"/"+test.Fixture) &&
		p.Variants.Contains(test.Ordinal) &&
		!p.Blacklist.Contains(test.Name)
}

// MatchesPath checks a prefix- or exact-match of the filter against a
// group/sub-group/fixture path, on whole path segments. Shared by the
// selection policy and the list command so their filters cannot drift.
func MatchesPath(filter, path string) bool {
	if filter == "" || filter == path {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(filter, "/")+"/")
}

// skipsInMode reports whether a prior outcome makes re-execution
// unnecessary in the given mode. A witness-only run skips anything
// witness-passed or better; a full run skips only proof-passed records, so a
// variant with only a witness-level pass is re-attempted under full proving.
func skipsInMode(mode engine.Mode, outcome history.Outcome) bool {
	switch mode {
	case engine.Full:
		return outcome == history.ProofPassed
	default:
		return outcome == history.WitnessPassed || outcome == history.ProofPassed
	}
}
