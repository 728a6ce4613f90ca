package report

import (
	"regexp"

	"github.com/proofworks/zevm-harness/catalog"
	"github.com/proofworks/zevm-harness/history"
)

// SubGroupStats summarizes one sub-group of the current run.
type SubGroupStats struct {
	Name    string
	Passed  int
	Total   int
	Percent float64
}

// GroupStats summarizes one group as the sum over its sub-groups.
type GroupStats struct {
	Name      string
	Passed    int
	Total     int
	Percent   float64
	SubGroups []SubGroupStats
}

// TestResult is one row of the detailed view, named by its full
// group/sub-group/test path.
type TestResult struct {
	Name    string
	Outcome history.Outcome
}

// Collect folds the run's records into per-group and per-sub-group
// statistics, preserving the catalog's ordering. Only variants with a record
// produced or carried forward in this run contribute; stale history of
// unvisited variants never contaminates the percentages.
func Collect(cat *catalog.Catalog, records map[string]history.Record) []GroupStats {
	var groups []GroupStats
	for _, group := range cat.Groups {
		stats := GroupStats{Name: group.Name}
		for _, sub := range group.SubGroups {
			subStats := SubGroupStats{Name: sub.Name}
			for _, test := range sub.Tests {
				record, found := records[test.Name]
				if !found {
					continue
				}
				subStats.Total++
				if record.Outcome.Passed() {
					subStats.Passed++
				}
			}
			subStats.Percent = percent(subStats.Passed, subStats.Total)
			stats.Passed += subStats.Passed
			stats.Total += subStats.Total
			stats.SubGroups = append(stats.SubGroups, subStats)
		}
		stats.Percent = percent(stats.Passed, stats.Total)
		groups = append(groups, stats)
	}
	return groups
}

// Details lists the individual outcome of every recorded test in catalog
// order. A non-nil filter restricts the view to matching test paths.
func Details(cat *catalog.Catalog, records map[string]history.Record, filter *regexp.Regexp) []TestResult {
	var results []TestResult
	cat.Walk(func(group, sub string, test *catalog.NormalizedTest) {
		record, found := records[test.Name]
		if !found {
			return
		}
		path := group + "/" + sub + "/" + test.Name
		if filter != nil && !filter.MatchString(path) {
			return
		}
		results = append(results, TestResult{Name: path, Outcome: record.Outcome})
	})
	return results
}

func percent(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}
