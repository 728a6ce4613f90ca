package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"pgregory.net/rand"

	"github.com/proofworks/zevm-harness/catalog"
	"github.com/proofworks/zevm-harness/engine"
	"github.com/proofworks/zevm-harness/history"
)

// Options configures one orchestrated run.
type Options struct {
	// Mode selects witness-only or full-proof execution.
	Mode engine.Mode
	// Jobs bounds the worker pool; defaults to the number of CPUs. Proof
	// generation is expensive, so an unbounded pool is never assumed.
	Jobs int
	// Seed shuffles the dispatch order reproducibly when Shuffle is set, so
	// long-proving variants spread across workers.
	Seed    uint64
	Shuffle bool
	// Policy is the selection policy applied to the catalog.
	Policy Policy
	// Progress, if set, is invoked periodically with the elapsed run time,
	// the current execution rate in tests per second, and the number of
	// completed tests.
	Progress func(elapsed time.Duration, rate float64, completed int64)
}

// progressPeriod is the interval between Progress callbacks.
const progressPeriod = 5 * time.Second

// Run executes the selected portion of the catalog against the given engine
// and returns one record per variant executed or carried forward in this
// run, keyed by variant identifier. Each record is persisted to the store
// the moment its variant completes, so an interrupted run keeps its
// progress. Engine failures never abort the run; persistence failures do.
func Run(
	ctx context.Context,
	cat *catalog.Catalog,
	eng engine.Engine,
	store history.Store,
	options Options,
) (map[string]history.Record, error) {
	jobs := options.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	records := make(map[string]history.Record)
	work, err := selectWork(cat, store, options, records)
	if err != nil {
		return nil, err
	}
	if options.Shuffle {
		rnd := rand.New(options.Seed)
		rnd.Shuffle(len(work), func(i, j int) {
			work[i], work[j] = work[j], work[i]
		})
	}

	// The run is coordinated by three groups of goroutines: a team of
	// workers consuming tests from a channel and executing them, a collector
	// folding finished records into the result map, and a progress reporter.
	// Consumers are started before the dispatch loop to avoid dead-locks.

	var completed atomic.Int64
	var abort atomic.Bool

	var errOnce sync.Once
	var runErr error
	fail := func(err error) {
		errOnce.Do(func() { runErr = err })
		abort.Store(true)
	}

	printerDone := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(printerDone)
		if options.Progress == nil {
			return
		}
		ticker := time.NewTicker(progressPeriod)
		defer ticker.Stop()
		startTime := time.Now()
		lastTime := startTime
		lastCompleted := int64(0)
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				current := completed.Load()
				rate := float64(current-lastCompleted) / now.Sub(lastTime).Seconds()
				lastTime, lastCompleted = now, current
				options.Progress(now.Sub(startTime), rate, current)
			}
		}
	}()

	results := make(chan history.Record, jobs)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for record := range results {
			records[record.Variant] = record
		}
	}()

	var workerGroup sync.WaitGroup
	workChannel := make(chan *catalog.NormalizedTest, jobs)
	workerGroup.Add(jobs)
	for i := 0; i < jobs; i++ {
		go func() {
			defer workerGroup.Done()
			for test := range workChannel {
				if abort.Load() {
					continue // keep draining the channel
				}
				record := history.Record{
					Variant: test.Name,
					Outcome: runVariant(ctx, eng, test, options.Mode),
					When:    time.Now().UTC(),
				}
				// Losing a record would silently violate the skip-passed
				// contract, so a failing store ends the run.
				if err := store.Put(record); err != nil {
					fail(fmt.Errorf("failed to persist run history: %w", err))
					continue
				}
				completed.Add(1)
				results <- record
			}
		}()
	}

dispatch:
	for _, test := range work {
		select {
		case <-ctx.Done():
			log.Info("Interrupted, waiting for in-flight tests to finish")
			break dispatch
		case workChannel <- test:
		}
	}

	close(workChannel)
	workerGroup.Wait()
	close(results)
	<-collectorDone
	close(done)
	<-printerDone

	return records, runErr
}

// selectWork applies the selection policy to the catalog in catalog order.
// Records carried forward by the skip-passed policy are placed into records
// unchanged; everything else selected is returned for execution.
func selectWork(
	cat *catalog.Catalog,
	store history.Store,
	options Options,
	records map[string]history.Record,
) ([]*catalog.NormalizedTest, error) {
	var work []*catalog.NormalizedTest
	var selectErr error
	cat.Walk(func(group, sub string, test *catalog.NormalizedTest) {
		if selectErr != nil || !options.Policy.Selects(group, sub, test) {
			return
		}
		if options.Policy.SkipPassed {
			prior, found, err := store.Get(test.Name)
			if err != nil {
				selectErr = fmt.Errorf("failed to read run history: %w", err)
				return
			}
			if found && skipsInMode(options.Mode, prior.Outcome) {
				records[test.Name] = prior
				return
			}
		}
		work = append(work, test)
	})
	return work, selectErr
}

// runVariant executes one test and classifies the outcome. Engine panics are
// contained here; a panicking engine invocation is an abnormal termination
// of that variant only.
func runVariant(
	ctx context.Context,
	eng engine.Engine,
	test *catalog.NormalizedTest,
	mode engine.Mode,
) (outcome history.Outcome) {
	defer func() {
		if issue := recover(); issue != nil {
			log.WithField("test", test.Name).Errorf("Engine panicked: %v", issue)
			outcome = classifyFailure(test)
		}
	}()

	result, err := eng.Run(ctx, test, mode)
	if err != nil {
		log.WithField("test", test.Name).Debugf("Engine failed: %v", err)
		return classifyFailure(test)
	}
	if mode == engine.Full && len(result.Proof) == 0 {
		log.WithField("test", test.Name).Debug("Engine produced no proof")
		return classifyFailure(test)
	}
	if mode == engine.Full {
		return history.ProofPassed
	}
	return history.WitnessPassed
}

// classifyFailure decides between a genuine failure and an ignored one. A
// variant whose gas limit was clamped during normalization executes an
// approximation of the real test; failures there are expected-possible and
// not counted as engine defects.
func classifyFailure(test *catalog.NormalizedTest) history.Outcome {
	if test.Clamped {
		return history.Ignored
	}
	return history.Failed
}
