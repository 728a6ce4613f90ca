package history

import (
	"fmt"
	"time"
)

// Outcome is the last known result of executing a test variant.
type Outcome int

const (
	NeverRun Outcome = iota
	WitnessPassed
	ProofPassed
	Failed
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case NeverRun:
		return "never-run"
	case WitnessPassed:
		return "witness-passed"
	case ProofPassed:
		return "proof-passed"
	case Failed:
		return "failed"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Passed reports whether the outcome counts as a pass in statistics.
func (o Outcome) Passed() bool {
	return o == WitnessPassed || o == ProofPassed
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range []Outcome{NeverRun, WitnessPassed, ProofPassed, Failed, Ignored} {
		if string(text) == candidate.String() {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(text))
}

// Record is the persisted run history of one test variant. A variant has at
// most one record; re-executing the variant overwrites it.
type Record struct {
	Variant string    `json:"variant"`
	Outcome Outcome   `json:"outcome"`
	When    time.Time `json:"when"`
}

// Store is a durable mapping from variant identifier to its latest record.
// It is read once at orchestrator start and updated incrementally as
// variants complete, so an interrupted run keeps the progress of finished
// variants. Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the record for the given variant. The second result is
	// false if the variant has never been recorded.
	Get(variant string) (Record, bool, error)

	// Put stores the given record, replacing any previous record of the same
	// variant. The record must be durable when Put returns.
	Put(record Record) error

	// All returns all stored records.
	All() ([]Record, error)

	// Close releases the store's resources.
	Close() error
}
