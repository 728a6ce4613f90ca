package engine

import (
	"context"
	"fmt"

	"github.com/proofworks/zevm-harness/catalog"
)

//go:generate mockgen -source engine.go -destination engine_mock.go -package engine

// Mode selects how much work an engine invocation performs for a test.
type Mode int

const (
	// Witness only generates the engine's input witness. Markedly cheaper
	// than a full proof, but constraint violations that only manifest during
	// proving can be missed.
	Witness Mode = iota
	// Full generates the complete proof.
	Full
)

func (m Mode) String() string {
	switch m {
	case Witness:
		return "witness"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Result is the successful outcome of an engine invocation. In Full mode a
// missing proof on an otherwise error-free invocation is treated as a
// failure by the caller.
type Result struct {
	Witness []byte
	Proof   []byte
}

// Engine is a compute engine capable of executing one normalized test. An
// invocation is an opaque, potentially slow, synchronous call; proof
// generation may take minutes. Implementations report execution problems via
// the error return; panics are contained by the caller.
type Engine interface {
	// Run executes the given test in the given mode. The context is only
	// consulted between invocations by the caller; engines are free to honor
	// its cancellation mid-run but are not required to.
	Run(ctx context.Context, test *catalog.NormalizedTest, mode Mode) (Result, error)
}
