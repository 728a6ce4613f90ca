package fixture

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// CanonicalBlock is the authoritative content of a fixture block, recovered
// from its RLP payload rather than from the JSON fields. The upstream JSON is
// written for full nodes and occasionally disagrees with its own RLP; the
// payload wins.
type CanonicalBlock struct {
	Header       *types.Header
	Transactions types.Transactions
}

// DecodeBlock decodes an RLP-encoded block payload into its canonical form.
func DecodeBlock(payload []byte) (*CanonicalBlock, error) {
	block := new(types.Block)
	if err := rlp.DecodeBytes(payload, block); err != nil {
		return nil, fmt.Errorf("invalid block payload: %w", err)
	}
	return &CanonicalBlock{
		Header:       block.Header(),
		Transactions: block.Transactions(),
	}, nil
}

// CanonicalBlock decodes the fixture's block payload and cross-checks it
// against the redundant JSON fields. State-transition fixtures carry exactly
// one block; fixtures with no block are structurally invalid.
func (f *Fixture) CanonicalBlock() (*CanonicalBlock, error) {
	if len(f.Blocks) == 0 {
		return nil, fmt.Errorf("fixture %q has no block", f.Name)
	}
	raw := f.Blocks[0]

	block, err := DecodeBlock(raw.RLP)
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
	}
	if err := reconcile(&raw, block); err != nil {
		return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
	}
	return block, nil
}

// reconcile verifies that the JSON view of a block agrees with its decoded
// payload wherever both carry the same field. JSON values too wide for the
// decoded representation are superseded by the payload and not checked.
func reconcile(raw *Block, block *CanonicalBlock) error {
	if len(raw.Transactions) > 0 && len(raw.Transactions) != block.Transactions.Len() {
		return fmt.Errorf(
			"transaction count mismatch, json %d, rlp %d",
			len(raw.Transactions), block.Transactions.Len(),
		)
	}

	header := raw.Header
	if header == nil {
		return nil
	}
	if v := header.Number; v != nil && v.Big().IsUint64() {
		if got := block.Header.Number.Uint64(); v.Uint64() != got {
			return fmt.Errorf("block number mismatch, json %d, rlp %d", v.Uint64(), got)
		}
	}
	if v := header.GasLimit; v != nil && v.Big().IsUint64() {
		if got := block.Header.GasLimit; v.Uint64() != got {
			return fmt.Errorf("gas limit mismatch, json %d, rlp %d", v.Uint64(), got)
		}
	}
	return nil
}
