package fixture

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

func TestDecodeBlock_RecoversHeaderAndTransactions(t *testing.T) {
	payload := encodeTestBlock(t, 7, 5_000_000, 2)

	block, err := DecodeBlock(payload)
	if err != nil {
		t.Fatalf("failed to decode block: %v", err)
	}
	if want, got := uint64(7), block.Header.Number.Uint64(); want != got {
		t.Errorf("unexpected block number, wanted %d, got %d", want, got)
	}
	if want, got := uint64(5_000_000), block.Header.GasLimit; want != got {
		t.Errorf("unexpected gas limit, wanted %d, got %d", want, got)
	}
	if want, got := 2, block.Transactions.Len(); want != got {
		t.Errorf("unexpected transaction count, wanted %d, got %d", want, got)
	}
}

func TestDecodeBlock_RejectsMalformedPayload(t *testing.T) {
	if _, err := DecodeBlock([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Errorf("expected decoding of malformed payload to fail")
	}
}

func TestCanonicalBlock_PayloadAgreesWithJSON(t *testing.T) {
	f := &Fixture{
		Name: "test",
		Blocks: []Block{{
			RLP: encodeTestBlock(t, 1, 100_000, 1),
			Header: &Header{
				Number:   NewBigValue(1),
				GasLimit: NewBigValue(100_000),
			},
			Transactions: []Transaction{{}},
		}},
	}
	block, err := f.CanonicalBlock()
	if err != nil {
		t.Fatalf("failed to recover canonical block: %v", err)
	}
	if want, got := uint64(100_000), block.Header.GasLimit; want != got {
		t.Errorf("unexpected gas limit, wanted %d, got %d", want, got)
	}
}

func TestCanonicalBlock_DetectsDisagreements(t *testing.T) {
	tests := map[string]struct {
		block Block
		issue string
	}{
		"block number mismatch": {
			block: Block{
				RLP:    encodeTestBlock(t, 1, 100_000, 1),
				Header: &Header{Number: NewBigValue(2)},
			},
			issue: "block number mismatch",
		},
		"gas limit mismatch": {
			block: Block{
				RLP:    encodeTestBlock(t, 1, 100_000, 1),
				Header: &Header{GasLimit: NewBigValue(50_000)},
			},
			issue: "gas limit mismatch",
		},
		"transaction count mismatch": {
			block: Block{
				RLP:          encodeTestBlock(t, 1, 100_000, 1),
				Transactions: []Transaction{{}, {}},
			},
			issue: "transaction count mismatch",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			f := &Fixture{Name: "test", Blocks: []Block{test.block}}
			_, err := f.CanonicalBlock()
			if err == nil {
				t.Fatalf("expected reconciliation to fail")
			}
			if !strings.Contains(err.Error(), test.issue) {
				t.Errorf("unexpected error, wanted %q, got %v", test.issue, err)
			}
		})
	}
}

func TestCanonicalBlock_WideJSONValuesAreSuperseded(t *testing.T) {
	wide := new(BigValue)
	wide.value.Lsh(big.NewInt(1), 80)
	f := &Fixture{
		Name: "test",
		Blocks: []Block{{
			RLP:    encodeTestBlock(t, 1, 100_000, 1),
			Header: &Header{GasLimit: wide},
		}},
	}
	if _, err := f.CanonicalBlock(); err != nil {
		t.Errorf("values beyond the payload's width must not be checked, got %v", err)
	}
}

func TestCanonicalBlock_MissingBlockIsAnError(t *testing.T) {
	f := &Fixture{Name: "empty"}
	if _, err := f.CanonicalBlock(); err == nil {
		t.Errorf("expected fixture without block to be rejected")
	}
}

func encodeTestBlock(t *testing.T, number, gasLimit uint64, numTxns int) []byte {
	t.Helper()
	header := &types.Header{
		Number:     new(big.Int).SetUint64(number),
		GasLimit:   gasLimit,
		Difficulty: big.NewInt(0),
	}
	transactions := make(types.Transactions, 0, numTxns)
	for i := 0; i < numTxns; i++ {
		to := common.Address{0x42}
		transactions = append(transactions, types.NewTx(&types.LegacyTx{
			Nonce:    uint64(i),
			GasPrice: big.NewInt(10),
			Gas:      21_000,
			To:       &to,
			Value:    big.NewInt(1),
			V:        big.NewInt(27),
			R:        big.NewInt(1),
			S:        big.NewInt(1),
		}))
	}
	block := types.NewBlockWithHeader(header).WithBody(types.Body{Transactions: transactions})
	payload, err := rlp.EncodeToBytes(block)
	if err != nil {
		t.Fatalf("failed to encode block: %v", err)
	}
	return payload
}
