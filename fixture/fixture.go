package fixture

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Fixture is one upstream test definition before variant expansion. The JSON
// document is written for a full node; several fields are redundant with the
// RLP-encoded block payload, which is treated as the source of truth (see
// CanonicalBlock).
type Fixture struct {
	// Name is the fixture's key in the upstream document, set by ParseFile.
	Name string `json:"-"`

	Network string      `json:"network"`
	Blocks  []Block     `json:"blocks"`
	Pre     Alloc       `json:"pre"`
	Post    []PostEntry `json:"postState"`
}

// Block is the JSON view of a single block of a fixture. The RLP payload is
// authoritative; Header and Transactions are only used for cross-checking.
type Block struct {
	RLP          hexutil.Bytes `json:"rlp"`
	Header       *Header       `json:"blockHeader,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// Header carries the block header fields the engine cares about. All numeric
// fields tolerate values beyond 64 bits since upstream fixtures deliberately
// probe overflow behavior.
type Header struct {
	Number     *BigValue      `json:"number"`
	Coinbase   common.Address `json:"coinbase"`
	GasLimit   *BigValue      `json:"gasLimit"`
	GasUsed    *BigValue      `json:"gasUsed"`
	Timestamp  *BigValue      `json:"timestamp"`
	BaseFee    *BigValue      `json:"baseFeePerGas"`
	Random     *common.Hash   `json:"mixHash,omitempty"`
	ParentHash common.Hash    `json:"parentHash"`
	StateRoot  common.Hash    `json:"stateRoot"`
}

// Transaction is the JSON view of one transaction of a block.
type Transaction struct {
	Data     hexutil.Bytes `json:"data"`
	GasLimit *BigValue     `json:"gasLimit"`
	GasUsed  *BigValue     `json:"gasUsed"`
	GasPrice *BigValue     `json:"gasPrice"`
	Nonce    *BigValue     `json:"nonce"`
	To       string        `json:"to"`
	Value    *BigValue     `json:"value"`
}

// Account is one pre-state account. Numeric fields and storage keys are
// kept lenient since upstream files mix padded, unpadded, and decimal
// notations; canonicalization happens during normalization.
type Account struct {
	Balance *BigValue            `json:"balance"`
	Nonce   *BigValue            `json:"nonce"`
	Code    hexutil.Bytes        `json:"code"`
	Storage map[string]*BigValue `json:"storage"`
}

// Alloc maps addresses to their pre-state accounts.
type Alloc map[common.Address]Account

// PostEntry describes one variant of a fixture. The indexes triple
// distinguishes the data/gas/value parameterizations of the shared
// transaction template.
type PostEntry struct {
	Hash    common.Hash   `json:"hash"`
	Indexes Indexes       `json:"indexes"`
	Logs    common.Hash   `json:"logs"`
	TxBytes hexutil.Bytes `json:"txbytes"`
}

// Indexes is the (data, gas, value) triple identifying a variant.
type Indexes struct {
	Data  int `json:"data"`
	Gas   int `json:"gas"`
	Value int `json:"value"`
}

// ParseFile decodes one upstream fixture file. Upstream files are maps from
// fixture name to fixture body, typically with a single entry. The result is
// sorted by name so repeated parses enumerate fixtures in the same order.
func ParseFile(data []byte) ([]*Fixture, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed fixture file: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	fixtures := make([]*Fixture, 0, len(raw))
	for _, name := range names {
		fixture := &Fixture{Name: name}
		if err := json.Unmarshal(raw[name], fixture); err != nil {
			return nil, fmt.Errorf("malformed fixture %q: %w", name, err)
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}
