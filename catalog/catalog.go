package catalog

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Variant is the (data, gas, value) index triple distinguishing the
// parameterizations of a fixture. No two variants of the same fixture may
// share a triple.
type Variant struct {
	Data  int `json:"data"`
	Gas   int `json:"gas"`
	Value int `json:"value"`
}

func (v Variant) String() string {
	return fmt.Sprintf("d%d_g%d_v%d", v.Data, v.Gas, v.Value)
}

// Name builds the full variant identifier for the given fixture.
func (v Variant) Name(fixture string) string {
	return fixture + "_" + v.String()
}

// BlockHeader is the canonicalized header of a normalized test. GasLimit is
// guaranteed to fit 32 bits; headers exceeding that range are clamped during
// normalization and flagged on the test.
type BlockHeader struct {
	Number     uint64         `json:"number"`
	Coinbase   common.Address `json:"coinbase"`
	Timestamp  uint64         `json:"timestamp"`
	GasLimit   uint32         `json:"gasLimit"`
	BaseFee    *uint256.Int   `json:"baseFeePerGas,omitempty"`
	Random     common.Hash    `json:"random"`
	ParentHash common.Hash    `json:"parentHash"`
	StateRoot  common.Hash    `json:"stateRoot"`
}

// Transaction is one canonicalized transaction. GasUsed is guaranteed to fit
// 32 bits; variants with wider transactions never reach the catalog.
type Transaction struct {
	GasUsed uint32        `json:"gasUsed"`
	Payload hexutil.Bytes `json:"payload"`
}

// Account is one pre-state account of a normalized test. Storage keys and
// values are canonicalized to 32-byte words.
type Account struct {
	Balance  *uint256.Int                `json:"balance"`
	Nonce    uint64                      `json:"nonce"`
	CodeHash common.Hash                 `json:"codeHash"`
	Storage  map[common.Hash]common.Hash `json:"storage,omitempty"`
}

// GenerationInputs are the auxiliary inputs the compute engine needs to
// generate a witness or proof for a test.
type GenerationInputs struct {
	SignedTxns  []hexutil.Bytes               `json:"signedTxns"`
	Contracts   map[common.Hash]hexutil.Bytes `json:"contracts,omitempty"`
	StateDigest common.Hash                   `json:"stateDigest"`
}

// NormalizedTest is the canonical, engine-ready representation of one test
// variant. Instances are immutable after creation; re-parsing a fixture
// produces new instances rather than mutating existing ones.
type NormalizedTest struct {
	Name         string                     `json:"name"`
	Fixture      string                     `json:"fixture"`
	Variant      Variant                    `json:"variant"`
	Ordinal      int                        `json:"ordinal"`
	Clamped      bool                       `json:"clamped,omitempty"`
	Header       BlockHeader                `json:"header"`
	Transactions []Transaction              `json:"transactions"`
	Pre          map[common.Address]Account `json:"pre"`
	Inputs       GenerationInputs           `json:"inputs"`
}

// SubGroup is an ordered sequence of normalized tests plus the journal of
// variant identifiers excluded as not provable.
type SubGroup struct {
	Name     string
	Tests    []*NormalizedTest
	Excluded []string
}

// Group is an ordered sequence of sub-groups.
type Group struct {
	Name      string
	SubGroups []*SubGroup

	index map[string]*SubGroup
}

// Catalog is the hierarchical index of all normalized tests of a corpus:
// group, then sub-group, then test, each level preserving insertion order for
// deterministic reporting. A catalog is rebuilt wholesale on each parse run.
type Catalog struct {
	Groups []*Group

	index    map[string]*Group
	variants map[string]struct{}
}

func New() *Catalog {
	return &Catalog{
		index:    make(map[string]*Group),
		variants: make(map[string]struct{}),
	}
}

// Add inserts a normalized test under the given group and sub-group,
// creating them as needed. Adding two variants of the same fixture with the
// same index triple is an error.
func (c *Catalog) Add(group, sub string, test *NormalizedTest) error {
	if _, exists := c.variants[test.Name]; exists {
		return fmt.Errorf("duplicate variant %q", test.Name)
	}
	c.variants[test.Name] = struct{}{}
	s := c.subGroup(group, sub)
	s.Tests = append(s.Tests, test)
	return nil
}

// Exclude records a variant identifier as not provable under the given group
// and sub-group. Excluded variants are absent from all statistics but remain
// auditable.
func (c *Catalog) Exclude(group, sub, variant string) {
	s := c.subGroup(group, sub)
	s.Excluded = append(s.Excluded, variant)
}

func (c *Catalog) subGroup(group, sub string) *SubGroup {
	g, found := c.index[group]
	if !found {
		g = &Group{Name: group, index: make(map[string]*SubGroup)}
		c.index[group] = g
		c.Groups = append(c.Groups, g)
	}
	s, found := g.index[sub]
	if !found {
		s = &SubGroup{Name: sub}
		g.index[sub] = s
		g.SubGroups = append(g.SubGroups, s)
	}
	return s
}

// NumTests returns the total number of tests in the catalog.
func (c *Catalog) NumTests() int {
	count := 0
	for _, g := range c.Groups {
		for _, s := range g.SubGroups {
			count += len(s.Tests)
		}
	}
	return count
}

// Walk visits every test in catalog order.
func (c *Catalog) Walk(visit func(group, sub string, test *NormalizedTest)) {
	for _, g := range c.Groups {
		for _, s := range g.SubGroups {
			for _, t := range s.Tests {
				visit(g.Name, s.Name, t)
			}
		}
	}
}
