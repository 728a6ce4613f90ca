package normalize

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/proofworks/zevm-harness/catalog"
	"github.com/proofworks/zevm-harness/fixture"
)

// blockCacheSize bounds the cache of decoded block payloads. Variants of the
// same base fixture frequently share identical payloads.
const blockCacheSize = 1024

// Normalizer converts raw fixtures into engine-ready normalized tests,
// applying the exclusion and capping policies of the harness.
type Normalizer struct {
	blocks *lru.Cache[common.Hash, *fixture.CanonicalBlock]
}

func New() *Normalizer {
	cache, err := lru.New[common.Hash, *fixture.CanonicalBlock](blockCacheSize)
	if err != nil {
		panic(fmt.Sprintf("invalid block cache size: %v", err))
	}
	return &Normalizer{blocks: cache}
}

// Result is the outcome of normalizing one fixture file.
type Result struct {
	// Tests are the normalized tests, one per surviving variant.
	Tests []*catalog.NormalizedTest
	// Excluded lists the variant identifiers recorded as not provable. Such
	// variants never reach the catalog and are never attempted.
	Excluded []string
}

// NormalizeFile parses one upstream fixture file and normalizes every
// fixture it contains. A malformed fixture only fails itself; the returned
// error accumulates the per-fixture failures while Tests and Excluded carry
// the fixtures that survived.
func (n *Normalizer) NormalizeFile(data []byte) (Result, error) {
	fixtures, err := fixture.ParseFile(data)
	if err != nil {
		return Result{}, err
	}

	var result Result
	var errs error
	ordinals := make(map[string]int)
	seen := make(map[string]struct{})

	for _, f := range fixtures {
		base, variant := splitVariantName(f.Name)
		name := variant.Name(base)
		if _, duplicate := seen[name]; duplicate {
			errs = multierror.Append(errs, fmt.Errorf("fixture %q: duplicate variant %s", base, variant))
			continue
		}
		seen[name] = struct{}{}

		ordinal := ordinals[base]
		ordinals[base]++

		test, err := n.normalize(f, base, variant, ordinal)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if test == nil {
			result.Excluded = append(result.Excluded, name)
			continue
		}
		result.Tests = append(result.Tests, test)
	}
	return result, errs
}

// normalize converts one fixture variant. A nil test with nil error means
// the variant was excluded as not provable.
func (n *Normalizer) normalize(
	f *fixture.Fixture,
	base string,
	variant catalog.Variant,
	ordinal int,
) (*catalog.NormalizedTest, error) {
	block, err := n.decode(f)
	if err != nil {
		return nil, err
	}

	transactions, provable, err := canonicalTransactions(f, block)
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
	}
	if !provable {
		return nil, nil
	}

	header, clamped := canonicalHeader(block)

	pre, contracts, err := canonicalPre(f.Pre)
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
	}

	signedTxns, err := signedTransactions(f, block)
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
	}

	return &catalog.NormalizedTest{
		Name:         variant.Name(base),
		Fixture:      base,
		Variant:      variant,
		Ordinal:      ordinal,
		Clamped:      clamped,
		Header:       header,
		Transactions: transactions,
		Pre:          pre,
		Inputs: catalog.GenerationInputs{
			SignedTxns:  signedTxns,
			Contracts:   contracts,
			StateDigest: stateDigest(f.Pre),
		},
	}, nil
}

// decode recovers the canonical block of a fixture, caching decoded payloads
// by their keccak hash.
func (n *Normalizer) decode(f *fixture.Fixture) (*fixture.CanonicalBlock, error) {
	if len(f.Blocks) == 0 {
		return nil, fmt.Errorf("fixture %q has no block", f.Name)
	}
	key := keccak(f.Blocks[0].RLP)
	if block, found := n.blocks.Get(key); found {
		return block, nil
	}
	block, err := f.CanonicalBlock()
	if err != nil {
		return nil, err
	}
	n.blocks.Add(key, block)
	return block, nil
}

// canonicalTransactions derives the ordered transaction list of a variant.
// The gas_used of each transaction is taken from the fixture's JSON when
// present and from the decoded payload otherwise. A transaction whose
// gas_used does not fit 32 bits makes the whole variant not provable.
func canonicalTransactions(
	f *fixture.Fixture,
	block *fixture.CanonicalBlock,
) ([]catalog.Transaction, bool, error) {
	jsonTxns := f.Blocks[0].Transactions
	transactions := make([]catalog.Transaction, 0, block.Transactions.Len())
	for i, tx := range block.Transactions {
		gasUsed := fixture.NewBigValue(tx.Gas())
		if i < len(jsonTxns) && jsonTxns[i].GasUsed != nil {
			gasUsed = jsonTxns[i].GasUsed
		}
		if !gasUsed.FitsUint32() {
			return nil, false, nil
		}
		payload, err := tx.MarshalBinary()
		if err != nil {
			return nil, false, fmt.Errorf("failed to encode transaction %d: %w", i, err)
		}
		transactions = append(transactions, catalog.Transaction{
			GasUsed: uint32(gasUsed.Uint64()),
			Payload: payload,
		})
	}
	return transactions, true, nil
}

// canonicalHeader converts the decoded header, clamping a gas limit beyond
// the 32-bit range to the maximum representable value. Clamped variants stay
// in the catalog but are flagged so downstream failures are reported as
// ignored instead of genuine engine defects.
func canonicalHeader(block *fixture.CanonicalBlock) (catalog.BlockHeader, bool) {
	src := block.Header
	header := catalog.BlockHeader{
		Number:     src.Number.Uint64(),
		Coinbase:   src.Coinbase,
		Timestamp:  src.Time,
		ParentHash: src.ParentHash,
		StateRoot:  src.Root,
		Random:     src.MixDigest,
	}
	if src.BaseFee != nil {
		baseFee, overflow := uint256.FromBig(src.BaseFee)
		if !overflow {
			header.BaseFee = baseFee
		}
	}

	clamped := false
	if src.GasLimit > math.MaxUint32 {
		header.GasLimit = math.MaxUint32
		clamped = true
	} else {
		header.GasLimit = uint32(src.GasLimit)
	}
	return header, clamped
}

// canonicalPre converts the pre-state allocation and collects the code of
// all contract accounts keyed by code hash.
func canonicalPre(alloc fixture.Alloc) (map[common.Address]catalog.Account, map[common.Hash]hexutil.Bytes, error) {
	pre := make(map[common.Address]catalog.Account, len(alloc))
	contracts := make(map[common.Hash]hexutil.Bytes)
	for address, account := range alloc {
		nonce := account.Nonce
		if nonce != nil && !nonce.Big().IsUint64() {
			return nil, nil, fmt.Errorf("account %s: nonce out of range", address)
		}
		balance := uint256.NewInt(0)
		if account.Balance != nil {
			converted, overflow := uint256.FromBig(account.Balance.Big())
			if overflow {
				return nil, nil, fmt.Errorf("account %s: balance out of range", address)
			}
			balance = converted
		}

		converted := catalog.Account{
			Balance: balance,
			Nonce:   nonce.Uint64(),
		}
		if len(account.Code) > 0 {
			hash := keccak(account.Code)
			converted.CodeHash = hash
			contracts[hash] = account.Code
		}
		if len(account.Storage) > 0 {
			storage := make(map[common.Hash]common.Hash, len(account.Storage))
			for key, value := range account.Storage {
				word, err := storageWord(key)
				if err != nil {
					return nil, nil, fmt.Errorf("account %s: %w", address, err)
				}
				var content common.Hash
				if value != nil {
					converted, overflow := uint256.FromBig(value.Big())
					if overflow {
						return nil, nil, fmt.Errorf("account %s: storage value %s out of range", address, value)
					}
					content = converted.Bytes32()
				}
				storage[word] = content
			}
			converted.Storage = storage
		}
		pre[address] = converted
	}
	if len(contracts) == 0 {
		contracts = nil
	}
	return pre, contracts, nil
}

// signedTransactions assembles the raw signed transactions fed to the
// engine. Post-state entries carrying explicit transaction bytes win over
// the re-encoded payload transactions.
func signedTransactions(f *fixture.Fixture, block *fixture.CanonicalBlock) ([]hexutil.Bytes, error) {
	var signed []hexutil.Bytes
	for _, post := range f.Post {
		if len(post.TxBytes) > 0 {
			signed = append(signed, post.TxBytes)
		}
	}
	if len(signed) > 0 {
		return signed, nil
	}
	for i, tx := range block.Transactions {
		payload, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to encode transaction %d: %w", i, err)
		}
		signed = append(signed, payload)
	}
	return signed, nil
}

// storageWord canonicalizes a raw fixture storage key, which may be padded
// or unpadded hex, or decimal.
func storageWord(key string) (common.Hash, error) {
	raw := new(big.Int)
	var ok bool
	if hex, isHex := strings.CutPrefix(key, "0x"); isHex {
		_, ok = raw.SetString(hex, 16)
	} else {
		_, ok = raw.SetString(key, 10)
	}
	if !ok {
		return common.Hash{}, fmt.Errorf("invalid storage key %q", key)
	}
	value, overflow := uint256.FromBig(raw)
	if overflow {
		return common.Hash{}, fmt.Errorf("storage key %q out of range", key)
	}
	return value.Bytes32(), nil
}

func keccak(data []byte) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var hash common.Hash
	hasher.Sum(hash[:0])
	return hash
}

// variantNamePattern matches upstream fixture entry names carrying a variant
// suffix, e.g. "addTest_d2g0v1_Cancun".
var variantNamePattern = regexp.MustCompile(`^(.+)_d([0-9]+)g([0-9]+)v([0-9]+)(?:_([A-Za-z0-9]+))?$`)

// splitVariantName recovers a fixture's base name and variant triple from
// its upstream entry name. Entries without a variant suffix are a single
// (0,0,0) variant of themselves.
func splitVariantName(name string) (string, catalog.Variant) {
	match := variantNamePattern.FindStringSubmatch(name)
	if match == nil {
		return name, catalog.Variant{}
	}
	data, _ := strconv.Atoi(match[2])
	gas, _ := strconv.Atoi(match[3])
	value, _ := strconv.Atoi(match[4])
	return match[1], catalog.Variant{Data: data, Gas: gas, Value: value}
}
