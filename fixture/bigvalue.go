package fixture

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// bigIntPrefix marks upstream values that intentionally exceed 256 bits,
// e.g. transaction.value in overflow fixtures. The prefix has to be stripped
// before the numeric part can be parsed.
const bigIntPrefix = "0x:bigint "

// BigValue is a numeric fixture field of arbitrary width. Upstream fixtures
// probe overflow behavior on purpose, so fields like gas limits and values
// must survive parsing even when they do not fit any machine word.
type BigValue struct {
	value big.Int
}

// NewBigValue creates a BigValue holding the given word. Mostly used by
// tests.
func NewBigValue(v uint64) *BigValue {
	b := &BigValue{}
	b.value.SetUint64(v)
	return b
}

func (b *BigValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimPrefix(s, bigIntPrefix)

	base := 10
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		s, base = rest, 16
		if s == "" {
			s = "0"
		}
	}
	if _, ok := b.value.SetString(s, base); !ok {
		return fmt.Errorf("invalid numeric value %q", s)
	}
	return nil
}

func (b *BigValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%x", &b.value))
}

// FitsUint32 reports whether the value is representable as an unsigned
// 32-bit integer.
func (b *BigValue) FitsUint32() bool {
	return b != nil && b.value.IsUint64() && b.value.Uint64() <= math.MaxUint32
}

// Uint64 returns the value truncated to 64 bits. Callers are expected to
// have checked the fit beforehand.
func (b *BigValue) Uint64() uint64 {
	if b == nil {
		return 0
	}
	return b.value.Uint64()
}

// Big returns the untruncated value.
func (b *BigValue) Big() *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(&b.value)
}

func (b *BigValue) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("0x%x", &b.value)
}
