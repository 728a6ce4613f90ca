package catalog

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

func TestSerialization_WriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	original := New()
	test := &NormalizedTest{
		Name:    "addTest_d0_g0_v0",
		Fixture: "addTest",
		Variant: Variant{},
		Clamped: true,
		Header: BlockHeader{
			Number:   1,
			GasLimit: math.MaxUint32,
			BaseFee:  uint256.NewInt(7),
			Coinbase: common.Address{0x42},
		},
		Transactions: []Transaction{
			{GasUsed: 21_000, Payload: []byte{0x01, 0x02}},
		},
		Pre: map[common.Address]Account{
			{0xf1}: {
				Balance:  uint256.NewInt(1000),
				Nonce:    1,
				CodeHash: common.Hash{0x0a},
				Storage: map[common.Hash]common.Hash{
					{0x01}: {0x02},
				},
			},
		},
		Inputs: GenerationInputs{
			SignedTxns:  []hexutil.Bytes{{0x01, 0x02}},
			StateDigest: common.Hash{0x0b},
		},
	}
	if err := original.Add("stGroup", "add", test); err != nil {
		t.Fatalf("failed to add test: %v", err)
	}
	original.Exclude("stGroup", "add", "addTest_d1_g0_v0")

	if err := Write(original, dir); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	restored, err := Read(dir)
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}

	if want, got := 1, restored.NumTests(); want != got {
		t.Fatalf("unexpected number of tests, wanted %d, got %d", want, got)
	}
	sub := restored.Groups[0].SubGroups[0]
	if !reflect.DeepEqual(test, sub.Tests[0]) {
		t.Errorf("test changed in round trip, wanted %+v, got %+v", test, sub.Tests[0])
	}
	if want, got := 1, len(sub.Excluded); want != got {
		t.Fatalf("unexpected number of excluded variants, wanted %d, got %d", want, got)
	}
	if want, got := "addTest_d1_g0_v0", sub.Excluded[0]; want != got {
		t.Errorf("unexpected excluded variant, wanted %s, got %s", want, got)
	}
}

func TestSerialization_WriteReplacesPreviousContent(t *testing.T) {
	dir := t.TempDir()

	first := New()
	if err := first.Add("group", "sub", &NormalizedTest{Name: "old_d0_g0_v0"}); err != nil {
		t.Fatalf("failed to add test: %v", err)
	}
	if err := Write(first, dir); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	second := New()
	if err := second.Add("group", "sub", &NormalizedTest{Name: "new_d0_g0_v0"}); err != nil {
		t.Fatalf("failed to add test: %v", err)
	}
	if err := Write(second, dir); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	restored, err := Read(dir)
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}
	if want, got := 1, restored.NumTests(); want != got {
		t.Fatalf("stale tests survived the rebuild, wanted %d test, got %d", want, got)
	}
	if want, got := "new_d0_g0_v0", restored.Groups[0].SubGroups[0].Tests[0].Name; want != got {
		t.Errorf("unexpected surviving test, wanted %s, got %s", want, got)
	}
}

func TestSerialization_RepeatedWritesAreByteIdentical(t *testing.T) {
	build := func() *Catalog {
		c := New()
		for _, name := range []string{"a_d0_g0_v0", "a_d1_g0_v0"} {
			test := &NormalizedTest{
				Name:    name,
				Fixture: "a",
				Pre: map[common.Address]Account{
					{0x01}: {Balance: uint256.NewInt(1), Storage: map[common.Hash]common.Hash{{0x01}: {0x02}}},
					{0x02}: {Balance: uint256.NewInt(2)},
				},
			}
			if err := c.Add("group", "sub", test); err != nil {
				t.Fatalf("failed to build catalog: %v", err)
			}
		}
		c.Exclude("group", "sub", "a_d2_g0_v0")
		return c
	}

	first, second := t.TempDir(), t.TempDir()
	if err := Write(build(), first); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	if err := Write(build(), second); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	for _, name := range []string{"a_d0_g0_v0.json", "a_d1_g0_v0.json", excludedFileName} {
		a, err := os.ReadFile(filepath.Join(first, "group", "sub", name))
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		b, err := os.ReadFile(filepath.Join(second, "group", "sub", name))
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("file %s differs between identical rebuilds", name)
		}
	}
}

func TestSerialization_TestsAreStoredOnePerFile(t *testing.T) {
	dir := t.TempDir()

	c := New()
	for _, name := range []string{"a_d0_g0_v0", "a_d1_g0_v0"} {
		if err := c.Add("group", "sub", &NormalizedTest{Name: name, Fixture: "a"}); err != nil {
			t.Fatalf("failed to add test: %v", err)
		}
	}
	if err := Write(c, dir); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	for _, name := range []string{"a_d0_g0_v0", "a_d1_g0_v0"} {
		path := filepath.Join(dir, "group", "sub", name+testFileExt)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing test file %s: %v", path, err)
		}
	}
}
