package fixture

import (
	"encoding/json"
	"math"
	"testing"
)

func TestBigValue_ParsesUpstreamNotations(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"hex":            {`"0x1f4"`, "0x1f4"},
		"padded hex":     {`"0x00001f4"`, "0x1f4"},
		"empty hex":      {`"0x"`, "0x0"},
		"decimal":        {`"500"`, "0x1f4"},
		"zero":           {`"0"`, "0x0"},
		"bigint prefix":  {`"0x:bigint 0x20000000000000000"`, "0x20000000000000000"},
		"beyond 64 bits": {`"0x10000000000000000"`, "0x10000000000000000"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			value := new(BigValue)
			if err := json.Unmarshal([]byte(test.input), value); err != nil {
				t.Fatalf("failed to parse %s: %v", test.input, err)
			}
			if want, got := test.want, value.String(); want != got {
				t.Errorf("unexpected value, wanted %s, got %s", want, got)
			}
		})
	}
}

func TestBigValue_RejectsMalformedInput(t *testing.T) {
	inputs := []string{`"abc"`, `"0xzz"`, `""`, `12`, `"0x:bigint "`}
	for _, input := range inputs {
		if err := json.Unmarshal([]byte(input), new(BigValue)); err == nil {
			t.Errorf("expected parsing of %s to fail", input)
		}
	}
}

func TestBigValue_FitsUint32(t *testing.T) {
	tests := map[string]struct {
		value *BigValue
		want  bool
	}{
		"nil":           {nil, false},
		"zero":          {NewBigValue(0), true},
		"max uint32":    {NewBigValue(math.MaxUint32), true},
		"one past max":  {NewBigValue(math.MaxUint32 + 1), false},
		"40 bit value":  {NewBigValue(1 << 40), false},
		"max uint64":    {NewBigValue(math.MaxUint64), false},
		"typical 21000": {NewBigValue(21000), true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if want, got := test.want, test.value.FitsUint32(); want != got {
				t.Errorf("unexpected fit for %v, wanted %t, got %t", test.value, want, got)
			}
		})
	}
}

func TestBigValue_MarshalRoundTrip(t *testing.T) {
	original := NewBigValue(1 << 40)
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal value: %v", err)
	}
	restored := new(BigValue)
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("failed to restore value: %v", err)
	}
	if want, got := original.String(), restored.String(); want != got {
		t.Errorf("value changed in round trip, wanted %s, got %s", want, got)
	}
}
