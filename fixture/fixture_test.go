package fixture

import (
	"testing"
)

func TestParseFile_EnumeratesFixturesInNameOrder(t *testing.T) {
	data := []byte(`{
		"bTest_d0g0v0_Cancun": {"network": "Cancun"},
		"aTest_d0g0v0_Cancun": {"network": "Cancun"},
		"cTest_d0g0v0_Cancun": {"network": "Cancun"}
	}`)

	fixtures, err := ParseFile(data)
	if err != nil {
		t.Fatalf("failed to parse fixture file: %v", err)
	}
	if want, got := 3, len(fixtures); want != got {
		t.Fatalf("unexpected number of fixtures, wanted %d, got %d", want, got)
	}
	names := []string{"aTest_d0g0v0_Cancun", "bTest_d0g0v0_Cancun", "cTest_d0g0v0_Cancun"}
	for i, name := range names {
		if want, got := name, fixtures[i].Name; want != got {
			t.Errorf("unexpected fixture at position %d, wanted %s, got %s", i, want, got)
		}
	}
}

func TestParseFile_DecodesFixtureBody(t *testing.T) {
	data := []byte(`{
		"test_d0g0v0_Cancun": {
			"network": "Cancun",
			"pre": {
				"0x00000000000000000000000000000000000000f1": {
					"balance": "0x0de0b6b3a7640000",
					"nonce": "0x00",
					"code": "0x6001",
					"storage": {"0x00": "0x01"}
				}
			},
			"postState": [
				{"indexes": {"data": 0, "gas": 0, "value": 0}, "txbytes": "0x01"}
			]
		}
	}`)

	fixtures, err := ParseFile(data)
	if err != nil {
		t.Fatalf("failed to parse fixture file: %v", err)
	}
	fixture := fixtures[0]
	if want, got := "Cancun", fixture.Network; want != got {
		t.Errorf("unexpected network, wanted %s, got %s", want, got)
	}
	if want, got := 1, len(fixture.Pre); want != got {
		t.Fatalf("unexpected number of pre-state accounts, wanted %d, got %d", want, got)
	}
	for _, account := range fixture.Pre {
		if want, got := "0xde0b6b3a7640000", account.Balance.String(); want != got {
			t.Errorf("unexpected balance, wanted %s, got %s", want, got)
		}
		if want, got := 1, len(account.Storage); want != got {
			t.Errorf("unexpected storage size, wanted %d, got %d", want, got)
		}
	}
	if want, got := 1, len(fixture.Post); want != got {
		t.Fatalf("unexpected number of post entries, wanted %d, got %d", want, got)
	}
	if want, got := 1, len(fixture.Post[0].TxBytes); want != got {
		t.Errorf("unexpected txbytes length, wanted %d, got %d", want, got)
	}
}

func TestParseFile_RejectsMalformedDocuments(t *testing.T) {
	inputs := map[string]string{
		"not json":       `{`,
		"not a map":      `[1,2,3]`,
		"malformed body": `{"test": {"blocks": 7}}`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFile([]byte(input)); err == nil {
				t.Errorf("expected parsing to fail")
			}
		})
	}
}
