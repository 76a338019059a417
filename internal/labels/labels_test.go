package labels

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewFromJSON(t *testing.T) {
	store, err := NewFromJSON([]byte(`{
		"0x28C6c06298d514Db089934071355E5743bf21d60": "Binance",
		"0x71660c4005BA85c37ccec55d0C4493E66Fe775d3": "Coinbase",
		"not-an-address": "Ignored"
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if store.Len() != 2 {
		t.Fatalf("expected 2 labels, got %d", store.Len())
	}

	label, ok := store.Resolve(common.HexToAddress("0x28C6c06298d514Db089934071355E5743bf21d60"))
	if !ok || label != "Binance" {
		t.Fatalf("resolve mismatch: %q %v", label, ok)
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	store, err := NewFromJSON([]byte(`{"0x28C6c06298d514Db089934071355E5743bf21d60": "Binance"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	upper, okUpper := store.Resolve(common.HexToAddress("0x28C6C06298D514DB089934071355E5743BF21D60"))
	lower, okLower := store.Resolve(common.HexToAddress("0x28c6c06298d514db089934071355e5743bf21d60"))
	if !okUpper || !okLower || upper != lower {
		t.Fatalf("case sensitivity: %q/%v vs %q/%v", upper, okUpper, lower, okLower)
	}
}

func TestResolveUnknownAddress(t *testing.T) {
	store, err := NewFromJSON([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if label, ok := store.Resolve(common.HexToAddress("0x1111111111111111111111111111111111111111")); ok || label != "" {
		t.Fatalf("expected no label, got %q", label)
	}
}

func TestLoadWithDefaultsFallsBackToEmbedded(t *testing.T) {
	store := LoadWithDefaults("testdata/does-not-exist.json", nil)
	if store.Len() == 0 {
		t.Fatalf("embedded defaults should not be empty")
	}

	label, ok := store.Resolve(common.HexToAddress("0x28C6c06298d514Db089934071355E5743bf21d60"))
	if !ok || label != "Binance Hot Wallet" {
		t.Fatalf("embedded label mismatch: %q %v", label, ok)
	}
}
