package feed

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/doocho/usdc-whale-detector/internal/config"
)

func TestUsesSubscription(t *testing.T) {
	cases := map[string]bool{
		"wss://mainnet.example.org/ws": true,
		"ws://localhost:8546":          true,
		"https://eth.llamarpc.com":     false,
		"http://localhost:8545":        false,
	}
	for rpcURL, want := range cases {
		if got := UsesSubscription(rpcURL); got != want {
			t.Fatalf("%s: %v != %v", rpcURL, got, want)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	f := New(config.Chain{Name: "Ethereum"}, time.Second, nil)
	seen := make(map[string]struct{})

	lg := types.Log{
		BlockNumber: 100,
		TxHash:      common.HexToHash("0x01"),
		Index:       3,
	}

	if f.isDuplicate(seen, lg) {
		t.Fatalf("first delivery flagged as duplicate")
	}
	if !f.isDuplicate(seen, lg) {
		t.Fatalf("second delivery not flagged as duplicate")
	}

	other := lg
	other.Index = 4
	if f.isDuplicate(seen, other) {
		t.Fatalf("distinct log flagged as duplicate")
	}
}

func TestDuplicateSetIsBounded(t *testing.T) {
	f := New(config.Chain{Name: "Ethereum"}, time.Second, nil)
	seen := make(map[string]struct{})

	for i := 0; i < 3*dedupLimit; i++ {
		lg := types.Log{BlockNumber: uint64(i), TxHash: common.HexToHash("0x01"), Index: 0}
		f.isDuplicate(seen, lg)
	}
	if len(seen) > dedupLimit {
		t.Fatalf("duplicate set grew past its bound: %d", len(seen))
	}
}
