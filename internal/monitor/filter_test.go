package monitor

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doocho/usdc-whale-detector/internal/config"
	"github.com/doocho/usdc-whale-detector/internal/labels"
	"github.com/doocho/usdc-whale-detector/internal/model"
)

func testChain() config.Chain {
	return config.Chain{
		Name:     "Ethereum",
		RPCURL:   "https://eth.llamarpc.com",
		Contract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Decimals: 6,
		Token:    "USDC",
		Explorer: "https://etherscan.io/tx/",
	}
}

func testEvent(amount *big.Int) model.TransferEvent {
	return model.TransferEvent{
		Chain:       "Ethereum",
		From:        common.HexToAddress("0x28C6c06298d514Db089934071355E5743bf21d60"),
		To:          common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Amount:      amount,
		TxHash:      common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"),
		BlockNumber: 19000000,
	}
}

func testLabels(t *testing.T) *labels.Store {
	t.Helper()
	store, err := labels.NewFromJSON([]byte(`{"0x28c6c06298d514db089934071355e5743bf21d60": "Binance Hot Wallet"}`))
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	return store
}

func TestEvaluateAtThreshold(t *testing.T) {
	filter := NewFilter(testChain(), 74_000, testLabels(t))

	alert := filter.Evaluate(testEvent(big.NewInt(74_000_000_000)))
	if alert == nil {
		t.Fatalf("amount equal to threshold must qualify")
	}

	if alert.FormattedAmount() != "$74,000.00 USDC" {
		t.Fatalf("amount format mismatch: %q", alert.FormattedAmount())
	}
	if alert.FromLabel != "Binance Hot Wallet" {
		t.Fatalf("from label mismatch: %q", alert.FromLabel)
	}
	if alert.ToLabel != "" {
		t.Fatalf("to label should be absent, got %q", alert.ToLabel)
	}
	if alert.Chain != "Ethereum" || alert.Token != "USDC" {
		t.Fatalf("alert identity mismatch: %+v", alert)
	}
	if alert.ExplorerURL != "https://etherscan.io/tx/"+alert.TxHash.Hex() {
		t.Fatalf("explorer url mismatch: %q", alert.ExplorerURL)
	}
}

func TestEvaluateBelowThreshold(t *testing.T) {
	filter := NewFilter(testChain(), 74_000, testLabels(t))

	if alert := filter.Evaluate(testEvent(big.NewInt(73_999_999_999))); alert != nil {
		t.Fatalf("amount below threshold must not qualify: %+v", alert)
	}
}

func TestEvaluateAboveThreshold(t *testing.T) {
	filter := NewFilter(testChain(), 74_000, testLabels(t))

	amount, ok := new(big.Int).SetString("2000000000000", 10) // $2M
	if !ok {
		t.Fatalf("parse amount")
	}
	alert := filter.Evaluate(testEvent(amount))
	if alert == nil {
		t.Fatalf("amount above threshold must qualify")
	}
	if alert.FormattedAmount() != "$2,000,000.00 USDC" {
		t.Fatalf("amount format mismatch: %q", alert.FormattedAmount())
	}
}

func TestEvaluateNilAmount(t *testing.T) {
	filter := NewFilter(testChain(), 74_000, testLabels(t))

	if alert := filter.Evaluate(testEvent(nil)); alert != nil {
		t.Fatalf("nil amount must not qualify")
	}
}

func TestRawThresholdUsesIntegerScaling(t *testing.T) {
	filter := NewFilter(testChain(), 74_000, testLabels(t))

	want := big.NewInt(74_000_000_000)
	if filter.Threshold().Cmp(want) != 0 {
		t.Fatalf("threshold mismatch: %s != %s", filter.Threshold(), want)
	}
}
