package sink

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/doocho/usdc-whale-detector/internal/model"
)

func testAlert(i int) model.WhaleAlert {
	return model.WhaleAlert{
		Chain:       "Ethereum",
		Token:       "USDC",
		Amount:      decimal.NewFromBigInt(big.NewInt(100_000_000_000), -6),
		From:        common.HexToAddress("0x28C6c06298d514Db089934071355E5743bf21d60"),
		FromLabel:   "Binance Hot Wallet",
		To:          common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TxHash:      common.HexToHash(fmt.Sprintf("0x%064x", i)),
		BlockNumber: uint64(19000000 + i),
		ExplorerURL: fmt.Sprintf("https://etherscan.io/tx/0x%064x", i),
		ObservedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// syncBuffer guards the test buffer; Console serializes Emit, but the
// writer itself must still be safe for the final read.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEmitRendersWholeRecord(t *testing.T) {
	var buf syncBuffer
	console := NewConsole(&buf)

	if err := console.Emit(testAlert(1)); err != nil {
		t.Fatalf("emit: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[2024-05-01 12:00:00] [Ethereum] WHALE TRANSFER DETECTED",
		"Amount: $100,000.00 USDC",
		"(Binance Hot Wallet)",
		"(Unknown)",
		"Block:  19000001",
		"Link:   https://etherscan.io/tx/",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("record missing %q:\n%s", want, out)
		}
	}
}

func TestConcurrentEmitsDoNotInterleave(t *testing.T) {
	var buf syncBuffer
	console := NewConsole(&buf)

	const emitters = 8
	var wg sync.WaitGroup
	for i := 0; i < emitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := console.Emit(testAlert(i)); err != nil {
				t.Errorf("emit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	out := buf.String()
	if got := strings.Count(out, "WHALE TRANSFER DETECTED"); got != emitters {
		t.Fatalf("expected %d records, got %d", emitters, got)
	}

	// Every record must appear as one contiguous block.
	var record bytes.Buffer
	reference := NewConsole(&record)
	for i := 0; i < emitters; i++ {
		record.Reset()
		if err := reference.Emit(testAlert(i)); err != nil {
			t.Fatalf("render reference record: %v", err)
		}
		if !strings.Contains(out, record.String()) {
			t.Fatalf("record %d interleaved or corrupted", i)
		}
	}
}
