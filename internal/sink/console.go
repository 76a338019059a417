package sink

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/doocho/usdc-whale-detector/internal/model"
)

// Console renders whale alerts as human-readable records. Emit is safe
// for concurrent use: each record is built in full and written under a
// single lock so alerts from different chains never interleave.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole builds a console sink writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Emit writes one alert record.
func (c *Console) Emit(alert model.WhaleAlert) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n[%s] [%s] WHALE TRANSFER DETECTED\n",
		alert.ObservedAt.Format("2006-01-02 15:04:05"), alert.Chain)
	fmt.Fprintf(&buf, "  Amount: %s\n", alert.FormattedAmount())
	fmt.Fprintf(&buf, "  From:   %s\n", alert.FormattedFrom())
	fmt.Fprintf(&buf, "  To:     %s\n", alert.FormattedTo())
	fmt.Fprintf(&buf, "  Tx:     %s\n", alert.ShortTxHash())
	fmt.Fprintf(&buf, "  Block:  %d\n", alert.BlockNumber)
	if alert.ExplorerURL != "" {
		fmt.Fprintf(&buf, "  Link:   %s\n", alert.ExplorerURL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	return nil
}
