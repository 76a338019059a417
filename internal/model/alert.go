package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// WhaleAlert is a transfer that met the alert threshold, enriched with
// address labels and a display amount.
type WhaleAlert struct {
	Chain       string
	Token       string
	Amount      decimal.Decimal // display units, already scaled by the chain's decimals
	From        common.Address
	FromLabel   string
	To          common.Address
	ToLabel     string
	TxHash      common.Hash
	BlockNumber uint64
	ExplorerURL string
	ObservedAt  time.Time
}

// FormattedAmount renders the amount with thousands separators and two
// decimal places, e.g. "$74,000.00 USDC".
func (a WhaleAlert) FormattedAmount() string {
	return fmt.Sprintf("$%s %s", groupThousands(a.Amount.StringFixed(2)), a.Token)
}

// FormattedFrom renders the sender address with its label, if known.
func (a WhaleAlert) FormattedFrom() string {
	return formatAddress(a.From, a.FromLabel)
}

// FormattedTo renders the recipient address with its label, if known.
func (a WhaleAlert) FormattedTo() string {
	return formatAddress(a.To, a.ToLabel)
}

// ShortTxHash renders the transaction hash as 0x12345678...deadbeef.
func (a WhaleAlert) ShortTxHash() string {
	return shorten(a.TxHash.Hex())
}

func formatAddress(addr common.Address, label string) string {
	short := shorten(addr.Hex())
	if label == "" {
		return fmt.Sprintf("%s (Unknown)", short)
	}
	return fmt.Sprintf("%s (%s)", short, label)
}

func shorten(hex string) string {
	if len(hex) <= 18 {
		return hex
	}
	return hex[:10] + "..." + hex[len(hex)-8:]
}

func groupThousands(fixed string) string {
	intPart := fixed
	fracPart := ""
	if dot := strings.IndexByte(fixed, '.'); dot >= 0 {
		intPart = fixed[:dot]
		fracPart = fixed[dot:]
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + b.String() + fracPart
}
