package monitor

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/doocho/usdc-whale-detector/internal/config"
	"github.com/doocho/usdc-whale-detector/internal/labels"
	"github.com/doocho/usdc-whale-detector/internal/model"
)

// Filter decides whether a transfer qualifies as a whale alert for one
// chain and enriches qualifying transfers with address labels.
type Filter struct {
	chain     config.Chain
	threshold *big.Int
	labels    *labels.Store
}

// NewFilter builds a filter. The USD threshold is converted once into
// base units using the chain's decimals; all comparisons happen on
// integers, never on floats.
func NewFilter(chain config.Chain, thresholdUSD uint64, store *labels.Store) *Filter {
	return &Filter{
		chain:     chain,
		threshold: chain.RawThreshold(thresholdUSD),
		labels:    store,
	}
}

// Threshold returns the alert threshold in base units.
func (f *Filter) Threshold() *big.Int {
	return new(big.Int).Set(f.threshold)
}

// Evaluate returns a WhaleAlert when the transfer amount meets the
// threshold, nil otherwise. An amount exactly equal to the threshold
// qualifies. Evaluate is total: it never fails.
func (f *Filter) Evaluate(ev model.TransferEvent) *model.WhaleAlert {
	if ev.Amount == nil || ev.Amount.Cmp(f.threshold) < 0 {
		return nil
	}

	alert := &model.WhaleAlert{
		Chain:       f.chain.Name,
		Token:       f.chain.Token,
		Amount:      decimal.NewFromBigInt(ev.Amount, -int32(f.chain.Decimals)),
		From:        ev.From,
		To:          ev.To,
		TxHash:      ev.TxHash,
		BlockNumber: ev.BlockNumber,
		ObservedAt:  time.Now().UTC(),
	}
	if label, ok := f.labels.Resolve(ev.From); ok {
		alert.FromLabel = label
	}
	if label, ok := f.labels.Resolve(ev.To); ok {
		alert.ToLabel = label
	}
	if f.chain.Explorer != "" {
		alert.ExplorerURL = f.chain.Explorer + ev.TxHash.Hex()
	}

	return alert
}
