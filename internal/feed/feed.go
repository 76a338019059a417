package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/doocho/usdc-whale-detector/internal/chain"
	"github.com/doocho/usdc-whale-detector/internal/config"
	"github.com/doocho/usdc-whale-detector/internal/decode"
	"github.com/doocho/usdc-whale-detector/internal/model"
)

// dedupLimit bounds the in-memory duplicate set for one connection.
const dedupLimit = 4096

// ChainFeed streams Transfer logs for one chain. Each Run call owns
// exactly one network connection; it never retries internally. On
// transport failure it returns a *model.ConnectionError and the
// supervisor decides when to call Run again.
type ChainFeed struct {
	cfg    config.Chain
	poll   time.Duration
	logger *zap.Logger
}

// New builds a feed for one chain.
func New(cfg config.Chain, poll time.Duration, logger *zap.Logger) *ChainFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainFeed{cfg: cfg, poll: poll, logger: logger}
}

// Name returns the chain name.
func (f *ChainFeed) Name() string {
	return f.cfg.Name
}

// Run connects and forwards Transfer logs to out, in stream order,
// until the context is cancelled or the transport fails. Reorg-removed
// logs are skipped.
func (f *ChainFeed) Run(ctx context.Context, out chan<- types.Log) error {
	client, err := chain.NewClient(ctx, f.cfg.RPCURL)
	if err != nil {
		return &model.ConnectionError{Chain: f.cfg.Name, Err: fmt.Errorf("dial %s: %w", f.cfg.RPCURL, err)}
	}
	defer client.Close()

	if UsesSubscription(f.cfg.RPCURL) {
		return f.runSubscribe(ctx, client, out)
	}
	return f.runPoll(ctx, client, out)
}

// UsesSubscription reports whether the endpoint supports live log
// subscriptions. HTTP endpoints fall back to polling.
func UsesSubscription(rpcURL string) bool {
	return strings.HasPrefix(rpcURL, "ws://") || strings.HasPrefix(rpcURL, "wss://")
}

func (f *ChainFeed) runSubscribe(ctx context.Context, client *chain.Client, out chan<- types.Log) error {
	logs := make(chan types.Log, 128)
	sub, err := client.SubscribeLogs(ctx, f.cfg.Address(), decode.TransferTopic(), logs)
	if err != nil {
		return &model.ConnectionError{Chain: f.cfg.Name, Err: fmt.Errorf("subscribe: %w", err)}
	}
	defer sub.Unsubscribe()

	f.logger.Info("subscribed to transfer logs", zap.String("chain", f.cfg.Name))

	seen := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return &model.ConnectionError{Chain: f.cfg.Name, Err: fmt.Errorf("subscription: %w", err)}
		case lg := <-logs:
			if lg.Removed || f.isDuplicate(seen, lg) {
				continue
			}
			select {
			case out <- lg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (f *ChainFeed) runPoll(ctx context.Context, client *chain.Client, out chan<- types.Log) error {
	last, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return &model.ConnectionError{Chain: f.cfg.Name, Err: fmt.Errorf("latest block: %w", err)}
	}

	f.logger.Info("polling for transfer logs",
		zap.String("chain", f.cfg.Name),
		zap.Uint64("from_block", last),
		zap.Duration("interval", f.poll),
	)

	seen := make(map[string]struct{})
	timer := time.NewTimer(f.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		latest, err := client.LatestBlockNumber(ctx)
		if err != nil {
			return &model.ConnectionError{Chain: f.cfg.Name, Err: fmt.Errorf("latest block: %w", err)}
		}

		if latest > last {
			logs, err := client.FilterLogs(ctx, last+1, latest, f.cfg.Address(), decode.TransferTopic())
			if err != nil {
				return &model.ConnectionError{Chain: f.cfg.Name, Err: fmt.Errorf("filter logs %d-%d: %w", last+1, latest, err)}
			}
			for _, lg := range logs {
				if lg.Removed || f.isDuplicate(seen, lg) {
					continue
				}
				select {
				case out <- lg:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			last = latest
		}

		timer.Reset(f.poll)
	}
}

func (f *ChainFeed) isDuplicate(seen map[string]struct{}, lg types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", lg.BlockNumber, lg.TxHash.Hex(), lg.Index)
	if _, ok := seen[id]; ok {
		return true
	}
	if len(seen) >= dedupLimit {
		clear(seen)
	}
	seen[id] = struct{}{}
	return false
}
