package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/doocho/usdc-whale-detector/internal/decode"
	"github.com/doocho/usdc-whale-detector/internal/metrics"
	"github.com/doocho/usdc-whale-detector/internal/model"
)

// State is the lifecycle state of one chain's feed.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Feed is one chain's log stream. Run owns a single connection and
// terminates with an error on transport failure; restarting is the
// supervisor's job.
type Feed interface {
	Name() string
	Run(ctx context.Context, out chan<- types.Log) error
}

// Sink receives qualifying alerts from all chains.
type Sink interface {
	Emit(alert model.WhaleAlert) error
}

// Pipeline bundles one chain's feed with its decoder and filter.
type Pipeline struct {
	Feed    Feed
	Decoder *decode.Decoder
	Filter  *Filter
}

// Supervisor drives one goroutine per chain through the state machine
// idle -> connecting -> streaming -> failed -> connecting -> ... ->
// stopped, with capped-exponential backoff between retries. Failures
// are isolated per chain; alerts from all chains fan in to a single
// sink goroutine.
type Supervisor struct {
	pipelines []Pipeline
	sink      Sink
	backoff   Backoff
	logger    *zap.Logger
	metrics   *metrics.Set

	mu     sync.RWMutex
	states map[string]State

	alerts chan model.WhaleAlert
}

// NewSupervisor builds a supervisor. Every chain starts idle.
func NewSupervisor(pipelines []Pipeline, sink Sink, backoff Backoff, logger *zap.Logger, m *metrics.Set) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}

	states := make(map[string]State, len(pipelines))
	for _, p := range pipelines {
		states[p.Feed.Name()] = StateIdle
	}

	return &Supervisor{
		pipelines: pipelines,
		sink:      sink,
		backoff:   backoff,
		logger:    logger,
		metrics:   m,
		states:    states,
		alerts:    make(chan model.WhaleAlert, 64),
	}
}

// State returns the current state of one chain.
func (s *Supervisor) State(chain string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[chain]
}

// States returns a snapshot of all chain states.
func (s *Supervisor) States() map[string]State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]State, len(s.states))
	for chain, state := range s.states {
		snapshot[chain] = state
	}
	return snapshot
}

func (s *Supervisor) setState(chain string, state State) {
	s.mu.Lock()
	s.states[chain] = state
	s.mu.Unlock()
	s.metrics.SetFeedState(chain, state.String())
}

// Run starts every chain and blocks until the context is cancelled and
// all chains have reached the stopped state. It always returns nil:
// feed failures are retried indefinitely, never surfaced as a process
// error.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, p := range s.pipelines {
		wg.Add(1)
		go func(p Pipeline) {
			defer wg.Done()
			s.supervise(ctx, p)
		}(p)
	}

	sinkDone := make(chan struct{})
	go func() {
		defer close(sinkDone)
		for alert := range s.alerts {
			if err := s.sink.Emit(alert); err != nil {
				s.logger.Error("emit alert", zap.String("chain", alert.Chain), zap.Error(err))
			}
		}
	}()

	wg.Wait()
	close(s.alerts)
	<-sinkDone

	return nil
}

// supervise runs one chain's retry loop until shutdown.
func (s *Supervisor) supervise(ctx context.Context, p Pipeline) {
	chain := p.Feed.Name()
	defer s.setState(chain, StateStopped)

	var delay time.Duration
	for {
		if ctx.Err() != nil {
			return
		}

		s.setState(chain, StateConnecting)
		streamed, err := s.runOnce(ctx, p)
		if ctx.Err() != nil {
			s.logger.Info("feed stopped", zap.String("chain", chain))
			return
		}

		s.setState(chain, StateFailed)
		s.metrics.IncReconnect(chain)
		if streamed {
			delay = s.backoff.Next(0)
		} else {
			delay = s.backoff.Next(delay)
		}
		s.logger.Warn("feed failed, reconnecting",
			zap.String("chain", chain),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		if err := sleepCtx(ctx, delay); err != nil {
			return
		}
	}
}

// runOnce drives a single feed connection: decode each raw log, drop
// undecodable records with a diagnostic, and forward qualifying alerts
// to the fan-in channel. It reports whether the feed reached the
// streaming state before failing.
func (s *Supervisor) runOnce(ctx context.Context, p Pipeline) (bool, error) {
	chain := p.Feed.Name()
	raw := make(chan types.Log, 128)
	errc := make(chan error, 1)

	go func() {
		errc <- p.Feed.Run(ctx, raw)
	}()

	streamed := false
	for {
		select {
		case <-ctx.Done():
			return streamed, ctx.Err()
		case lg := <-raw:
			if !streamed {
				streamed = true
				s.setState(chain, StateStreaming)
			}
			if err := s.process(ctx, p, lg); err != nil {
				return streamed, err
			}
		case err := <-errc:
			// Drain logs the feed delivered before failing.
			for {
				select {
				case lg := <-raw:
					if !streamed {
						streamed = true
						s.setState(chain, StateStreaming)
					}
					if perr := s.process(ctx, p, lg); perr != nil {
						return streamed, perr
					}
				default:
					if err == nil {
						err = &model.ConnectionError{Chain: chain, Err: fmt.Errorf("stream ended unexpectedly")}
					}
					return streamed, err
				}
			}
		}
	}
}

func (s *Supervisor) process(ctx context.Context, p Pipeline, lg types.Log) error {
	chain := p.Feed.Name()

	ev, err := p.Decoder.Decode(lg)
	if err != nil {
		s.metrics.IncDecodeFailure(chain)
		s.logger.Warn("dropping undecodable log",
			zap.String("chain", chain),
			zap.String("tx", lg.TxHash.Hex()),
			zap.Uint("log_index", lg.Index),
			zap.Error(err),
		)
		return nil
	}

	alert := p.Filter.Evaluate(ev)
	if alert == nil {
		return nil
	}

	select {
	case s.alerts <- *alert:
		s.metrics.IncAlert(chain)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
