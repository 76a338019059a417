package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// feedStates mirrors the supervisor state machine; the gauge is one-hot
// per chain so dashboards can show the current state by name.
var feedStates = []string{"idle", "connecting", "streaming", "failed", "stopped"}

// Set holds the monitor's Prometheus instruments. A nil *Set is valid
// and turns every method into a no-op.
type Set struct {
	AlertsTotal         *prometheus.CounterVec
	ReconnectsTotal     *prometheus.CounterVec
	DecodeFailuresTotal *prometheus.CounterVec
	FeedState           *prometheus.GaugeVec
}

// NewSet registers the monitor instruments on reg.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whale_detector_alerts_total",
			Help: "Total number of whale alerts emitted per chain",
		}, []string{"chain"}),
		ReconnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whale_detector_reconnects_total",
			Help: "Total number of feed reconnect attempts per chain",
		}, []string{"chain"}),
		DecodeFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whale_detector_decode_failures_total",
			Help: "Total number of dropped undecodable logs per chain",
		}, []string{"chain"}),
		FeedState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "whale_detector_feed_state",
			Help: "Current feed state per chain (1 for the active state, 0 otherwise)",
		}, []string{"chain", "state"}),
	}
	reg.MustRegister(s.AlertsTotal, s.ReconnectsTotal, s.DecodeFailuresTotal, s.FeedState)
	return s
}

// IncAlert counts an emitted alert.
func (s *Set) IncAlert(chain string) {
	if s == nil {
		return
	}
	s.AlertsTotal.WithLabelValues(chain).Inc()
}

// IncReconnect counts a feed failure that will be retried.
func (s *Set) IncReconnect(chain string) {
	if s == nil {
		return
	}
	s.ReconnectsTotal.WithLabelValues(chain).Inc()
}

// IncDecodeFailure counts a dropped undecodable log.
func (s *Set) IncDecodeFailure(chain string) {
	if s == nil {
		return
	}
	s.DecodeFailuresTotal.WithLabelValues(chain).Inc()
}

// SetFeedState marks the chain's current state.
func (s *Set) SetFeedState(chain, state string) {
	if s == nil {
		return
	}
	for _, known := range feedStates {
		value := 0.0
		if known == state {
			value = 1.0
		}
		s.FeedState.WithLabelValues(chain, known).Set(value)
	}
}

// Serve exposes /metrics on addr until the context is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
