package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"parley/internal/app/message"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/metrics"
)

const pingTimeout = 3 * time.Second

// errCodec marks local encode/decode failures on the durable path. The
// store itself answered, so these must never flip the backend selection.
var errCodec = errors.New("codec failure")

// Monitor tracks durable-store reachability and selects the active backend.
//
// The selection is a single atomic flag read once per operation: an
// operation runs to completion against whichever backend was current when
// it was invoked, and a flip never retries in-flight work. Recovery is
// detect-and-switch through the ping loop; previously buffered volatile
// messages are not replayed into the durable store.
type Monitor struct {
	durable  message.Store
	volatile message.Store

	// pool is nil when no durable store was configured at startup, which
	// pins the process to volatile mode.
	pool *pgxpool.Pool

	durableUp atomic.Bool
	interval  time.Duration
	logger    zerolog.Logger
}

// NewMonitor builds a Monitor over the two backends. A nil pool starts the
// monitor in permanent volatile mode; otherwise the durable backend is
// assumed reachable until a probe or a reported failure says otherwise.
func NewMonitor(pool *pgxpool.Pool, durable, volatile message.Store, interval time.Duration) *Monitor {
	m := &Monitor{
		durable:  durable,
		volatile: volatile,
		pool:     pool,
		interval: interval,
		logger:   logx.Logger().With().Str("component", "ConnectivityMonitor").Logger(),
	}

	up := pool != nil
	m.durableUp.Store(up)
	metrics.SetStoreMode(up)

	return m
}

// Run probes the durable store until ctx is cancelled. It is a no-op when
// no pool exists.
func (m *Monitor) Run(ctx context.Context) {
	if m.pool == nil {
		m.logger.Warn().Msg("No durable store configured; staying in volatile mode")
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe pings the pool and flips the selection when reachability changed.
func (m *Monitor) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := m.pool.Ping(pingCtx)
	cancel()

	m.setDurableUp(err == nil, err)
}

// Current returns the active backend for one operation.
func (m *Monitor) Current() message.Store {
	if m.durableUp.Load() {
		return m.durable
	}
	return m.volatile
}

// Mode reports the current selection for the liveness endpoint.
func (m *Monitor) Mode() string {
	return m.Current().Name()
}

// ReportFailure lets store callers fail over immediately when an operation
// hit a connectivity problem, instead of waiting for the next probe.
// Server-side errors (constraint violations and the like) do not flip the
// selection.
func (m *Monitor) ReportFailure(err error) {
	if m.pool == nil || !connectivityFailure(err) {
		return
	}
	m.setDurableUp(false, err)
}

// setDurableUp stores the new selection and logs transitions exactly once.
func (m *Monitor) setDurableUp(up bool, cause error) {
	if m.durableUp.Swap(up) == up {
		return
	}

	metrics.SetStoreMode(up)

	if up {
		m.logger.Info().Msg("Durable store reachable again; switching back from volatile mode")
	} else {
		m.logger.Warn().Err(cause).Msg("Durable store unreachable; falling back to volatile mode")
	}
}

// connectivityFailure classifies err: true for transport-level failures,
// false for nil, not-found, local codec failures, and Postgres server
// errors, which mean the store answered and must not trigger a fallback.
func connectivityFailure(err error) bool {
	if err == nil || errors.Is(err, message.ErrNotFound) || errors.Is(err, errCodec) {
		return false
	}

	var pgErr *pgconn.PgError
	return !errors.As(err, &pgErr)
}
