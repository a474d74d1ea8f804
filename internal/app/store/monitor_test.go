package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/app/message"
)

func TestMonitorWithoutPoolStaysVolatile(t *testing.T) {
	volatile := NewVolatile()
	m := NewMonitor(nil, nil, volatile, time.Second)

	assert.Same(t, message.Store(volatile), m.Current())
	assert.Equal(t, BackendVolatile, m.Mode())

	// Failure reports cannot flip anything without a configured pool.
	m.ReportFailure(errors.New("dial tcp: connection refused"))
	assert.Equal(t, BackendVolatile, m.Mode())
}

func TestConnectivityFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"not found is not connectivity", message.ErrNotFound, false},
		{"wrapped not found", fmt.Errorf("update: %w", message.ErrNotFound), false},
		{"postgres server error answered the query", &pgconn.PgError{Code: "23505"}, false},
		{"wrapped postgres error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22P02"}), false},
		{"local codec failure", fmt.Errorf("marshal reactions: %w: %w", errCodec, errors.New("json: unsupported type")), false},
		{"transport failure", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"wrapped transport failure", fmt.Errorf("query: %w", errors.New("broken pipe")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connectivityFailure(tt.err))
		})
	}
}

func TestDurableCodecErrorsAreNotConnectivityFailures(t *testing.T) {
	// A corrupt jsonb payload fails decoding locally; the database
	// answered, so the selection must not flip to volatile.
	_, err := unmarshalReactions([]byte("{not json"))
	require.Error(t, err)
	assert.False(t, connectivityFailure(err))
}
