package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgInterval(t *testing.T) {
	assert.Equal(t, "30 seconds", PgInterval(30*time.Second))
	assert.Equal(t, "1800 seconds", PgInterval(30*time.Minute))
	assert.Equal(t, "0 seconds", PgInterval(500*time.Millisecond))
}

func TestNextBackoffWithJitterBounds(t *testing.T) {
	for attempts := -1; attempts <= 15; attempts++ {
		d := NextBackoffWithJitter(attempts)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond, "attempts=%d", attempts)
		assert.LessOrEqual(t, d, 30*time.Minute, "attempts=%d", attempts)
	}
}

func TestSleepCtxCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SleepCtx(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, SleepCtx(context.Background(), 0))
}
