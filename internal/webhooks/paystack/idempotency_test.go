package paystackwebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyGuardFastPath(t *testing.T) {
	store := newMemoryStore()
	refs := &stubReferences{}
	guard, err := NewIdempotencyGuard(store, refs, time.Hour, nil)
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := guard.Exists(ctx, "REF1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, refs.calls)

	guard.MarkProcessed(ctx, "REF1")
	assert.Equal(t, "1", store.values["sf:idempotency:paystack-webhook:REF1"])
	assert.Equal(t, time.Hour, store.ttls["sf:idempotency:paystack-webhook:REF1"])

	exists, err = guard.Exists(ctx, "REF1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, refs.calls, "cached reference must not hit the database")
}

func TestIdempotencyGuardFallsBackWhenRedisFails(t *testing.T) {
	store := newMemoryStore()
	store.failGet = errRedisDown
	store.failSet = errRedisDown
	refs := &stubReferences{exists: true}
	guard, err := NewIdempotencyGuard(store, refs, time.Hour, nil)
	require.NoError(t, err)

	exists, err := guard.Exists(context.Background(), "REF2")
	require.NoError(t, err)
	assert.True(t, exists)

	guard.MarkProcessed(context.Background(), "REF2")
}

func TestIdempotencyGuardPropagatesDatabaseErrors(t *testing.T) {
	dbErr := errors.New("connection reset")
	guard, err := NewIdempotencyGuard(nil, &stubReferences{err: dbErr}, time.Hour, nil)
	require.NoError(t, err)

	_, err = guard.Exists(context.Background(), "REF3")
	require.ErrorIs(t, err, dbErr)

	_, err = guard.Exists(context.Background(), "")
	require.Error(t, err)
}

func TestNewIdempotencyGuardValidation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, nil, time.Hour, nil)
	require.Error(t, err)

	_, err = NewIdempotencyGuard(nil, &stubReferences{}, -time.Second, nil)
	require.Error(t, err)
}
