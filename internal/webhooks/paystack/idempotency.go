package paystackwebhook

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const idempotencyScope = "paystack-webhook"

type referenceChecker interface {
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}

// IdempotencyGuard answers whether a payment reference already produced an
// order. Redis is a cache in front of the orders table; the table and its
// unique constraint decide.
type IdempotencyGuard struct {
	store  redis.IdempotencyStore
	orders referenceChecker
	ttl    time.Duration
	logg   *logger.Logger
}

// NewIdempotencyGuard wires the guard. store may be nil, which disables the fast path.
func NewIdempotencyGuard(store redis.IdempotencyStore, orders referenceChecker, ttl time.Duration, logg *logger.Logger) (*IdempotencyGuard, error) {
	if orders == nil {
		return nil, errors.New("orders repository is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &IdempotencyGuard{store: store, orders: orders, ttl: ttl, logg: logg}, nil
}

// Exists reports whether an order exists for reference. Redis failures are
// logged and fall through to the database; database errors are returned.
func (g *IdempotencyGuard) Exists(ctx context.Context, reference string) (bool, error) {
	if reference == "" {
		return false, errors.New("payment reference is required")
	}
	if g.store != nil {
		value, err := g.store.Get(ctx, g.key(reference))
		switch {
		case err == nil && value != "":
			return true, nil
		case err != nil && !redis.IsMiss(err):
			g.logg.Error(ctx, "webhook.idempotency_cache_read_failed", err)
		}
	}
	return g.orders.ExistsByReference(ctx, reference)
}

// MarkProcessed caches reference as handled. Failures only cost the fast path.
func (g *IdempotencyGuard) MarkProcessed(ctx context.Context, reference string) {
	if g.store == nil || reference == "" {
		return
	}
	if _, err := g.store.SetNX(ctx, g.key(reference), "1", g.ttl); err != nil {
		g.logg.Error(ctx, "webhook.idempotency_cache_write_failed", err)
	}
}

func (g *IdempotencyGuard) key(reference string) string {
	return g.store.IdempotencyKey(idempotencyScope, reference)
}
