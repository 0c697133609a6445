package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// TenantLocker serializes sweeps per tenant. Acquire returns a release
// func on success and a SWEEP_IN_PROGRESS error when another sweep holds
// the tenant.
type TenantLocker interface {
	Acquire(ctx context.Context, tenantID string) (func(), error)
}

// releaseScript deletes the lease only if this holder still owns it, so
// a sweep that outlived its TTL cannot release a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

type redisTenantLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTenantLocker builds a locker backed by Redis leases, giving
// mutual exclusion across sweeper replicas.
func NewRedisTenantLocker(client *redis.Client, ttl time.Duration) TenantLocker {
	return &redisTenantLocker{client: client, ttl: ttl}
}

func (l *redisTenantLocker) Acquire(ctx context.Context, tenantID string) (func(), error) {
	key := "sla:sweep:lock:" + tenantID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	if !ok {
		return nil, apperrors.NewSweepBusy(tenantID)
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Result()
	}
	return release, nil
}

type memoryTenantLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryTenantLocker builds an in-process locker for single-node
// deployments and tests.
func NewMemoryTenantLocker() TenantLocker {
	return &memoryTenantLocker{held: map[string]struct{}{}}
}

func (l *memoryTenantLocker) Acquire(_ context.Context, tenantID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[tenantID]; taken {
		return nil, apperrors.NewSweepBusy(tenantID)
	}
	l.held[tenantID] = struct{}{}
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, tenantID)
	}
	return release, nil
}
