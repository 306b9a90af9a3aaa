package tracking

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateGate suppresses repeated auto-replies to the same address within a
// cool-down window. It is an independent condition from the per-record
// replied flag: both must admit before a reply is enqueued.
type RateGate interface {
	// Allow reports whether a reply to addr may be sent now, and if so
	// consumes the slot for the cool-down window.
	Allow(ctx context.Context, addr string) bool
}

// RedisGate implements the gate with a single atomic SET NX EX, so
// concurrent pixel hits across processes still admit at most one reply per
// window.
type RedisGate struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewRedisGate creates a redis-backed rate gate.
func NewRedisGate(client *redis.Client, cooldown time.Duration) *RedisGate {
	return &RedisGate{client: client, cooldown: cooldown}
}

func (g *RedisGate) Allow(ctx context.Context, addr string) bool {
	key := "autoreply:cooldown:" + strings.ToLower(addr)
	ok, err := g.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.cooldown).Result()
	if err != nil {
		// Fail closed: a broken gate must not turn into a reply storm.
		log.Printf("[RateGate] redis error, denying reply to %s: %v", addr, err)
		return false
	}
	return ok
}

// MemoryGate is the in-process fallback used when no redis address is
// configured.
type MemoryGate struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewMemoryGate creates an in-memory rate gate.
func NewMemoryGate(cooldown time.Duration) *MemoryGate {
	return &MemoryGate{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (g *MemoryGate) Allow(_ context.Context, addr string) bool {
	addr = strings.ToLower(addr)
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if last, ok := g.last[addr]; ok && now.Sub(last) < g.cooldown {
		return false
	}
	g.last[addr] = now
	return true
}
