package gateway

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceTracker maintains the online-user set announced to chat clients.
type PresenceTracker interface {
	Connect(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID string) error
	Online(ctx context.Context) ([]string, error)
}

// MemoryPresence is the in-process tracker used when Redis is not
// configured. Reference counted so multiple sockets for one user keep the
// user online until the last one drops.
type MemoryPresence struct {
	mu    sync.Mutex
	conns map[string]int
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{conns: make(map[string]int)}
}

func (p *MemoryPresence) Connect(_ context.Context, userID string) error {
	p.mu.Lock()
	p.conns[userID]++
	p.mu.Unlock()
	return nil
}

func (p *MemoryPresence) Disconnect(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[userID] <= 1 {
		delete(p.conns, userID)
		return nil
	}
	p.conns[userID]--
	return nil
}

func (p *MemoryPresence) Online(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		out = append(out, userID)
	}
	return out, nil
}

// Redis key layout for presence tracking.
const (
	presenceOnlineSet  = "presence:online"
	presenceKeyPrefix  = "presence:user:"
	defaultPresenceTTL = 5 * time.Minute
)

// RedisPresence tracks the online set in Redis so multiple gateway
// instances agree on who is connected.
type RedisPresence struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisPresence(client *goredis.Client, ttl time.Duration) *RedisPresence {
	if ttl == 0 {
		ttl = defaultPresenceTTL
	}
	return &RedisPresence{client: client, ttl: ttl}
}

func (p *RedisPresence) Connect(ctx context.Context, userID string) error {
	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, presenceOnlineSet, userID)
	pipe.Set(ctx, presenceKeyPrefix+userID, time.Now().UTC().Format(time.RFC3339), p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *RedisPresence) Disconnect(ctx context.Context, userID string) error {
	pipe := p.client.Pipeline()
	pipe.SRem(ctx, presenceOnlineSet, userID)
	pipe.Del(ctx, presenceKeyPrefix+userID)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *RedisPresence) Online(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, presenceOnlineSet).Result()
}
