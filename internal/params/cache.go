package params

import (
	"context"
	"sync"

	redis "github.com/redis/go-redis/v9"
)

// MemoryCache is the default session-scoped cache. It lives exactly as long
// as the process, mirroring sessionStorage semantics.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]Parameters
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]Parameters)}
}

func (c *MemoryCache) Get(_ context.Context, sessionID string) (Parameters, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.m[sessionID]
	return p, ok
}

func (c *MemoryCache) Put(_ context.Context, sessionID string, p Parameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[sessionID] = p
}

// RedisCache stores parameters in a Redis hash per session so multiple
// gateway instances can serve the same interview link.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (Parameters, bool) {
	vals, err := c.client.HGetAll(ctx, c.prefix+sessionID).Result()
	if err != nil || len(vals) == 0 {
		return Parameters{}, false
	}
	return Parameters{
		CandidateID:    vals["candidate_id"],
		CandidateToken: vals["candidate_token"],
		RecruiterID:    vals["recruiter_id"],
		RecruiterToken: vals["recruiter_token"],
	}, true
}

func (c *RedisCache) Put(ctx context.Context, sessionID string, p Parameters) {
	// Cache write failures only cost a re-parse on the next resolve.
	c.client.HSet(ctx, c.prefix+sessionID,
		"candidate_id", p.CandidateID,
		"candidate_token", p.CandidateToken,
		"recruiter_id", p.RecruiterID,
		"recruiter_token", p.RecruiterToken,
	)
}
