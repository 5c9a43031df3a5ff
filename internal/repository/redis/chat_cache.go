package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/spaolacci/murmur3"

	"portfolio-api/internal/client"
	"portfolio-api/internal/models"
	"portfolio-api/internal/util"
)

const chatCachePrefix = "chat_cache:"

// ChatCache stores LLM responses keyed by a hash of the sanitized
// conversation, so identical widget questions skip the provider round trip.
// It caches content only; no security state ever lands in Redis.
type ChatCache struct {
	client *client.RedisClient
	ttl    time.Duration
}

func NewChatCache(client *client.RedisClient, ttl time.Duration) *ChatCache {
	return &ChatCache{client: client, ttl: ttl}
}

// Key derives a stable cache key from the conversation. murmur3 keeps the
// keys short and uniform without cryptographic cost.
func (c *ChatCache) Key(messages []models.ChatMessage) string {
	h := murmur3.New128()
	for _, m := range messages {
		_, _ = h.Write([]byte(m.Role))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(m.Content))
		_, _ = h.Write([]byte{0})
	}
	h1, h2 := h.Sum128()
	return fmt.Sprintf("%s%016x%016x", chatCachePrefix, h1, h2)
}

// Get returns the cached response for the conversation, if present.
func (c *ChatCache) Get(ctx context.Context, messages []models.ChatMessage) (string, bool) {
	val, err := c.client.Get(ctx, c.Key(messages))
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a validated response with the configured TTL. Failures are
// logged and swallowed: the cache is an optimization, not a dependency.
func (c *ChatCache) Set(ctx context.Context, messages []models.ChatMessage, response string) {
	if err := c.client.Set(ctx, c.Key(messages), response, c.ttl); err != nil {
		util.Warn("Failed to cache chat response", util.ErrorField(err))
	}
}
