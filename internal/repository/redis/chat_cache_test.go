package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"portfolio-api/internal/models"
)

func TestKeyIsDeterministic(t *testing.T) {
	cache := NewChatCache(nil, time.Minute)

	conversation := []models.ChatMessage{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "What are your skills?"},
	}
	assert.Equal(t, cache.Key(conversation), cache.Key(conversation))
}

func TestKeyDependsOnRoleAndContent(t *testing.T) {
	cache := NewChatCache(nil, time.Minute)

	base := []models.ChatMessage{{Role: "user", Content: "hello"}}
	otherRole := []models.ChatMessage{{Role: "assistant", Content: "hello"}}
	otherText := []models.ChatMessage{{Role: "user", Content: "hello!"}}

	assert.NotEqual(t, cache.Key(base), cache.Key(otherRole))
	assert.NotEqual(t, cache.Key(base), cache.Key(otherText))
}

func TestKeyBoundariesDoNotCollide(t *testing.T) {
	cache := NewChatCache(nil, time.Minute)

	// Splitting the same bytes across turns must hash differently.
	a := []models.ChatMessage{{Role: "user", Content: "ab"}, {Role: "user", Content: "c"}}
	b := []models.ChatMessage{{Role: "user", Content: "a"}, {Role: "user", Content: "bc"}}
	assert.NotEqual(t, cache.Key(a), cache.Key(b))
}

func TestKeyPrefix(t *testing.T) {
	cache := NewChatCache(nil, time.Minute)
	key := cache.Key([]models.ChatMessage{{Role: "user", Content: "hi"}})
	assert.True(t, strings.HasPrefix(key, "chat_cache:"))
	assert.Len(t, key, len("chat_cache:")+32)
}
