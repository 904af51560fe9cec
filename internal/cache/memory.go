package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is the in-process backend: an expirable LRU holding at most maxSize
// entries for at most ttl each.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemory(maxSize int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, []byte](maxSize, nil, ttl)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) {
	m.lru.Add(key, value)
}

func (m *Memory) Clear(ctx context.Context) error {
	m.lru.Purge()
	return nil
}

// Len reports the current entry count.
func (m *Memory) Len() int {
	return m.lru.Len()
}
