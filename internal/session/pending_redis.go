package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"openid-provider/internal/openid"
)

// RedisPendingStore backs the pending slot with Redis. Take uses GETDEL so
// read-and-clear is a single atomic server-side operation even with two
// tabs racing on the same session.
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{client: client, ttl: ttl}
}

func pendingKey(sessionID string) string { return "pending:" + sessionID }

func (s *RedisPendingStore) Put(ctx context.Context, sessionID string, req *openid.Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal pending request: %w", err)
	}
	if err := s.client.Set(ctx, pendingKey(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending request: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Take(ctx context.Context, sessionID string) (*openid.Request, bool, error) {
	payload, err := s.client.GetDel(ctx, pendingKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("take pending request: %w", err)
	}
	return decodePending(payload)
}

func (s *RedisPendingStore) Peek(ctx context.Context, sessionID string) (*openid.Request, bool, error) {
	payload, err := s.client.Get(ctx, pendingKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("peek pending request: %w", err)
	}
	return decodePending(payload)
}

func decodePending(payload []byte) (*openid.Request, bool, error) {
	var req openid.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, false, fmt.Errorf("unmarshal pending request: %w", err)
	}
	return &req, true, nil
}
