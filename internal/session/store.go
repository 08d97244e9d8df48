// Package session keeps login sessions in Redis. A record holds identity
// only (which account and holder a token belongs to), never balances or
// other account state, so every data read still goes to the backend.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Record identifies the authenticated account behind a session token.
type Record struct {
	AccountID     int64  `json:"accountId"`
	HolderID      int64  `json:"holderId"`
	AccountNumber string `json:"accountNumber"`
}

// Store reads and writes session records with a fixed TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Put stores a session record under id. Unlike a cache write, a failure
// here fails the login: a token without a session record is unusable.
func (s *Store) Put(ctx context.Context, id string, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", id, err)
	}
	return nil
}

// Get retrieves a session record. Returns (nil, false) on a miss or a
// record that no longer decodes.
func (s *Store) Get(ctx context.Context, id string) (*Record, bool) {
	data, err := s.client.Get(ctx, key(id)).Result()
	if err != nil {
		return nil, false
	}
	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		log.Printf("session store: undecodable record for %s: %v", id, err)
		return nil, false
	}
	return &record, true
}

// Revoke removes a session, ending it immediately.
func (s *Store) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session %s: %w", id, err)
	}
	return nil
}

func key(id string) string {
	return "session:" + id
}
