// Package redis persists service registrations so a restarted agent
// keeps answering for its services. The in-memory registry stays
// authoritative; everything here is write-through and best effort.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slpwire/slpd/internal/slp"
)

// Store handles Redis operations for service registrations.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// SaveEntry stores one registration. The Redis TTL tracks the entry's
// lifetime so stale registrations disappear on their own.
func (s *Store) SaveEntry(ctx context.Context, entry slp.ServiceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	ttl := time.Duration(entry.Lifetime) * time.Second
	if err := s.client.Set(ctx, EntryKey(entry.URL), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	if err := s.client.SAdd(ctx, AllEntriesKey(), entry.URL).Err(); err != nil {
		return fmt.Errorf("failed to add entry to set: %w", err)
	}
	return nil
}

// GetEntry retrieves one registration by service URL.
func (s *Store) GetEntry(ctx context.Context, url string) (slp.ServiceEntry, error) {
	data, err := s.client.Get(ctx, EntryKey(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return slp.ServiceEntry{}, fmt.Errorf("entry not found: %s", url)
		}
		return slp.ServiceEntry{}, fmt.Errorf("failed to get entry: %w", err)
	}

	var entry slp.ServiceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return slp.ServiceEntry{}, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return entry, nil
}

// GetAllEntries retrieves every persisted registration. URLs whose
// entry key has already expired are skipped and swept from the set.
func (s *Store) GetAllEntries(ctx context.Context) ([]slp.ServiceEntry, error) {
	urls, err := s.client.SMembers(ctx, AllEntriesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry URLs: %w", err)
	}

	entries := make([]slp.ServiceEntry, 0, len(urls))
	for _, url := range urls {
		entry, err := s.GetEntry(ctx, url)
		if err != nil {
			// TTL beat us to it; drop the dangling set member.
			_ = s.client.SRem(ctx, AllEntriesKey(), url).Err()
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteEntry removes one registration.
func (s *Store) DeleteEntry(ctx context.Context, url string) error {
	if err := s.client.Del(ctx, EntryKey(url)).Err(); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if err := s.client.SRem(ctx, AllEntriesKey(), url).Err(); err != nil {
		return fmt.Errorf("failed to remove entry from set: %w", err)
	}
	return nil
}

// SaveEntriesMany stores multiple registrations in one pipeline.
func (s *Store) SaveEntriesMany(ctx context.Context, entries []slp.ServiceEntry) error {
	pipe := s.client.Pipeline()
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %s: %w", entry.URL, err)
		}
		ttl := time.Duration(entry.Lifetime) * time.Second
		pipe.Set(ctx, EntryKey(entry.URL), data, ttl)
		pipe.SAdd(ctx, AllEntriesKey(), entry.URL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save entries: %w", err)
	}
	return nil
}
