package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/homenav/internal/domain"
)

// Store mirrors the catalog into Redis so other tools (dashboards, scripts)
// can read it without touching the catalog file. The file store stays
// authoritative; entries carry no TTL.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Publish replaces the mirrored catalog and discovery status in one
// MULTI/EXEC transaction.
func (s *Store) Publish(ctx context.Context, entries []domain.ServiceEntry, status domain.DiscoveryStatus) error {
	previous, err := s.client.SMembers(ctx, KeyAllServices).Result()
	if err != nil {
		return fmt.Errorf("failed to list mirrored ids: %w", err)
	}

	statusData, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery status: %w", err)
	}

	current := make(map[string]bool, len(entries))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal service %s: %w", e.ID, err)
			}
			current[e.ID] = true
			pipe.Set(ctx, ServiceKey(e.ID), data, 0)
			pipe.SAdd(ctx, KeyAllServices, e.ID)
		}
		for _, id := range previous {
			if !current[id] {
				pipe.Del(ctx, ServiceKey(id))
				pipe.SRem(ctx, KeyAllServices, id)
			}
		}
		pipe.Set(ctx, KeyDiscoveryStatus, statusData, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish catalog: %w", err)
	}
	return nil
}

// GetService returns one mirrored entry.
func (s *Store) GetService(ctx context.Context, id string) (domain.ServiceEntry, error) {
	data, err := s.client.Get(ctx, ServiceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ServiceEntry{}, fmt.Errorf("service not found in mirror: %s", id)
		}
		return domain.ServiceEntry{}, fmt.Errorf("failed to get service: %w", err)
	}

	var e domain.ServiceEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return domain.ServiceEntry{}, fmt.Errorf("failed to unmarshal service %s: %w", id, err)
	}
	return e, nil
}

// GetAllServices returns every mirrored entry. Ids whose payload vanished or
// does not decode are skipped.
func (s *Store) GetAllServices(ctx context.Context) ([]domain.ServiceEntry, error) {
	ids, err := s.client.SMembers(ctx, KeyAllServices).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get service ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.ServiceEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ServiceKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}

	entries := make([]domain.ServiceEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e domain.ServiceEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetDiscoveryStatus returns the mirrored discovery summary, if any.
func (s *Store) GetDiscoveryStatus(ctx context.Context) (domain.DiscoveryStatus, bool, error) {
	data, err := s.client.Get(ctx, KeyDiscoveryStatus).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DiscoveryStatus{}, false, nil
	}
	if err != nil {
		return domain.DiscoveryStatus{}, false, fmt.Errorf("failed to get discovery status: %w", err)
	}

	var status domain.DiscoveryStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.DiscoveryStatus{}, false, fmt.Errorf("failed to unmarshal discovery status: %w", err)
	}
	return status, true, nil
}

// Ping reports whether the mirror is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
