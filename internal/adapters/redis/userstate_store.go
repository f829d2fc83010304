// Package redis provides Redis-backed adapters for the user state store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// DefaultKeyPrefix namespaces every key written by UserStateStore.
const DefaultKeyPrefix = "ujs"

// removeScript deletes a field and drops the service from the index once its
// hash is empty. KEYS[1] is the state hash, KEYS[2] the services set,
// ARGV[1] the field and ARGV[2] the service.
var removeScript = redis.NewScript(`
redis.call('HDEL', KEYS[1], ARGV[1])
if redis.call('HLEN', KEYS[1]) == 0 then
	redis.call('SREM', KEYS[2], ARGV[2])
end
return 1
`)

// UserStateStore keeps one hash of JSON values per (authed, user, service)
// and one set per (authed, user) indexing the services holding state.
// Both keys for a user share a hash tag so cluster transactions stay on one slot.
type UserStateStore struct {
	client redis.UniversalClient
	prefix string
}

var _ core.UserStateRepository = (*UserStateStore)(nil)

// NewUserStateStore creates a store using DefaultKeyPrefix.
func NewUserStateStore(client redis.UniversalClient) *UserStateStore {
	return NewUserStateStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewUserStateStoreWithPrefix creates a store with a custom key prefix.
func NewUserStateStoreWithPrefix(client redis.UniversalClient, prefix string) *UserStateStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &UserStateStore{client: client, prefix: prefix}
}

func authTag(authed bool) string {
	if authed {
		return "a"
	}
	return "u"
}

func (s *UserStateStore) userTag(user string, authed bool) string {
	return "{" + authTag(authed) + ":" + url.PathEscape(user) + "}"
}

func (s *UserStateStore) hashKey(user, service string, authed bool) string {
	return s.prefix + ":state:" + s.userTag(user, authed) + ":" + service
}

func (s *UserStateStore) servicesKey(user string, authed bool) string {
	return s.prefix + ":services:" + s.userTag(user, authed)
}

// Set stores value under key, indexing the service in the same transaction.
func (s *UserStateStore) Set(ctx context.Context, key model.StateKey, value []byte) error {
	hash := s.hashKey(key.User, key.Service, key.Authed)
	services := s.servicesKey(key.User, key.Authed)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key.Key, value)
		pipe.SAdd(ctx, services, key.Service)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

// Get returns the stored value and whether it exists.
func (s *UserStateStore) Get(ctx context.Context, key model.StateKey) ([]byte, bool, error) {
	b, err := s.client.HGet(ctx, s.hashKey(key.User, key.Service, key.Authed), key.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get state: %w", err)
	}
	return b, true, nil
}

// Has reports whether key holds a value.
func (s *UserStateStore) Has(ctx context.Context, key model.StateKey) (bool, error) {
	ok, err := s.client.HExists(ctx, s.hashKey(key.User, key.Service, key.Authed), key.Key).Result()
	if err != nil {
		return false, fmt.Errorf("redis has state: %w", err)
	}
	return ok, nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *UserStateStore) Remove(ctx context.Context, key model.StateKey) error {
	keys := []string{
		s.hashKey(key.User, key.Service, key.Authed),
		s.servicesKey(key.User, key.Authed),
	}
	if err := removeScript.Run(ctx, s.client, keys, key.Key, key.Service).Err(); err != nil {
		return fmt.Errorf("redis remove state: %w", err)
	}
	return nil
}

// ListKeys returns the sorted keys held for the scope.
func (s *UserStateStore) ListKeys(ctx context.Context, scope core.StateScope) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.hashKey(scope.User, scope.Service, scope.Authed)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list state keys: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

// ListServices returns the sorted services holding state for user.
func (s *UserStateStore) ListServices(ctx context.Context, user string, authed bool) ([]string, error) {
	services, err := s.client.SMembers(ctx, s.servicesKey(user, authed)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list state services: %w", err)
	}
	slices.Sort(services)
	return services, nil
}
