package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "companion"

// RedisStore keeps each append-only collection in a Redis list (RPUSH keeps
// insertion order) and the profile in a plain string key. Values are JSON.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisStore creates a Store on top of any go-redis client.
func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(userID, collection string) string {
	return fmt.Sprintf("%s:user:%s:%s", s.prefix, userID, collection)
}

func (s *RedisStore) push(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

// rangeAll decodes every element of a list with decode.
func (s *RedisStore) rangeAll(ctx context.Context, key string, decode func([]byte) error) error {
	vals, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("lrange %s: %w", key, err)
	}
	for _, v := range vals {
		if err := decode([]byte(v)); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return nil
}

func (s *RedisStore) AppendMetric(ctx context.Context, userID string, m HealthMetric) error {
	return s.push(ctx, s.key(userID, "metrics"), m)
}

func (s *RedisStore) Metrics(ctx context.Context, userID string) ([]HealthMetric, error) {
	items := []HealthMetric{}
	err := s.rangeAll(ctx, s.key(userID, "metrics"), func(raw []byte) error {
		var m HealthMetric
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		items = append(items, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisStore) SaveProfile(ctx context.Context, userID string, p UserProfile) error {
	raw, err := json.Marshal(cloneProfile(p))
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(userID, "profile"), raw, 0).Err(); err != nil {
		return fmt.Errorf("set profile: %w", err)
	}
	return nil
}

func (s *RedisStore) Profile(ctx context.Context, userID string) (*UserProfile, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID, "profile")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	var p UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	p = cloneProfile(p)
	return &p, nil
}

func (s *RedisStore) AppendDocument(ctx context.Context, userID string, d MedicalDocument) error {
	return s.push(ctx, s.key(userID, "documents"), d)
}

func (s *RedisStore) Documents(ctx context.Context, userID string) ([]MedicalDocument, error) {
	items := []MedicalDocument{}
	err := s.rangeAll(ctx, s.key(userID, "documents"), func(raw []byte) error {
		var d MedicalDocument
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		items = append(items, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisStore) AppendGuardian(ctx context.Context, userID string, g Guardian) error {
	return s.push(ctx, s.key(userID, "guardians"), g)
}

func (s *RedisStore) Guardians(ctx context.Context, userID string) ([]Guardian, error) {
	items := []Guardian{}
	err := s.rangeAll(ctx, s.key(userID, "guardians"), func(raw []byte) error {
		var g Guardian
		if err := json.Unmarshal(raw, &g); err != nil {
			return err
		}
		items = append(items, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
