package settings

import (
	"context"

	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

// OverrideSource supplies admin override fields.
type OverrideSource interface {
	Overrides(ctx context.Context) (map[string]string, error)
}

// HashGetter is the slice of the Redis client used to read overrides.
type HashGetter interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// RedisSource reads overrides from a single Redis hash.
type RedisSource struct {
	client HashGetter
	key    string
}

func NewRedisSource(client HashGetter, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

func (s *RedisSource) Overrides(ctx context.Context) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, s.key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read pricing overrides").
			WithDetails(map[string]any{"key": s.key})
	}
	return fields, nil
}

// StaticSource serves a fixed set of override fields.
type StaticSource map[string]string

func (s StaticSource) Overrides(context.Context) (map[string]string, error) {
	return s, nil
}
