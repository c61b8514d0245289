package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arooba/pricing-engine/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestOverrideHashLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.OverridesKey("overrides")

	if err := client.HSet(ctx, key, "vat_rate", "0.15"); err != nil {
		t.Fatalf("hset failed: %v", err)
	}
	if err := client.HSet(ctx, key, "category:toys", "0.1,0.2,0.15"); err != nil {
		t.Fatalf("hset failed: %v", err)
	}

	fields, err := client.HGetAll(ctx, key)
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if len(fields) != 2 || fields["vat_rate"] != "0.15" {
		t.Fatalf("unexpected hash contents %v", fields)
	}

	if err := client.HDel(ctx, key, "vat_rate"); err != nil {
		t.Fatalf("hdel failed: %v", err)
	}
	fields, err = client.HGetAll(ctx, key)
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if _, ok := fields["vat_rate"]; ok {
		t.Fatalf("expected vat_rate removed, got %v", fields)
	}
}

func TestHGetAllMissingKeyIsEmpty(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	fields, err := client.HGetAll(context.Background(), "arooba:pricing:absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("expected empty map, got %v", fields)
	}
}

func TestHGetAllPropagatesErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.err = errors.New("connection refused")
	client := &Client{store: mock}
	if _, err := client.HGetAll(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from store")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	if _, err := client.HGetAll(context.Background(), "k"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op, got %v", err)
	}
}

func TestOverridesKey(t *testing.T) {
	client := &Client{}
	if got := client.OverridesKey("overrides"); got != "arooba:pricing:overrides" {
		t.Fatalf("unexpected overrides key %s", got)
	}
	if got := client.OverridesKey("arooba:pricing:staging"); got != "arooba:pricing:staging" {
		t.Fatalf("namespaced key should pass through, got %s", got)
	}
	if got := client.OverridesKey(" "); got != "arooba:pricing" {
		t.Fatalf("empty scope should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6379",
		DB:          2,
		PoolSize:    8,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 8 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://:secret@cache:6380/4", PoolSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 4 || opts.Password != "secret" || opts.PoolSize != 2 {
		t.Fatalf("unexpected url options %+v", opts)
	}

	if _, err := optionsFromConfig(config.RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatalf("expected url parse error")
	}
}

type mockCmdable struct {
	hashes map[string]map[string]string
	err    error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{hashes: make(map[string]map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	if m.err != nil {
		return redis.NewMapStringStringResult(nil, m.err)
	}
	out := make(map[string]string, len(m.hashes[key]))
	for field, value := range m.hashes[key] {
		out[field] = value
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (m *mockCmdable) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	var added int64
	for i := 0; i+1 < len(values); i += 2 {
		field := fmt.Sprint(values[i])
		if _, exists := hash[field]; !exists {
			added++
		}
		hash[field] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(added, nil)
}

func (m *mockCmdable) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	var removed int64
	for _, field := range fields {
		if _, ok := m.hashes[key][field]; ok {
			delete(m.hashes[key], field)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}
