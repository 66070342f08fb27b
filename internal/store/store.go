// Package store is the typed key-value adapter (component C1) that sits
// between the pipeline and a networked key-value backend. It provides
// atomic, TTL-bounded set/get/delete/scan over task-scoped namespaces and
// performs no retries of its own: failures are surfaced to the caller
// verbatim, same as the upstream redis client.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace partitions task-scoped data within a single key-value backend.
type Namespace string

const (
	NamespaceBasicInfo Namespace = "basic_info"
	NamespaceProgress  Namespace = "progress"
	NamespaceResult    Namespace = "assembled_result"
)

// StageResultNamespace builds the `stage_result/<stage>` namespace for a
// given stage name.
func StageResultNamespace(stage string) Namespace {
	return Namespace("stage_result/" + stage)
}

// DefaultTTL is the uniform TTL, measured from last write, that all
// task-scoped keys carry (invariant I6).
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by Get when the requested field does not exist.
var ErrNotFound = errors.New("store: key not found")

// Store is the typed key-value adapter contract consumed by the registry,
// the orchestrator, and every pipeline stage.
type Store interface {
	// Put JSON-serializes value and writes it under namespace/taskID/field,
	// refreshing the TTL of that namespace's entry for taskID. The task's
	// entries in other namespaces keep their own expiry.
	Put(ctx context.Context, ns Namespace, taskID, field string, value any, ttl time.Duration) error
	// Get reads the field back and JSON-decodes it into dst. It returns
	// ErrNotFound if the field is absent.
	Get(ctx context.Context, ns Namespace, taskID, field string, dst any) error
	// Delete removes every key associated with taskID across all
	// namespaces known to have been written, atomically from the
	// registry's perspective.
	Delete(ctx context.Context, taskID string) error
	// Scan returns the task IDs that have at least one key in namespace,
	// capped at limit. MemStore orders them most-recently-written first;
	// RedisStore returns them in set order, which is not defined.
	Scan(ctx context.Context, ns Namespace, limit int) ([]string, error)
}

// RedisStore implements Store over a redis.UniversalClient. It models each
// task's key space as a single redis hash per namespace
// (`task:{id}:<namespace>`), keyed by field, so that TTL refresh is a
// single EXPIRE call per write instead of one per field.
type RedisStore struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func key(ns Namespace, taskID string) string {
	return fmt.Sprintf("task:%s:%s", taskID, ns)
}

// indexKey tracks which (namespace, taskID) pairs exist so Delete and Scan
// can enumerate them without a non-atomic KEYS scan.
func indexKey(ns Namespace) string {
	return fmt.Sprintf("index:%s", ns)
}

func tasksKey(taskID string) string {
	return fmt.Sprintf("task:%s:namespaces", taskID)
}

func (s *RedisStore) Put(ctx context.Context, ns Namespace, taskID, field string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal %s/%s/%s: %w", ns, taskID, field, err)
	}

	pipe := s.client.TxPipeline()
	k := key(ns, taskID)
	pipe.HSet(ctx, k, field, raw)
	pipe.Expire(ctx, k, ttl)
	pipe.SAdd(ctx, indexKey(ns), taskID)
	pipe.Expire(ctx, indexKey(ns), ttl)
	pipe.SAdd(ctx, tasksKey(taskID), string(ns))
	pipe.Expire(ctx, tasksKey(taskID), ttl)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: put %s/%s/%s: %w", ns, taskID, field, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, taskID, field string, dst any) error {
	raw, err := s.client.HGet(ctx, key(ns, taskID), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: get %s/%s/%s: %w", ns, taskID, field, err)
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("store: decode %s/%s/%s: %w", ns, taskID, field, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, taskID string) error {
	namespaces, err := s.client.SMembers(ctx, tasksKey(taskID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("store: delete %s: %w", taskID, err)
	}

	pipe := s.client.TxPipeline()
	for _, ns := range namespaces {
		pipe.Del(ctx, key(Namespace(ns), taskID))
		pipe.SRem(ctx, indexKey(Namespace(ns)), taskID)
	}
	pipe.Del(ctx, tasksKey(taskID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: delete %s: %w", taskID, err)
	}
	return nil
}

func (s *RedisStore) Scan(ctx context.Context, ns Namespace, limit int) ([]string, error) {
	ids, err := s.client.SMembers(ctx, indexKey(ns)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: scan %s: %w", ns, err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
