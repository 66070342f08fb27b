package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sharoA/document-analyzer-sub000/pkg/kv"
)

// MemStore is an in-process Store used by tests and by local single-process
// deployments that do not need the redis backend. It mirrors RedisStore's
// namespace/TTL semantics using the generic pkg/kv map as its field table.
type MemStore struct {
	mu      sync.Mutex
	tables  map[Namespace]map[string]kv.KSVA // namespace -> taskID -> field -> raw json
	expires map[string]time.Time             // namespace/taskID -> expiry
	written map[string]int                    // namespace/taskID -> write sequence, for Scan ordering
	seq     int
}

func NewMemStore() *MemStore {
	return &MemStore{
		tables:  make(map[Namespace]map[string]kv.KSVA),
		expires: make(map[string]time.Time),
		written: make(map[string]int),
	}
}

func (m *MemStore) compositeKey(ns Namespace, taskID string) string {
	return string(ns) + "/" + taskID
}

func (m *MemStore) Put(_ context.Context, ns Namespace, taskID, field string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked()

	table, ok := m.tables[ns]
	if !ok {
		table = make(map[string]kv.KSVA)
		m.tables[ns] = table
	}
	fields, ok := table[taskID]
	if !ok {
		fields = kv.NewKSVA()
		table[taskID] = fields
	}
	fields.Put(field, raw)

	ck := m.compositeKey(ns, taskID)
	m.expires[ck] = time.Now().Add(ttl)
	m.seq++
	m.written[ck] = m.seq
	return nil
}

func (m *MemStore) Get(_ context.Context, ns Namespace, taskID, field string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked()

	fields, ok := m.tables[ns][taskID]
	if !ok {
		return ErrNotFound
	}
	raw, ok := fields.Value(field)
	if !ok {
		return ErrNotFound
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal(raw.([]byte), dst)
}

func (m *MemStore) Delete(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ns, table := range m.tables {
		delete(table, taskID)
		delete(m.expires, m.compositeKey(ns, taskID))
		delete(m.written, m.compositeKey(ns, taskID))
	}
	return nil
}

func (m *MemStore) Scan(_ context.Context, ns Namespace, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked()

	table := m.tables[ns]
	ids := make([]string, 0, len(table))
	for taskID := range table {
		ids = append(ids, taskID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.written[m.compositeKey(ns, ids[i])] > m.written[m.compositeKey(ns, ids[j])]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// evictLocked removes any (namespace, taskID) pair whose TTL has elapsed.
// Called with mu held. This is the in-process analogue of redis's own key
// expiry, applied per (namespace, taskID) entry as RedisStore does.
func (m *MemStore) evictLocked() {
	now := time.Now()
	expired := make(map[string]bool)
	for ck, exp := range m.expires {
		if !now.Before(exp) {
			expired[ck] = true
			delete(m.expires, ck)
			delete(m.written, ck)
		}
	}
	if len(expired) == 0 {
		return
	}
	for ns, table := range m.tables {
		for taskID := range table {
			if expired[m.compositeKey(ns, taskID)] {
				delete(table, taskID)
			}
		}
	}
}
