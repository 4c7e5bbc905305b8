package checkpoint

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store, adapted from graph/store/memory.go's
// MemStore[S] locking idiom. Used by tests and by the reference
// single-process deployment (no external database configured).
type MemoryStore struct {
	mu          sync.Mutex
	checkpoints map[string]map[string]Checkpoint // checkpointKey(ns,thread) -> checkpointID -> Checkpoint
	order       map[string][]string              // metadataKey(ns,thread) -> checkpoint IDs in write order
	metadata    map[string]ThreadMetadata         // metadataKey(ns,thread) -> metadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[string]map[string]Checkpoint),
		order:       make(map[string][]string),
		metadata:    make(map[string]ThreadMetadata),
	}
}

func (m *MemoryStore) Put(_ context.Context, ckpt Checkpoint, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := DefaultNamespace
	mk := metadataKey(ns, ckpt.ThreadID)
	now := time.Now()

	meta, exists := m.metadata[mk]
	if !exists {
		meta = ThreadMetadata{
			ThreadID:  ckpt.ThreadID,
			GraphName: ckpt.GraphName,
			CreatedAt: now,
		}
	}

	meta.LastActive = now
	meta.ExpiresAt = now.Add(ttl)
	meta.LatestCkpt = ckpt.CheckpointID
	m.metadata[mk] = meta

	ck := checkpointKey(ns, ckpt.ThreadID, "")
	if m.checkpoints[ck] == nil {
		m.checkpoints[ck] = make(map[string]Checkpoint)
	}
	if ckpt.Timestamp.IsZero() {
		ckpt.Timestamp = now
	}
	m.checkpoints[ck][ckpt.CheckpointID] = ckpt
	m.order[mk] = append(m.order[mk], ckpt.CheckpointID)
	return nil
}

func (m *MemoryStore) GetLatest(_ context.Context, namespace, threadID string, extendOnAccess bool, ttl time.Duration) (Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mk := metadataKey(namespace, threadID)
	meta, ok := m.metadata[mk]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	ck := checkpointKey(namespace, threadID, "")
	ckpt, ok := m.checkpoints[ck][meta.LatestCkpt]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	if extendOnAccess {
		meta.LastActive = time.Now()
		meta.ExpiresAt = meta.LastActive.Add(ttl)
		m.metadata[mk] = meta
	}
	return ckpt, nil
}

func (m *MemoryStore) Get(_ context.Context, namespace, threadID, checkpointID string) (Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ck := checkpointKey(namespace, threadID, "")
	ckpt, ok := m.checkpoints[ck][checkpointID]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	return ckpt, nil
}

func (m *MemoryStore) List(_ context.Context, namespace, threadID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := append([]string{}, m.order[metadataKey(namespace, threadID)]...)
	return ids, nil
}

func (m *MemoryStore) Metadata(_ context.Context, namespace, threadID string) (ThreadMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[metadataKey(namespace, threadID)]
	if !ok {
		return ThreadMetadata{}, ErrNotFound
	}
	return meta, nil
}

func (m *MemoryStore) MarkTerminal(_ context.Context, namespace, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk := metadataKey(namespace, threadID)
	meta, ok := m.metadata[mk]
	if !ok {
		return ErrNotFound
	}
	meta.Terminal = true
	m.metadata[mk] = meta
	return nil
}

func (m *MemoryStore) Close() error { return nil }
