package journal

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu      sync.Mutex
	records []Record
	seen    map[int64]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{seen: make(map[int64]struct{})}
}

func (r *MemoryRepository) SaveBatch(_ context.Context, records []Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if _, dup := r.seen[rec.ID]; dup {
			continue
		}
		r.seen[rec.ID] = struct{}{}
		r.records = append(r.records, rec)
	}
	return nil
}

// Records 返回副本。
func (r *MemoryRepository) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// BySession 按写入顺序返回某个会话的流水。
func (r *MemoryRepository) BySession(id string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.SessionID == id {
			out = append(out, rec)
		}
	}
	return out
}
