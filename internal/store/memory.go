package store

import (
	"context"
	"sync"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/model"
)

// MemoryStore is an in-process implementation of both ScanStore and
// QuotaStore. State is lost on restart; scans can be resubmitted.
type MemoryStore struct {
	mu     sync.Mutex
	scans  map[string]*model.ScanRecord
	quotas map[string]*model.QuotaWindow
	hub    *watchHub
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scans:  make(map[string]*model.ScanRecord),
		quotas: make(map[string]*model.QuotaWindow),
		hub:    newWatchHub(),
	}
}

func (s *MemoryStore) CreateScan(_ context.Context, rec *model.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := *rec
	s.scans[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) GetScan(_ context.Context, id string) (*model.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	rec, ok := s.scans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) UpdateScan(_ context.Context, id string, mutate func(*model.ScanRecord)) (*model.ScanRecord, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	rec, ok := s.scans[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	mutate(rec)
	cp := *rec
	s.mu.Unlock()

	s.hub.notify(cp)
	out := cp
	return &out, nil
}

func (s *MemoryStore) DeleteScan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.scans, id)
	return nil
}

func (s *MemoryStore) FindSucceededScan(_ context.Context, repoURL, commitHash string) (*model.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var best *model.ScanRecord
	for _, rec := range s.scans {
		if rec.Status != model.ScanSucceeded || rec.RepoURL != repoURL || rec.CommitHash != commitHash {
			continue
		}
		if best == nil || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *MemoryStore) WatchScan(_ context.Context, id string) (<-chan model.ScanRecord, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, ErrClosed
	}
	s.mu.Unlock()
	ch, cancel := s.hub.subscribe(id)
	return ch, cancel, nil
}

func (s *MemoryStore) GetQuotaWindow(_ context.Context, identifier string) (*model.QuotaWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	w, ok := s.quotas[identifier]
	if !ok {
		return &model.QuotaWindow{}, nil
	}
	out := model.QuotaWindow{Requests: append(w.Requests[:0:0], w.Requests...)}
	return &out, nil
}

func (s *MemoryStore) PutQuotaWindow(_ context.Context, identifier string, w *model.QuotaWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.quotas[identifier] = &model.QuotaWindow{Requests: append(w.Requests[:0:0], w.Requests...)}
	return nil
}

func (s *MemoryStore) DeleteQuotaWindow(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.quotas, identifier)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.closeAll()
	return nil
}

// Ensure MemoryStore satisfies both contracts at compile time.
var (
	_ interfaces.ScanStore  = (*MemoryStore)(nil)
	_ interfaces.QuotaStore = (*MemoryStore)(nil)
)
