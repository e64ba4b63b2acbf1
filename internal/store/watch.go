package store

import (
	"sync"

	"github.com/gitgauge/gitgauge/internal/model"
)

// watchHub fans record updates out to per-scan subscribers. Sends are
// non-blocking; a slow subscriber drops updates rather than stalling the
// writer.
type watchHub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan model.ScanRecord
	next int
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[string]map[int]chan model.ScanRecord)}
}

func (h *watchHub) subscribe(id string) (<-chan model.ScanRecord, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan model.ScanRecord, 16)
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]chan model.ScanRecord)
	}
	key := h.next
	h.next++
	h.subs[id][key] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if m, ok := h.subs[id]; ok {
			if c, ok := m[key]; ok {
				delete(m, key)
				close(c)
			}
			if len(m) == 0 {
				delete(h.subs, id)
			}
		}
	}
	return ch, cancel
}

func (h *watchHub) notify(rec model.ScanRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[rec.ID] {
		select {
		case ch <- rec:
		default:
		}
	}
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, m := range h.subs {
		for key, ch := range m {
			delete(m, key)
			close(ch)
		}
		delete(h.subs, id)
	}
}
