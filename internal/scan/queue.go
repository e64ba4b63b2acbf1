package scan

import "sync"

// fifo is the in-process scan queue: an explicit owned object rather than
// module-level state, so multiple pipelines can coexist in tests. It is
// lost on restart; entries are mirrored in the document store and can be
// resubmitted.
type fifo struct {
	mu         sync.Mutex
	ids        []string
	processing bool
}

func (q *fifo) push(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
}

func (q *fifo) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return "", false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, true
}

// remove deletes id from the pending list. Returns false when the id is not
// queued (already dequeued or never submitted).
func (q *fifo) remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, queued := range q.ids {
		if queued == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (q *fifo) depth() (pending int, processing bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids), q.processing
}

func (q *fifo) setProcessing(v bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing = v
}
