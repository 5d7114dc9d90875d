package productsync

import (
	"sync"

	"github.com/s0up4200/metasync/catalog"
)

// Queue holds pending item changes keyed by retailer ID. A later change for
// the same product replaces the earlier one but keeps its queue position.
type Queue struct {
	mu      sync.Mutex
	pending map[string]catalog.BatchRequest
	order   []string
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{pending: make(map[string]catalog.BatchRequest)}
}

// Put queues a change, replacing any pending change for the same retailer ID
func (q *Queue) Put(retailerID string, req catalog.BatchRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[retailerID]; !ok {
		q.order = append(q.order, retailerID)
	}
	q.pending[retailerID] = req
}

// requeue puts back changes that failed to send, unless a newer change arrived meanwhile
func (q *Queue) requeue(reqs []catalog.BatchRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, req := range reqs {
		id := retailerIDOf(req)
		if _, ok := q.pending[id]; ok {
			continue
		}
		q.order = append(q.order, id)
		q.pending[id] = req
	}
}

// Get returns the pending change for a retailer ID
func (q *Queue) Get(retailerID string) (catalog.BatchRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	req, ok := q.pending[retailerID]
	return req, ok
}

// Len returns the number of pending changes
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Drain removes and returns every pending change in arrival order
func (q *Queue) Drain() []catalog.BatchRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	reqs := make([]catalog.BatchRequest, 0, len(q.order))
	for _, id := range q.order {
		reqs = append(reqs, q.pending[id])
	}
	q.pending = make(map[string]catalog.BatchRequest)
	q.order = nil
	return reqs
}

func retailerIDOf(req catalog.BatchRequest) string {
	id, _ := req.Data["id"].(string)
	return id
}
