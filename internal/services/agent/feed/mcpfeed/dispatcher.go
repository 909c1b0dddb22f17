package mcpfeed

import "sync"

// notification is one queued resource update.
type notification struct {
	uri  string
	hint string
}

// dispatcher is an unbounded FIFO of notifications with a single consumer.
// A notification identical to one still pending is dropped; the consumer
// re-reads the whole feed, so the duplicate would observe the same state.
type dispatcher struct {
	mu      sync.Mutex
	pending []notification
	wake    chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{wake: make(chan struct{}, 1)}
}

func (d *dispatcher) push(n notification) bool {
	d.mu.Lock()
	for _, queued := range d.pending {
		if queued == n {
			d.mu.Unlock()
			return false
		}
	}
	d.pending = append(d.pending, n)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

func (d *dispatcher) pop() (notification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return notification{}, false
	}
	next := d.pending[0]
	d.pending[0] = notification{}
	d.pending = d.pending[1:]
	return next, true
}

func (d *dispatcher) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
