package queue

import (
	"context"
	"sync"

	"fishnet/internal/ipc"
)

// mailbox is an unbounded FIFO of parked pulls from stubs to the actor,
// the Go stand-in for Tokio's unbounded mpsc channel. send never
// blocks; recv blocks until an item is available, the mailbox is
// closed, or ctx is cancelled.
type mailbox struct {
	mu     sync.Mutex
	items  []ipc.Pull
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// send enqueues a pull, reporting whether it was accepted. Once the
// mailbox is closed it reports false instead of enqueuing, mirroring a
// send on a dropped Tokio channel: benign during shutdown, and callers
// that don't care about the outcome discard it via util.Nevermind.
func (m *mailbox) send(p ipc.Pull) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, p)
	m.mu.Unlock()
	m.wake()
	return true
}

// close marks the mailbox closed. Already-queued items are still
// delivered by recv; only new sends are rejected.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// recv returns the next queued pull. ok is false when the mailbox is
// closed and drained, or when ctx is cancelled first.
func (m *mailbox) recv(ctx context.Context) (p ipc.Pull, ok bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			p = m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return p, true
		}
		done := m.closed
		m.mu.Unlock()
		if done {
			return ipc.Pull{}, false
		}

		select {
		case <-m.notify:
		case <-ctx.Done():
			return ipc.Pull{}, false
		}
	}
}
