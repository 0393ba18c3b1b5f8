package util

// Notify is a single-permit wakeup signal, the Go stand-in for Tokio's
// Notify: a Signal() call that lands with nobody waiting is not lost —
// it is coalesced into one buffered slot that the next waiter consumes
// immediately. Used to wake the queue actor out of a backlog/backoff
// sleep when shutdown or new state makes sleeping pointless.
type Notify struct {
	ch chan struct{}
}

// NewNotify returns a ready-to-use Notify.
func NewNotify() *Notify {
	return &Notify{ch: make(chan struct{}, 1)}
}

// Signal wakes one waiter, or leaves a permit for the next one to arrive.
func (n *Notify) Signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel to select on; a receive consumes the permit.
func (n *Notify) C() <-chan struct{} {
	return n.ch
}
