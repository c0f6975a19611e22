// Package queue holds pending outbound netlink requests, dispatching them
// in insertion order (§4.3). It owns the byte buffers it holds; ownership
// transfers to the transport only once a send has actually succeeded.
package queue

// Sender is the narrow transport capability the queue needs: writing one
// complete message. Defined here, not in transport, so the queue can be
// tested against a fake.
type Sender interface {
	Send(msg []byte) error
}

// Queue is an ordered sequence of pending requests (§4.3: "enqueue preserves
// insertion order"). It is not safe for concurrent use; the engine is
// single-threaded (§5).
type Queue struct {
	pending [][]byte
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends msg to the back of the queue. The queue takes ownership
// of msg until it is dispatched.
func (q *Queue) Enqueue(msg []byte) {
	q.pending = append(q.pending, msg)
}

// Len reports the number of requests still pending.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Drain dispatches requests front-to-back via s.Send, releasing each one's
// bytes as soon as its send succeeds. Current policy (§4.3) is abort on
// failure: a failed send leaves that request, and everything behind it, at
// the front of the queue so a caller can retry later, and Drain returns the
// send error immediately.
func (q *Queue) Drain(s Sender) error {
	for len(q.pending) > 0 {
		msg := q.pending[0]
		if err := s.Send(msg); err != nil {
			return err
		}
		q.pending[0] = nil
		q.pending = q.pending[1:]
	}
	return nil
}

// Clear discards every pending request without attempting to send it. Used
// during final shutdown (§4.7: "free any messages still queued").
func (q *Queue) Clear() {
	q.pending = nil
}
