// Package acktracker implements the acknowledgement state machine of §4.4:
// mapping one outstanding request sequence number to its completion state,
// with a bounded wait driven by the transport's poll/receive cycle.
package acktracker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/simula/dynmhs/internal/wire"
)

// ErrTimeout is returned by Await when the budget elapses with no matching
// NLMSG_ERROR observed.
var ErrTimeout = errors.New("acktracker: timed out waiting for acknowledgement")

// ErrWaitInProgress guards the single-outstanding-wait invariant (§4.4:
// "only one wait is active at a time; concurrent waits are a programming
// error").
var ErrWaitInProgress = errors.New("acktracker: a wait is already in progress")

// Poller is the narrow transport capability Await needs: block until the
// socket is readable or the deadline passes, then attempt a nonblocking
// receive. Defined here so tests can supply a fake without depending on the
// transport package.
type Poller interface {
	// Poll blocks until the netlink socket is readable or remainingMillis
	// elapses, whichever comes first.
	Poll(remainingMillis int) error
	// Receive performs one nonblocking receive, returning a decoder over
	// whatever arrived (possibly nothing).
	Receive() (*wire.Decoder, error)
}

// Tracker holds the acknowledgement state record described in §3:
// { waiting, awaited_seq, last_error }.
type Tracker struct {
	waiting    bool
	awaitedSeq uint32
	lastError  int32
}

// New returns a tracker with no wait in progress.
func New() *Tracker {
	return &Tracker{}
}

// Waiting reports whether a wait is currently in progress.
func (t *Tracker) Waiting() bool {
	return t.waiting
}

// LastError returns the errno-style error code carried by the most recently
// observed NLMSG_ERROR for the awaited sequence (0 for success/ack).
func (t *Tracker) LastError() int32 {
	return t.lastError
}

// Observe feeds one decoded message through the tracker. It is the
// integration point between the error handler (§4.5) and the tracker: every
// message the engine decodes, whether or not it's an NLMSG_ERROR, passes
// through here so a matching acknowledgement can clear the wait.
func (t *Tracker) Observe(msg wire.Message) {
	if !t.waiting || msg.Header.Type != wire.NlmsgError || msg.Header.Seq != t.awaitedSeq {
		return
	}
	t.lastError = decodeErrno(msg.Payload)
	t.waiting = false
}

// Await blocks until a matching acknowledgement for seq arrives or the
// timeout elapses, per §4.4: "loops { poll(socket, remaining-time);
// receive(nonblocking); } until the event handler observes a matching
// NLMSG_ERROR and clears waiting". deliverFn is invoked with every decoded
// message during the wait so handlers can still run (and enqueue further
// requests) on messages interleaved with the acknowledgement — the
// acknowledgement/dump interleaving rule of §9.
func (t *Tracker) Await(p Poller, seq uint32, timeout time.Duration, deliverFn func(wire.Message)) error {
	if t.waiting {
		return ErrWaitInProgress
	}
	t.waiting = true
	t.awaitedSeq = seq
	t.lastError = 0

	deadline := time.Now().Add(timeout)
	for t.waiting {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.waiting = false
			return ErrTimeout
		}

		// Round up so a sub-millisecond remainder still polls with a positive
		// budget instead of 0; the deadline check above ends the wait.
		millis := int((remaining + time.Millisecond - 1) / time.Millisecond)
		if err := p.Poll(millis); err != nil {
			t.waiting = false
			return fmt.Errorf("acktracker: poll: %w", err)
		}

		dec, err := p.Receive()
		if err != nil {
			t.waiting = false
			return fmt.Errorf("acktracker: receive: %w", err)
		}

		for {
			msg, ok, err := dec.Next()
			if err != nil {
				break // truncated trailing bytes; nothing more to salvage this round
			}
			if !ok {
				break
			}
			if deliverFn != nil {
				deliverFn(msg)
			}
			t.Observe(msg)
		}
	}

	return nil
}

// decodeErrno extracts the signed 32-bit error field from an NLMSG_ERROR
// payload (struct nlmsgerr: { error int32; msg nlmsghdr }). 0 means the
// request succeeded and this message is a plain acknowledgement.
func decodeErrno(payload []byte) int32 {
	if len(payload) < 4 {
		return 0
	}
	return int32(binary.NativeEndian.Uint32(payload[0:4]))
}
