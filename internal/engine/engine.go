// Package engine is the lifecycle driver of §4.7: bootstrap dumps, the main
// poll-driven event loop, and the teardown sequence, wired over the
// transport, wire codec, request queue, acknowledgement tracker, and
// reconciler packages. It is the only package that owns a signal
// descriptor; everything else in the module is signal-agnostic.
package engine

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/simula/dynmhs/internal/acktracker"
	"github.com/simula/dynmhs/internal/queue"
	"github.com/simula/dynmhs/internal/reconciler"
	"github.com/simula/dynmhs/internal/rtlog"
	"github.com/simula/dynmhs/internal/transport"
	"github.com/simula/dynmhs/internal/wire"
)

// defaultAckTimeout is the await() budget used for every bootstrap and
// teardown dump (§4.7 bootstrap: "await(seq, 5000 ms)"; §5/§7: "every
// bootstrap and teardown await has a 5000 ms budget").
const defaultAckTimeout = 5000 * time.Millisecond

// bootstrapDumps and teardownDumps are the dump sequences of §4.7, in
// order.
var bootstrapDumps = []uint16{wire.RtmGetLink, wire.RtmGetAddr, wire.RtmGetRoute, wire.RtmGetRule}
var teardownDumps = []uint16{wire.RtmGetRule, wire.RtmGetRoute}

// netlinkConn is the narrow transport capability the engine needs: send,
// receive, expose a pollable descriptor, and close. Defined here, rather
// than depending on *transport.Transport directly, so tests can drive
// Bootstrap/Teardown's timeout handling with a fake socket.
type netlinkConn interface {
	Fd() int
	Send(msg []byte) error
	Receive(nonblocking bool) (*wire.Decoder, error)
	Close() error
}

// Engine drives the daemon's lifecycle: Bootstrap, then Run until SIGINT,
// then Teardown.
type Engine struct {
	tr         netlinkConn
	q          *queue.Queue
	tracker    *acktracker.Tracker
	recon      *reconciler.Reconciler
	sigFd      int
	polls      *transport.PollSet
	ackTimeout time.Duration
}

// transportPoller adapts a netlinkConn and a single-fd PollSet to the
// acktracker.Poller interface used during bootstrap/teardown waits.
type transportPoller struct {
	tr    netlinkConn
	polls *transport.PollSet
}

func (p *transportPoller) Poll(remainingMillis int) error {
	return p.polls.Wait(remainingMillis)
}

func (p *transportPoller) Receive() (*wire.Decoder, error) {
	return p.tr.Receive(true)
}

// New opens the routing-netlink socket and the signal descriptor and
// returns an Engine ready for Bootstrap. recon must be freshly constructed
// (Mode() == Undefined).
func New(recon *reconciler.Reconciler) (*Engine, error) {
	tr, err := transport.Open()
	if err != nil {
		return nil, err
	}

	sigFd, err := openSignalFd()
	if err != nil {
		tr.Close()
		return nil, err
	}

	return &Engine{
		tr:         tr,
		q:          queue.New(),
		tracker:    acktracker.New(),
		recon:      recon,
		sigFd:      sigFd,
		polls:      transport.NewPollSet(tr.Fd(), sigFd),
		ackTimeout: defaultAckTimeout,
	}, nil
}

// deliver feeds one decoded message to the reconciler, enqueueing any
// derived request. Used both as the main loop's per-message callback and as
// the deliverFn handed to acktracker.Await so handlers still run on
// messages interleaved with an awaited acknowledgement (§9).
func (e *Engine) deliver(msg wire.Message) {
	e.recon.Process(e.q, msg)
}

// runDump enqueues one dump request, drains the queue, and awaits its
// acknowledgement — the repeated step of both Bootstrap and Teardown
// (§4.7). A timeout on the await is logged and treated as success: per §5,
// "a timeout is logged and the lifecycle step proceeds; it is not fatal
// because the missing acknowledgement may arrive later and the handlers
// are idempotent" (§7 restates this as "best-effort teardown", but the rule
// applies to bootstrap identically).
func (e *Engine) runDump(msgType uint16) error {
	msg, seq := e.recon.BuildDumpRequest(msgType)
	e.q.Enqueue(msg)
	if err := e.q.Drain(e.tr); err != nil {
		return fmt.Errorf("engine: dispatching dump request: %w", err)
	}

	p := &transportPoller{tr: e.tr, polls: transport.NewPollSet(e.tr.Fd())}
	if err := e.tracker.Await(p, seq, e.ackTimeout, e.deliver); err != nil {
		if errors.Is(err, acktracker.ErrTimeout) {
			rtlog.Errorf("engine: dump %d: acknowledgement timed out, continuing", msgType)
			return nil
		}
		return fmt.Errorf("engine: awaiting dump %d: %w", msgType, err)
	}
	return nil
}

// Bootstrap transitions to Operational and replays the kernel's existing
// link/address/route/rule state through the handlers, installing any
// mirrored routes and source-routing rules that already apply (§4.7).
func (e *Engine) Bootstrap() error {
	e.recon.SetMode(reconciler.ModeOperational)
	for _, msgType := range bootstrapDumps {
		if err := e.runDump(msgType); err != nil {
			return err
		}
	}
	return nil
}

// Run is the main event loop: poll the netlink socket and the signal
// descriptor, dispatch whatever arrives, drain the queue every iteration,
// and return when SIGINT is observed (§4.7, §5).
func (e *Engine) Run() error {
	const sigFdIndex = 1
	for {
		if err := e.polls.Wait(-1); err != nil {
			return fmt.Errorf("engine: poll: %w", err)
		}

		if e.polls.Ready(sigFdIndex) {
			if err := drainSignalFd(e.sigFd); err != nil {
				rtlog.Warnf("engine: reading signalfd: %v", err)
			}
			rtlog.Infof("engine: SIGINT received, beginning teardown")
			return nil
		}

		if e.polls.Ready(0) {
			dec, err := e.tr.Receive(true)
			if err != nil {
				return fmt.Errorf("engine: receive: %w", err)
			}
			for {
				msg, ok, err := dec.Next()
				if err != nil {
					rtlog.Warnf("engine: decoding receive buffer: %v", err)
					break
				}
				if !ok {
					break
				}
				e.deliver(msg)
			}
		}

		if err := e.q.Drain(e.tr); err != nil {
			return fmt.Errorf("engine: draining queue: %w", err)
		}
	}
}

// Teardown transitions to Reset, replays rule and route dumps so the
// handlers can emit deletes for everything installed in a custom table,
// drains and awaits the final request, then releases the socket and signal
// descriptor (§4.7). Teardown is best-effort throughout (§7): a failing
// dump step is logged, never aborts the remaining steps, and the socket and
// signal descriptor are always closed before returning (§5's resource
// discipline applies regardless of what failed along the way).
func (e *Engine) Teardown() error {
	e.recon.SetMode(reconciler.ModeReset)

	var errs []error
	for _, msgType := range teardownDumps {
		if err := e.runDump(msgType); err != nil {
			rtlog.Errorf("engine: teardown dump %d: %v", msgType, err)
			errs = append(errs, err)
		}
	}

	if e.q.Len() > 0 {
		lastSeq := e.recon.LastSeq()
		if err := e.q.Drain(e.tr); err != nil {
			rtlog.Errorf("engine: final drain: %v", err)
			errs = append(errs, err)
		} else {
			p := &transportPoller{tr: e.tr, polls: transport.NewPollSet(e.tr.Fd())}
			if err := e.tracker.Await(p, lastSeq, e.ackTimeout, e.deliver); err != nil {
				rtlog.Warnf("engine: final acknowledgement wait: %v", err)
			}
		}
	}

	e.q.Clear()
	if err := e.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the signal descriptor and netlink socket in the reverse
// order they were created (§5: "resource discipline").
func (e *Engine) Close() error {
	var firstErr error
	if err := unix.Close(e.sigFd); err != nil {
		firstErr = err
	}
	if err := e.tr.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
