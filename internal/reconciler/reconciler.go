// Package reconciler owns the mode-dependent state the event handlers
// consult: operating mode, the immutable interface mapping, the monotonic
// sequence counter, and a transient interface-index cache (§4.6, §9). It is
// deliberately one struct, not package-level globals — "one owned context
// value" per §9's design notes, since the engine is single-threaded and has
// no need for anything more elaborate.
package reconciler

import (
	"github.com/simula/dynmhs/internal/config"
	"github.com/simula/dynmhs/internal/handlers"
	"github.com/simula/dynmhs/internal/queue"
	"github.com/simula/dynmhs/internal/wire"
)

// initialSeq is the high starting value for the sequence counter (§3): far
// enough from kernel-originated sequence 0 that self-issued requests are
// easy to recognise in logs, and collisions are not a practical concern.
const initialSeq = 1_000_000_000

// Mode re-exports handlers.Mode so callers outside this package never need
// to import handlers just to name Operational/Reset/Undefined.
type Mode = handlers.Mode

const (
	ModeUndefined   = handlers.ModeUndefined
	ModeOperational = handlers.ModeOperational
	ModeReset       = handlers.ModeReset
)

// Reconciler bundles the state described in §3/§9 and implements
// handlers.Context over it.
type Reconciler struct {
	mode    Mode
	mapping *config.Mapping
	seq     uint32
	ifNames map[int32]string
}

// New returns a Reconciler in Undefined mode over the given interface
// mapping.
func New(mapping *config.Mapping) *Reconciler {
	return &Reconciler{
		mode:    ModeUndefined,
		mapping: mapping,
		seq:     initialSeq,
		ifNames: make(map[int32]string),
	}
}

// SetMode transitions the operating mode (§4.7: Operational after
// bootstrap, Reset before teardown dumps).
func (r *Reconciler) SetMode(m Mode) {
	r.mode = m
}

func (r *Reconciler) Mode() Mode {
	return r.mode
}

func (r *Reconciler) TableFor(ifaceName string) (uint32, bool) {
	return r.mapping.TableFor(ifaceName)
}

func (r *Reconciler) IsCustomTable(table uint32) bool {
	return r.mapping.IsCustomTable(table)
}

// NextSeq consumes and returns the next sequence number. §3 invariant:
// "every enqueued request carries a sequence number strictly greater than
// all previously enqueued ones" — a single incrementing counter guarantees
// this regardless of how many handlers fire per received message.
func (r *Reconciler) NextSeq() uint32 {
	s := r.seq
	r.seq++
	return s
}

// LastSeq returns the most recently issued sequence number. Valid only
// after at least one NextSeq call; used by the lifecycle driver to await
// the final teardown request without tracking the value itself (§4.7:
// "await the last sequence number").
func (r *Reconciler) LastSeq() uint32 {
	return r.seq - 1
}

func (r *Reconciler) ResolveIfName(ifindex int32) (string, bool) {
	name, ok := r.ifNames[ifindex]
	return name, ok
}

func (r *Reconciler) RememberIfName(ifindex int32, name string) {
	r.ifNames[ifindex] = name
}

// Process dispatches one decoded message to its handler and, if a derived
// request resulted, enqueues it (§4.6: "reconciler is the mode-dependent
// policy embedded in the handlers above").
func (r *Reconciler) Process(q *queue.Queue, msg wire.Message) {
	if req := handlers.Dispatch(r, msg); req != nil {
		q.Enqueue(req)
	}
}

// BuildDumpRequest encodes a bare REQUEST|DUMP|ACK request for the given
// message type and AF_UNSPEC family, as issued during bootstrap and
// teardown (§4.7). It returns the encoded message and the sequence number
// it consumed, so the caller can await() that exact sequence.
func (r *Reconciler) BuildDumpRequest(msgType uint16) (msg []byte, seq uint32) {
	seq = r.NextSeq()
	enc := wire.NewEncoder(64)
	enc.PutHeader(wire.Header{Type: msgType, Flags: uint16(wire.FlagDumpRequest), Seq: seq})
	// rtgenmsg: a single byte, family = AF_UNSPEC, matching every family.
	_ = enc.PutFamily([]byte{byte(wire.AfUnspec)})
	return enc.Finish(), seq
}
