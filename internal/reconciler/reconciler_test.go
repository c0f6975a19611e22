package reconciler

import (
	"encoding/binary"
	"testing"

	"github.com/simula/dynmhs/internal/config"
	"github.com/simula/dynmhs/internal/queue"
	"github.com/simula/dynmhs/internal/wire"
)

func testMapping(t *testing.T) *config.Mapping {
	t.Helper()
	m, err := config.NewMapping([]config.NetworkMapping{{Interface: "eth0", Table: 1000}})
	if err != nil {
		t.Fatalf("NewMapping: %v", err)
	}
	return m
}

func TestNextSeqIsMonotonic(t *testing.T) {
	r := New(testMapping(t))
	var last uint32
	for i := 0; i < 5; i++ {
		s := r.NextSeq()
		if i > 0 && s <= last {
			t.Fatalf("NextSeq() = %d, not greater than previous %d", s, last)
		}
		last = s
	}
}

func TestNextSeqStartsHigh(t *testing.T) {
	r := New(testMapping(t))
	if s := r.NextSeq(); s != initialSeq {
		t.Fatalf("first NextSeq() = %d, want %d", s, initialSeq)
	}
}

func TestModeTransitions(t *testing.T) {
	r := New(testMapping(t))
	if r.Mode() != ModeUndefined {
		t.Fatalf("initial mode = %v, want Undefined", r.Mode())
	}
	r.SetMode(ModeOperational)
	if r.Mode() != ModeOperational {
		t.Fatalf("mode = %v, want Operational", r.Mode())
	}
	r.SetMode(ModeReset)
	if r.Mode() != ModeReset {
		t.Fatalf("mode = %v, want Reset", r.Mode())
	}
}

func TestProcessEnqueuesDerivedRequest(t *testing.T) {
	r := New(testMapping(t))
	r.SetMode(ModeOperational)
	r.RememberIfName(7, "eth0")

	enc := wire.NewEncoder(256)
	enc.PutHeader(wire.Header{Type: wire.RtmNewAddr, Seq: 1})
	hdr := make([]byte, wire.SizeofIfaddrmsg)
	hdr[0] = wire.AfInet
	binary.NativeEndian.PutUint32(hdr[4:8], 7)
	if err := enc.PutFamily(hdr); err != nil {
		t.Fatalf("PutFamily: %v", err)
	}
	if err := enc.PutAttr(wire.IfaAddress, []byte{192, 168, 1, 1}); err != nil {
		t.Fatalf("PutAttr: %v", err)
	}
	raw := enc.Finish()
	dec := wire.NewDecoder(raw)
	msg, _, _ := dec.Next()

	q := queue.New()
	r.Process(q, msg)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d after Process, want 1", q.Len())
	}
}

func TestProcessIgnoresLinkMessages(t *testing.T) {
	r := New(testMapping(t))
	r.SetMode(ModeOperational)

	enc := wire.NewEncoder(256)
	enc.PutHeader(wire.Header{Type: wire.RtmNewLink, Seq: 1})
	if err := enc.PutFamily(make([]byte, wire.SizeofIfinfomsg)); err != nil {
		t.Fatalf("PutFamily: %v", err)
	}
	raw := enc.Finish()
	dec := wire.NewDecoder(raw)
	msg, _, _ := dec.Next()

	q := queue.New()
	r.Process(q, msg)
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for a link message", q.Len())
	}
}

func TestBuildDumpRequestConsumesSequence(t *testing.T) {
	r := New(testMapping(t))
	msg, seq := r.BuildDumpRequest(wire.RtmGetLink)

	dec := wire.NewDecoder(msg)
	out, ok, err := dec.Next()
	if err != nil || !ok {
		t.Fatalf("decoding dump request: ok=%v err=%v", ok, err)
	}
	if out.Header.Seq != seq {
		t.Errorf("Header.Seq = %d, want %d", out.Header.Seq, seq)
	}
	if out.Header.Flags != uint16(wire.FlagDumpRequest) {
		t.Errorf("Header.Flags = %#x, want dump flags", out.Header.Flags)
	}
}
