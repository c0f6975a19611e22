// Package wire implements the netlink TLV wire codec described in §4.1 of
// the specification: decoding a receive buffer into a lazy sequence of
// message views, decoding each message's payload into a lazy sequence of
// attribute records, and encoding a header/family-struct/attribute-list
// triple back into an owned byte buffer.
//
// Every attribute is treated as opaque bytes here; interpreting a given
// attribute's value is the event handler's job (§4.5), not the codec's.
// Message and attribute iteration is deliberately one-shot and forward-only
// ("lazy sequence... finite, not restartable", §4.1) — callers that need to
// inspect a payload twice build their own slice of Attr first.
package wire

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// nlmsgAlign is NLMSG_ALIGNTO / RTA_ALIGNTO: every netlink message and every
// attribute is padded up to this boundary, though the length field recorded
// in the header/attribute itself stays unpadded.
const nlmsgAlign = 4

func alignUp(n int) int {
	return (n + nlmsgAlign - 1) &^ (nlmsgAlign - 1)
}

// Header mirrors struct nlmsghdr: 16 bytes of { length, type, flags, seq, pid }.
type Header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	Pid   uint32
}

// HeaderLen is the encoded size of a Header (NLMSG_HDRLEN).
const HeaderLen = unix.SizeofNlMsghdr // 16

func decodeHeader(b []byte) Header {
	return Header{
		Len:   binary.NativeEndian.Uint32(b[0:4]),
		Type:  binary.NativeEndian.Uint16(b[4:6]),
		Flags: binary.NativeEndian.Uint16(b[6:8]),
		Seq:   binary.NativeEndian.Uint32(b[8:12]),
		Pid:   binary.NativeEndian.Uint32(b[12:16]),
	}
}

func encodeHeader(b []byte, h Header) {
	binary.NativeEndian.PutUint32(b[0:4], h.Len)
	binary.NativeEndian.PutUint16(b[4:6], h.Type)
	binary.NativeEndian.PutUint16(b[6:8], h.Flags)
	binary.NativeEndian.PutUint32(b[8:12], h.Seq)
	binary.NativeEndian.PutUint32(b[12:16], h.Pid)
}

// Message is a view over one netlink message inside a receive buffer: the
// decoded header plus the raw bytes following it (family-specific fixed
// struct, then attributes), up to the header's advertised (unpadded) length.
// The Payload slice aliases the original buffer; it is only valid until the
// buffer is reused by the caller.
type Message struct {
	Header  Header
	Payload []byte
	// Raw is the full encoded message, header included — used when the
	// reconciler needs to clone-and-mutate a message verbatim (§4.5 route
	// handler, §9 design notes) rather than re-encode it attribute by
	// attribute and risk losing attributes it doesn't know about.
	Raw []byte
}

// Decoder produces a finite, forward-only sequence of Message views over a
// receive buffer (decode-iter, §4.1).
type Decoder struct {
	buf []byte
}

// NewDecoder starts decoding buf, which typically holds the bytes returned
// by one Transport.Receive call.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Next returns the next message, or ok=false once the buffer is exhausted.
// A message whose advertised length exceeds the remaining bytes yields
// ErrTruncated and stops iteration (the rest of the buffer is unusable).
func (d *Decoder) Next() (Message, bool, error) {
	if len(d.buf) == 0 {
		return Message{}, false, nil
	}
	if len(d.buf) < HeaderLen {
		return Message{}, false, ErrTruncated
	}

	hdr := decodeHeader(d.buf)
	msgLen := int(hdr.Len)
	if msgLen < HeaderLen || msgLen > len(d.buf) {
		return Message{}, false, ErrTruncated
	}

	raw := d.buf[:msgLen]
	payload := d.buf[HeaderLen:msgLen]

	advance := alignUp(msgLen)
	if advance > len(d.buf) {
		advance = len(d.buf)
	}
	d.buf = d.buf[advance:]

	return Message{Header: hdr, Payload: payload, Raw: raw}, true, nil
}
