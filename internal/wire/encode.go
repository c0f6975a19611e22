package wire

import (
	"encoding/binary"
	"fmt"
)

// Encoder builds one owned, correctly-padded netlink message (emit, §4.1).
// It is not safe for concurrent use; the engine is single-threaded (§5) and
// never needs it to be.
type Encoder struct {
	buf    []byte
	maxLen int
}

// NewEncoder starts building a message bounded to maxLen bytes — the
// transmit buffer size invariant from §3 ("The request queue never contains
// a message whose length exceeds the transmit buffer size").
func NewEncoder(maxLen int) *Encoder {
	e := &Encoder{maxLen: maxLen}
	e.buf = make([]byte, HeaderLen, min(maxLen, 256))
	return e
}

// PutHeader reserves and pre-fills the 16-byte message header. Len is
// recomputed by Finish once the full message body is known, so any value
// passed here is overwritten.
func (e *Encoder) PutHeader(h Header) {
	encodeHeader(e.buf[:HeaderLen], h)
}

// PutFamily appends the family-specific fixed struct (ifinfomsg, ifaddrmsg,
// rtmsg, fib_rule_hdr, ...) that follows the header. Callers encode the
// struct's fixed-width fields themselves (they're opaque, non-TLV bytes) and
// pass the resulting slice here.
func (e *Encoder) PutFamily(b []byte) error {
	return e.append(b)
}

// PutAttr appends one attribute, aligning its start and padding its value up
// to a 4-byte boundary; the length recorded in the attribute header is the
// unpadded value length plus the 4-byte attribute header itself.
func (e *Encoder) PutAttr(attrType uint16, value []byte) error {
	length := attrHeaderLen + len(value)
	var hdr [attrHeaderLen]byte
	binary.NativeEndian.PutUint16(hdr[0:2], uint16(length))
	binary.NativeEndian.PutUint16(hdr[2:4], attrType)

	if err := e.append(hdr[:]); err != nil {
		return err
	}
	if err := e.append(value); err != nil {
		return err
	}

	pad := alignUp(length) - length
	if pad > 0 {
		if err := e.append(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

// PutUint32Attr is a convenience wrapper for the common 32-bit attribute
// shape (RTA_TABLE, RTA_OIF, FRA_PRIORITY, FRA_TABLE, ...).
func (e *Encoder) PutUint32Attr(attrType uint16, value uint32) error {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], value)
	return e.PutAttr(attrType, b[:])
}

func (e *Encoder) append(b []byte) error {
	if len(e.buf)+len(b) > e.maxLen {
		return fmt.Errorf("%w: would grow to %d bytes, limit %d", ErrOverflow, len(e.buf)+len(b), e.maxLen)
	}
	e.buf = append(e.buf, b...)
	return nil
}

// Finish patches the header's length field with the final encoded size and
// returns the owned buffer. The Encoder must not be reused afterward.
func (e *Encoder) Finish() []byte {
	binary.NativeEndian.PutUint32(e.buf[0:4], uint32(len(e.buf)))
	return e.buf
}

// CloneMessage copies a decoded message's raw bytes into a new owned buffer.
// Used by the reconciler to preserve every attribute of an inbound message
// it does not itself understand (§9: "resist decode then re-encode").
func CloneMessage(raw []byte) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

// RewriteHeader overwrites the header portion of a cloned raw message with
// new type/flags/seq (and Len, recomputed to the buffer's own length),
// leaving the family struct and every attribute — known or unknown — byte
// for byte as received.
func RewriteHeader(raw []byte, msgType, flags uint16, seq uint32) {
	encodeHeader(raw[:HeaderLen], Header{
		Len:   uint32(len(raw)),
		Type:  msgType,
		Flags: flags,
		Seq:   seq,
		Pid:   0,
	})
}

// RewriteAttrValue finds the first attribute of attrType in raw (whose
// family struct is familyStructSize bytes) and overwrites its value in
// place. The new value must be exactly as long as the old one — true for
// every fixed-width attribute this daemon rewrites (RTA_TABLE is always a
// 4-byte uint32) — so the rest of the message, including attributes this
// code never parses, is untouched. Returns false if no such attribute was
// found.
func RewriteAttrValue(raw []byte, familyStructSize int, attrType uint16, value []byte) (bool, error) {
	if HeaderLen+familyStructSize > len(raw) {
		return false, ErrTruncated
	}
	payload := raw[HeaderLen:]
	cursor := familyStructSize

	for cursor+attrHeaderLen <= len(payload) {
		length := int(binary.NativeEndian.Uint16(payload[cursor : cursor+2]))
		atype := binary.NativeEndian.Uint16(payload[cursor+2:cursor+4]) & nlaTypeMask
		if length < attrHeaderLen || cursor+length > len(payload) {
			return false, ErrTruncated
		}

		if atype == attrType {
			valStart := cursor + attrHeaderLen
			valLen := length - attrHeaderLen
			if valLen != len(value) {
				return false, fmt.Errorf("wire: attribute %d value size mismatch: have %d, want %d", attrType, valLen, len(value))
			}
			copy(payload[valStart:valStart+valLen], value)
			return true, nil
		}

		cursor += alignUp(length)
	}
	return false, nil
}
