package wire

import "encoding/binary"

// attrHeaderLen is RTA/NLA's 4-byte { length, type } prefix.
const attrHeaderLen = 4

// nlaTypeMask strips the NLA_F_NESTED and NLA_F_NET_BYTEORDER high bits that
// the kernel sometimes sets on an attribute's type field; callers compare
// against the bare RTA_*/IFLA_*/FRA_* constants.
const nlaTypeMask = 0x3fff

// Attr is one decoded attribute record: an opaque type and its unpadded
// value bytes.
type Attr struct {
	Type  uint16
	Value []byte
}

// AttrIter produces a finite, forward-only sequence of Attr records
// following a message's family-specific fixed struct (attr-iter, §4.1).
// Attributes are returned regardless of type; skipping unknown types is the
// caller's responsibility (forward compatibility, §4.1).
type AttrIter struct {
	buf []byte
}

// NewAttrIter starts iterating the attributes in payload that follow a
// family-specific fixed struct of familyStructSize bytes.
func NewAttrIter(payload []byte, familyStructSize int) *AttrIter {
	if familyStructSize > len(payload) {
		familyStructSize = len(payload)
	}
	return &AttrIter{buf: payload[familyStructSize:]}
}

// Next returns the next attribute, or ok=false once the buffer is exhausted.
func (it *AttrIter) Next() (Attr, bool, error) {
	if len(it.buf) == 0 {
		return Attr{}, false, nil
	}
	if len(it.buf) < attrHeaderLen {
		return Attr{}, false, ErrTruncated
	}

	length := int(binary.NativeEndian.Uint16(it.buf[0:2]))
	atype := binary.NativeEndian.Uint16(it.buf[2:4])
	if length < attrHeaderLen || length > len(it.buf) {
		return Attr{}, false, ErrTruncated
	}

	value := it.buf[attrHeaderLen:length]

	advance := alignUp(length)
	if advance > len(it.buf) {
		advance = len(it.buf)
	}
	it.buf = it.buf[advance:]

	return Attr{Type: atype & nlaTypeMask, Value: value}, true, nil
}

// Attrs drains it into a slice. Convenience for handlers that want random
// access instead of manual iteration.
func Attrs(it *AttrIter) ([]Attr, error) {
	var out []Attr
	for {
		a, ok, err := it.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, a)
	}
}
