package wire

import "errors"

// ErrTruncated is returned when a message or attribute's advertised length
// exceeds the bytes actually available in the buffer being decoded.
var ErrTruncated = errors.New("wire: truncated netlink message")

// ErrOverflow is returned by Encoder when appending would exceed the
// caller-supplied maximum message size.
var ErrOverflow = errors.New("wire: encoded message exceeds maximum size")
