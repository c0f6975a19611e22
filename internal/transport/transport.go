// Package transport owns the routing-netlink socket (§4.2): opening it,
// binding to the multicast groups the reconciler needs, sizing its send and
// receive buffers, and moving raw bytes to and from the kernel. It knows
// nothing about message semantics; that is the wire package's and the event
// handlers' job.
package transport

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/simula/dynmhs/internal/wire"
)

// minSendBuf and minRecvBuf are the §4.2 buffer-sizing floors: large enough
// that a bulk RTM_GETROUTE/RTM_GETRULE dump never back-pressures the kernel
// into dropping datagrams before this process drains its socket queue.
const (
	minSendBuf = 64 * 1024
	minRecvBuf = 1024 * 1024
)

// recvBufLen is the receive buffer size: 64 KiB, aligned to a multiple of
// the netlink header size. §4.2 calls out that 4 KiB silently truncates a
// multipart dump chunk on architectures with large page sizes; 64 KiB does
// not.
const recvBufLen = 64 * 1024

// multicastGroups are the six groups listed in §4.2: link state, generic
// notifications, and the v4/v6 address and route families.
const multicastGroups = unix.RTMGRP_LINK |
	unix.RTMGRP_NOTIFY |
	unix.RTMGRP_IPV4_IFADDR |
	unix.RTMGRP_IPV6_IFADDR |
	unix.RTMGRP_IPV4_ROUTE |
	unix.RTMGRP_IPV6_ROUTE

// Transport is a bound, buffer-sized AF_NETLINK/NETLINK_ROUTE socket.
type Transport struct {
	fd  int
	rcv [recvBufLen]byte
}

// Open creates and binds the socket per §4.2: AF_NETLINK/NETLINK_ROUTE,
// subscribed to the six multicast groups, with SO_SNDBUF and SO_RCVBUF
// raised to their floors.
func Open() (*Transport, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, minSendBuf); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: setsockopt SO_SNDBUF: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, minRecvBuf); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: setsockopt SO_RCVBUF: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: uint32(multicastGroups),
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: bind: %w", err)
	}

	return &Transport{fd: fd}, nil
}

// Fd returns the underlying socket descriptor, for use in a poll set.
func (t *Transport) Fd() int {
	return t.fd
}

// Send writes one fully-encoded message to the kernel.
func (t *Transport) Send(msg []byte) error {
	if err := unix.Send(t.fd, msg, 0); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Receive reads one datagram into the transport's owned buffer and returns
// a wire.Decoder view over it. The returned Decoder (and any Message/Attr
// slices obtained from it) alias the transport's buffer and are only valid
// until the next call to Receive.
//
// When nonblocking is true and no datagram is pending, Receive returns a
// Decoder over an empty slice and a nil error (§4.2: "returns empty on
// EWOULDBLOCK without error").
func (t *Transport) Receive(nonblocking bool) (*wire.Decoder, error) {
	flags := 0
	if nonblocking {
		flags = unix.MSG_DONTWAIT
	}

	n, _, err := unix.Recvfrom(t.fd, t.rcv[:], flags)
	if err != nil {
		if nonblocking && errors.Is(err, unix.EWOULDBLOCK) {
			return wire.NewDecoder(nil), nil
		}
		return nil, fmt.Errorf("transport: recvfrom: %w", err)
	}

	return wire.NewDecoder(t.rcv[:n]), nil
}

// Close closes the socket.
func (t *Transport) Close() error {
	return unix.Close(t.fd)
}
