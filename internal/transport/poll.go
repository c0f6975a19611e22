package transport

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PollSet is the single suspension point of the engine's main loop (§5):
// a small, fixed set of file descriptors watched for read-readiness, with
// a bounded or indefinite wait.
type PollSet struct {
	fds []unix.PollFd
}

// NewPollSet builds a poll set over the given descriptors, each watched for
// POLLIN.
func NewPollSet(fds ...int) *PollSet {
	p := &PollSet{fds: make([]unix.PollFd, len(fds))}
	for i, fd := range fds {
		p.fds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}
	return p
}

// Wait blocks until a descriptor is readable or timeoutMillis elapses.
// timeoutMillis < 0 waits indefinitely, matching the main loop's use
// (§5: "gated... on the netlink socket and the signal descriptor, indefinite
// wait"). It returns nil both when a descriptor became readable and when
// the wait timed out; Ready reports which descriptors, if any, are
// readable. An EINTR restarts the wait.
func (p *PollSet) Wait(timeoutMillis int) error {
	for {
		_, err := unix.Poll(p.fds, timeoutMillis)
		if err == nil {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		return fmt.Errorf("transport: poll: %w", err)
	}
}

// Ready reports whether the descriptor at the given index (in the order
// passed to NewPollSet) was readable after the last Wait.
func (p *PollSet) Ready(index int) bool {
	return p.fds[index].Revents&unix.POLLIN != 0
}
