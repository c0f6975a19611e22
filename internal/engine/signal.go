package engine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// openSignalFd blocks SIGINT from ordinary delivery and returns a
// signalfd that reports it instead, so the main loop can wait on it
// alongside the netlink socket in one poll call (§4.7, §5: "no asynchronous
// signal handler logic is required").
func openSignalFd() (int, error) {
	var mask unix.Sigset_t
	addSignal(&mask, unix.SIGINT)

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, nil); err != nil {
		return -1, fmt.Errorf("engine: blocking SIGINT: %w", err)
	}

	fd, err := unix.Signalfd(-1, &mask, unix.SFD_CLOEXEC|unix.SFD_NONBLOCK)
	if err != nil {
		return -1, fmt.Errorf("engine: signalfd: %w", err)
	}
	return fd, nil
}

// addSignal sets signum's bit in a Sigset_t. x/sys/unix exposes Sigset_t as
// a raw bitmap (Val [16]uint64 on linux/amd64) with no constructor helper;
// signal numbers are 1-based.
func addSignal(set *unix.Sigset_t, signum unix.Signal) {
	bit := uint(signum) - 1
	set.Val[bit/64] |= 1 << (bit % 64)
}

// sizeofSignalfdSiginfo is struct signalfd_siginfo's fixed kernel ABI size
// (128 bytes, padded); x/sys/unix exposes the field layout via
// SignalfdSiginfo but no Sizeof constant.
const sizeofSignalfdSiginfo = 128

// drainSignalFd consumes one pending signalfd_siginfo record so the
// descriptor stops reporting readable after a SIGINT has been observed.
func drainSignalFd(fd int) error {
	var buf [sizeofSignalfdSiginfo]byte
	_, err := unix.Read(fd, buf[:])
	return err
}
