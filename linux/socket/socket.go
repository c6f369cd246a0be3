//go:build linux
// +build linux

package socket

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// hciDevNone addresses the control channel itself rather than one adapter.
const hciDevNone = 0xffff

// Socket is a raw HCI socket bound to the Bluetooth Management control
// channel. Reads and writes never block; a read with nothing queued returns
// unix.EAGAIN.
type Socket struct {
	fd   int
	done chan struct{}
	cmu  sync.Mutex
}

// Open creates a non-blocking, close-on-exec raw HCI socket and binds it to
// the device-independent control channel. The failing step is reported as an
// *os.SyscallError, reachable with errors.Cause.
func Open() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, unix.BTPROTO_HCI)
	if err != nil {
		return nil, errors.Wrap(os.NewSyscallError("socket", err), "can't create socket")
	}

	sa := unix.SockaddrHCI{Dev: hciDevNone, Channel: unix.HCI_CHANNEL_CONTROL}
	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(os.NewSyscallError("bind", err), "can't bind socket to control channel")
	}

	return newSocket(fd), nil
}

func newSocket(fd int) *Socket {
	return &Socket{fd: fd, done: make(chan struct{})}
}

// Fd returns the underlying file descriptor.
func (s *Socket) Fd() int {
	return s.fd
}

// Read performs a single non-blocking read(2).
func (s *Socket) Read(p []byte) (int, error) {
	if !s.isOpen() {
		return 0, io.EOF
	}

	n, err := unix.Read(s.fd, p)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, errors.Wrap(os.NewSyscallError("read", err), "can't read control socket")
	}
	return n, nil
}

// Write performs a single write(2). Partial writes are not resumed.
func (s *Socket) Write(p []byte) (int, error) {
	if !s.isOpen() {
		return 0, io.EOF
	}

	n, err := unix.Write(s.fd, p)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, errors.Wrap(os.NewSyscallError("write", err), "can't write control socket")
	}
	return n, nil
}

// Close releases the descriptor. Closing twice is a no-op.
func (s *Socket) Close() error {
	s.cmu.Lock()
	defer s.cmu.Unlock()

	select {
	case <-s.done:
		return nil

	default:
		close(s.done)
		err := unix.Close(s.fd)
		if err != nil {
			return errors.Wrap(os.NewSyscallError("close", err), "can't close control socket")
		}
		return nil
	}
}

func (s *Socket) isOpen() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
