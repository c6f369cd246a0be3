//go:build linux
// +build linux

package socket

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// pair returns two connected sockets with the same non-blocking, message
// oriented behaviour as the control channel.
func pair(t *testing.T) (*Socket, *Socket) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	a, b := newSocket(fds[0]), newSocket(fds[1])
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestSocketReadWrite(t *testing.T) {
	a, b := pair(t)

	in := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x00}
	n, err := a.Write(in)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != len(in) {
		t.Fatalf("wrote %d bytes, expected %d", n, len(in))
	}

	buf := make([]byte, 64)
	n, err = b.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf[:n], in) {
		t.Fatalf("read [% x], expected [% x]", buf[:n], in)
	}
}

func TestSocketReadWouldBlock(t *testing.T) {
	_, b := pair(t)

	n, err := b.Read(make([]byte, 16))
	if n != 0 {
		t.Fatalf("expected 0 bytes, got %d", n)
	}

	se, ok := errors.Cause(err).(*os.SyscallError)
	if !ok {
		t.Fatalf("expected *os.SyscallError cause, got %T (%v)", errors.Cause(err), err)
	}
	if se.Syscall != "read" || se.Err != unix.EAGAIN {
		t.Fatalf("unexpected syscall error %v", se)
	}
}

func TestSocketClose(t *testing.T) {
	a, _ := pair(t)

	if err := a.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if _, err := a.Read(make([]byte, 4)); err != io.EOF {
		t.Fatalf("expected io.EOF reading closed socket, got %v", err)
	}
	if _, err := a.Write([]byte{1}); err != io.EOF {
		t.Fatalf("expected io.EOF writing closed socket, got %v", err)
	}
}
