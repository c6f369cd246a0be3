package mgmt

import (
	"context"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/rigado/mgmt/linux/socket"
)

const (
	DefaultChunkSize       = 1024
	DefaultMaxResponseSize = 64 * 1024
	DefaultMaxRetryTime    = time.Second
	DefaultRetryInterval   = 10 * time.Millisecond
)

//go:generate mockgen -destination=mocks/conn.go -package=mocks github.com/rigado/mgmt Conn

// Conn is an open handle on the control channel. Read must not block: with
// nothing queued it returns 0 and an error (usually EAGAIN) or 0, nil.
type Conn interface {
	io.ReadWriteCloser
	Fd() int
}

// Dialer opens a new Conn.
type Dialer func() (Conn, error)

// DialSocket opens the kernel's Bluetooth Management control channel.
func DialSocket() (Conn, error) {
	s, err := socket.Open()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Transport moves opaque byte buffers to and from the Bluetooth Management
// control channel. It knows nothing about the messages it carries.
//
// A Transport is not safe for concurrent use; callers serialize Read, Write
// and Disconnect themselves.
type Transport struct {
	conn Conn
	cfg  settings
	log  Logger
}

// New returns a disconnected Transport. Options are applied here only; the
// resulting settings cannot be changed afterwards.
func New(opts ...Option) (*Transport, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Transport{cfg: cfg, log: cfg.logger}, nil
}

// Connect opens the control channel, dropping any handle already held.
// On failure the transport is left disconnected.
func (t *Transport) Connect() error {
	t.Disconnect()

	c, err := t.cfg.dial()
	if err != nil {
		op := "Connect"
		if sc := syscallOf(err); sc != "" {
			op = fmt.Sprintf("Connect(%s)", sc)
		}
		return t.logErr(newError(KindConnection, op, err))
	}

	t.conn = c
	t.log = t.cfg.logger.ChildLogger(map[string]interface{}{"fd": c.Fd()})
	t.log.Debugf("connected to HCI control socket (file descriptor = %d)", c.Fd())
	return nil
}

// IsConnected reports whether a handle is held.
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Disconnect releases the handle. It is a no-op when not connected.
func (t *Transport) Disconnect() {
	if !t.IsConnected() {
		return
	}

	if err := t.conn.Close(); err != nil {
		t.log.Warnf("disconnect: %v", err)
	}
	t.conn = nil
	t.log = t.cfg.logger
}

// Close disconnects and always returns nil.
func (t *Transport) Close() error {
	t.Disconnect()
	return nil
}

// Read collects one response from the control channel.
//
// Chunks are appended until a read comes back empty after data has arrived,
// which ends the message. While nothing has arrived Read keeps polling every
// retry interval until the retry budget is spent or ctx is done. An empty
// read always ends the message, so a response the kernel delivers in several
// pieces with a gap between them comes back truncated.
//
// On failure the returned slice holds whatever was accumulated.
func (t *Transport) Read(ctx context.Context) ([]byte, error) {
	if !t.IsConnected() {
		return nil, t.logErr(&Error{Kind: KindConnection, Op: "read", Errno: syscall.EBADF})
	}

	var rsp []byte
	var lastErr error
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	chunk := make([]byte, t.cfg.chunkSize)
	elapsed := time.Duration(0)

	for elapsed < t.cfg.maxRetryTime {
		if ctx.Err() != nil {
			return t.canceled(ctx, rsp)
		}

		n, err := t.conn.Read(chunk)
		if n > 0 {
			if len(rsp)+n > t.cfg.maxSize {
				t.log.Warnf("response has exceeded maximum size (%d + %d > %d)", len(rsp), n, t.cfg.maxSize)
				return rsp, &Error{Kind: KindOversize, Op: "read"}
			}
			rsp = append(rsp, chunk[:n]...)
		} else {
			if err != nil {
				lastErr = err
			}
			if len(rsp) != 0 {
				return t.received(rsp), nil
			}
		}

		if timer == nil {
			timer = time.NewTimer(t.cfg.retryInterval)
		} else {
			timer.Reset(t.cfg.retryInterval)
		}

		select {
		case <-ctx.Done():
			return t.canceled(ctx, rsp)
		case <-timer.C:
		}
		elapsed += t.cfg.retryInterval
	}

	e := newError(KindTimeout, "read(header)", lastErr)
	if !t.cfg.logTimeouts {
		t.log.Debug(e.Error())
		return rsp, e
	}
	return rsp, t.logErr(e)
}

func (t *Transport) canceled(ctx context.Context, rsp []byte) ([]byte, error) {
	if len(rsp) != 0 {
		return t.received(rsp), nil
	}
	t.log.Debug("read canceled before any data arrived")
	return rsp, &Error{Kind: KindCanceled, Op: "read", Err: ctx.Err()}
}

func (t *Transport) received(rsp []byte) []byte {
	t.log.Debugf("  + Read %d bytes", len(rsp))
	t.log.Debug(HexDump(rsp))
	return rsp
}

// Write sends b with a single write. Anything short of the full payload is a
// failure; a partial write is not resumed.
func (t *Transport) Write(b []byte) error {
	if !t.IsConnected() {
		return t.logErr(&Error{Kind: KindConnection, Op: "write", Errno: syscall.EBADF})
	}

	t.log.Debugf("  + Writing %d bytes", len(b))
	t.log.Debug(HexDump(b))

	n, err := t.conn.Write(b)
	if n != len(b) {
		e := newError(KindWriteShortfall, "write", err)
		e.Written = n
		return t.logErr(e)
	}
	return nil
}

// logErr records e at error level and returns it.
func (t *Transport) logErr(e *Error) error {
	t.log.Error(e.Error())
	return e
}
