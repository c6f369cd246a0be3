//go:build !linux
// +build !linux

package socket

import (
	"fmt"
)

var errUnsupported = fmt.Errorf("only available on linux")

// Socket is a placeholder on platforms without a Bluetooth control channel.
type Socket struct{}

// Open is a dummy function for non-Linux platform.
func Open() (*Socket, error) {
	return nil, errUnsupported
}

func (s *Socket) Fd() int                     { return -1 }
func (s *Socket) Read(p []byte) (int, error)  { return 0, errUnsupported }
func (s *Socket) Write(p []byte) (int, error) { return 0, errUnsupported }
func (s *Socket) Close() error                { return nil }
