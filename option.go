package mgmt

import (
	"fmt"
	"time"
)

// settings holds everything an Option can change. Only New applies options,
// so a constructed Transport keeps its settings for life.
type settings struct {
	chunkSize     int
	maxSize       int
	maxRetryTime  time.Duration
	retryInterval time.Duration
	logTimeouts   bool

	logger Logger
	dial   Dialer
}

func defaultSettings() settings {
	return settings{
		chunkSize:     DefaultChunkSize,
		maxSize:       DefaultMaxResponseSize,
		maxRetryTime:  DefaultMaxRetryTime,
		retryInterval: DefaultRetryInterval,
		logTimeouts:   true,
		logger:        GetLogger(),
		dial:          DialSocket,
	}
}

// An Option is a configuration function, which configures the transport.
type Option func(*settings) error

// OptChunkSize sets the byte count requested by each low-level read.
func OptChunkSize(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("invalid chunk size %d", n)
		}
		s.chunkSize = n
		return nil
	}
}

// OptMaxResponseSize sets the largest response Read will accumulate.
func OptMaxResponseSize(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("invalid max response size %d", n)
		}
		s.maxSize = n
		return nil
	}
}

// OptMaxRetryTime sets the total time Read polls before timing out.
func OptMaxRetryTime(d time.Duration) Option {
	return func(s *settings) error {
		if d < 0 {
			return fmt.Errorf("invalid max retry time %v", d)
		}
		s.maxRetryTime = d
		return nil
	}
}

// OptRetryInterval sets the pause between read attempts.
func OptRetryInterval(d time.Duration) Option {
	return func(s *settings) error {
		if d <= 0 {
			return fmt.Errorf("invalid retry interval %v", d)
		}
		s.retryInterval = d
		return nil
	}
}

// OptLogTimeouts controls whether a Read timeout is logged at error level
// (the default) or only at debug. Callers that poll for unsolicited events
// expect most reads to time out.
func OptLogTimeouts(enable bool) Option {
	return func(s *settings) error {
		s.logTimeouts = enable
		return nil
	}
}

// OptLogger overrides the package logger for one transport.
func OptLogger(l Logger) Option {
	return func(s *settings) error {
		if l == nil {
			return fmt.Errorf("nil logger")
		}
		s.logger = l
		return nil
	}
}

// OptDialer replaces the kernel control socket, mostly for tests.
func OptDialer(d Dialer) Option {
	return func(s *settings) error {
		if d == nil {
			return fmt.Errorf("nil dialer")
		}
		s.dial = d
		return nil
	}
}
