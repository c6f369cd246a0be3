package mgmt

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger receives the transport's diagnostics: connect and payload tracing
// (with hex dumps) at debug, oversize responses at warn, and failed
// socket/bind/read/write calls with their errno at error.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})

	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})

	// ChildLogger returns a Logger that adds tags to every entry. A
	// connected transport tags its entries with the socket's "fd".
	ChildLogger(tags map[string]interface{}) Logger
}

var (
	pkgLogger Logger
	pkgLogMu  sync.Mutex
)

// SetLogger replaces the package logger. Transports pick it up in New unless
// given OptLogger; existing transports keep the logger they started with.
func SetLogger(l Logger) {
	pkgLogMu.Lock()
	defer pkgLogMu.Unlock()
	pkgLogger = l
}

// GetLogger returns the package logger, creating a logrus text logger on
// stderr at info level on first use. Payload hex dumps are only visible after
// SetLogLevelMax.
func GetLogger() Logger {
	pkgLogMu.Lock()
	defer pkgLogMu.Unlock()

	if pkgLogger == nil {
		pkgLogger = NewLogger(&logrus.Logger{
			Formatter: &logrus.TextFormatter{DisableTimestamp: true},
			Level:     logrus.InfoLevel,
			Out:       os.Stderr,
			Hooks:     make(logrus.LevelHooks),
		})
	}
	return pkgLogger
}

// SetLogLevelMax turns on trace output on the package logger, which includes
// hex dumps of everything written to and read from the control channel.
func SetLogLevelMax() {
	l := GetLogger()

	lg, ok := l.(*logrusLogger)
	if !ok {
		l.Error("non-logrus logger, don't know how to set level")
		return
	}
	lg.Entry.Logger.SetLevel(logrus.TraceLevel)
}

// NewLogger wraps an existing logrus logger, e.g. one configured by a CLI.
func NewLogger(l *logrus.Logger) Logger {
	return &logrusLogger{Entry: logrus.NewEntry(l)}
}

type logrusLogger struct {
	*logrus.Entry
}

func (l *logrusLogger) ChildLogger(tags map[string]interface{}) Logger {
	return &logrusLogger{l.Entry.WithFields(tags)}
}
