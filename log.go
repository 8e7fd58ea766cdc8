package qjni

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger sets the logger used by the bridge. A nil logger disables
// logging. The logger is named "qjni".
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l.Named("qjni"))
}

// Logger returns the bridge logger.
func Logger() *zap.Logger { return logger.Load() }

func log() *zap.Logger { return logger.Load() }
