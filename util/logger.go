package util

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	appLogger  *zap.Logger
	loggerOnce sync.Once
	loggerMu   sync.RWMutex
)

func newLogger() *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	switch os.Getenv("APPENV") {
	case "test":
		return zap.NewNop()
	case "dev", "development", "local":
		l, err = zap.NewDevelopment()
	default:
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Logger returns the process-wide structured logger. It is built lazily from
// APPENV: no-op in tests, development encoding for dev, JSON otherwise.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		loggerMu.Lock()
		if appLogger == nil {
			appLogger = newLogger()
		}
		loggerMu.Unlock()
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return appLogger
}

// SetLogger replaces the process-wide logger, e.g. with an observer in tests.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	appLogger = l
}
