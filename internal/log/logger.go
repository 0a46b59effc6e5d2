package log

import (
	"go.uber.org/zap"
)

var base = zap.NewNop()

// Init builds the process logger (production encoding when prod is true)
// and installs it as the package default. Safe to call more than once;
// the last call wins.
func Init(prod bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if prod {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	base = l
	return l, nil
}

// L returns the process logger. Before Init it is a nop logger, so
// packages may log unconditionally.
func L() *zap.Logger { return base }

// Sync flushes buffered entries; called on shutdown.
func Sync() { _ = base.Sync() }
