package logger

import "go.uber.org/zap"

// NewNop returns a Logger that discards everything, for tests and other
// call sites that need a Logger but don't care about its output.
func NewNop() Logger {
	return &ZapLogger{zap: zap.NewNop()}
}
