// Package astlog provides the structured logger used by pkg/ast. It
// mirrors the original Rust crate's
// internal::logging::ensure_rust_logger / update_level pair: one
// process-wide level, one target-tagged child logger per subsystem.
package astlog

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
)

var (
	level atomic.Int64
	once  sync.Once
	root  log.Logger
	glog  *log.GlogHandler
)

func init() {
	level.Store(int64(log.LevelInfo))
}

// Logger returns the package's root logger, lazily wiring a terminal
// handler the first time it is needed (parity with
// ensure_rust_logger's idempotent init).
func Logger() log.Logger {
	once.Do(func() {
		glog = log.NewGlogHandler(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelTrace, false))
		glog.Verbosity(slog.Level(level.Load()))
		root = log.NewLogger(glog)
	})
	return root
}

// New returns a child logger tagged the way the Rust crate tags log
// targets (e.g. "tevm::ast", "tevm::solc").
func New(target string, ctx ...interface{}) log.Logger {
	return Logger().With(append([]interface{}{"target", target}, ctx...)...)
}

// SetLevel updates the process-wide logging level, equivalent to
// internal::logging::update_level.
func SetLevel(lvl slog.Level) {
	level.Store(int64(lvl))
	Logger()
	glog.Verbosity(lvl)
}
