// Package debug provides conditional debug logging for lw.
//
// Debug logging is enabled by setting the LW_DEBUG environment variable or
// passing --debug:
//
//	LW_DEBUG=1 LW_DEBUG_FILE=/tmp/lw.log lw
//
// The walkthrough owns the terminal while it runs, so LW_DEBUG_FILE is the
// usual way to read the output. Without it messages go to stderr.
// When disabled (default), all debug functions are no-ops.
//
// Usage:
//
//	import "github.com/vanderheijden86/loanwalk/pkg/debug"
//
//	func LoadFixtures(path string) (*Fixtures, error) {
//	    defer debug.LogEnterExit("demo.LoadFixtures")()
//	    debug.Log("reading %s", path)
//	}
package debug

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// enabled is true when LW_DEBUG is set or SetEnabled(true) was called
	enabled atomic.Bool
	// logger is built lazily the first time logging is switched on
	logger atomic.Pointer[zap.SugaredLogger]
)

func init() {
	if os.Getenv("LW_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of debug logging.
// Turning it on builds the logger if none exists yet.
func SetEnabled(e bool) {
	if e && logger.Load() == nil {
		logger.Store(newLogger())
	}
	enabled.Store(e)
}

// SetOutput routes debug output to w and enables logging.
// Tests use it to capture messages.
func SetOutput(w io.Writer) {
	logger.Store(newCoreLogger(zapcore.AddSync(w)))
	enabled.Store(true)
}

// Sync flushes buffered output. Call it before the process exits.
func Sync() {
	if l := logger.Load(); l != nil {
		_ = l.Sync()
	}
}

func newLogger() *zap.SugaredLogger {
	path := os.Getenv("LW_DEBUG_FILE")
	if path == "" {
		return newCoreLogger(zapcore.Lock(os.Stderr))
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[LW_DEBUG] cannot open %s: %v\n", path, err)
		return newCoreLogger(zapcore.Lock(os.Stderr))
	}
	return l.Named("lw").Sugar()
}

func newCoreLogger(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, zapcore.DebugLevel)
	return zap.New(core).Named("lw").Sugar()
}

func current() *zap.SugaredLogger {
	if !enabled.Load() {
		return nil
	}
	return logger.Load()
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if l := current(); l != nil {
		l.Debugf(format, args...)
	}
}

// Warn writes a message about a failure that was recovered or swallowed.
func Warn(format string, args ...any) {
	if l := current(); l != nil {
		l.Warnf(format, args...)
	}
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if l := current(); l != nil {
		l.Debugw(name, "took", d)
	}
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	}
func LogEnterExit(name string) func() {
	l := current()
	if l == nil {
		return func() {}
	}
	l.Debugf("-> %s", name)
	start := time.Now()
	return func() {
		l.Debugf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if l := current(); l != nil {
		l.Debugf("%s: %T = %+v", name, v, v)
	}
}
