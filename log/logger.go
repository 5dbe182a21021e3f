package log

import (
	logging "github.com/ipfs/go-log/v2"
)

// Logger is a key-value logger in the style of the Tendermint logger, with an
// additional Warn level used for rejected (as opposed to failed) input.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	// With returns a logger that prepends keyvals to every entry.
	With(keyvals ...interface{}) Logger
}

type sugared interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type zapLogger struct {
	s  sugared
	kv []interface{}
}

var _ Logger = (*zapLogger)(nil)

// NewLogger returns a Logger for the named subsystem backed by go-log.
func NewLogger(subsystem string) Logger {
	return &zapLogger{s: logging.Logger(subsystem)}
}

// Setup configures the global go-log backend. Format is "plain" or "json".
func Setup(level, format string) error {
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		return err
	}
	cfg := logging.GetConfig()
	cfg.Level = lvl
	cfg.Stderr = true
	cfg.Format = logging.PlaintextOutput
	if format == "json" {
		cfg.Format = logging.JSONOutput
	}
	logging.SetupLogging(cfg)
	return nil
}

func (l *zapLogger) Debug(msg string, keyvals ...interface{}) {
	l.s.Debugw(msg, l.merge(keyvals)...)
}

func (l *zapLogger) Info(msg string, keyvals ...interface{}) {
	l.s.Infow(msg, l.merge(keyvals)...)
}

func (l *zapLogger) Warn(msg string, keyvals ...interface{}) {
	l.s.Warnw(msg, l.merge(keyvals)...)
}

func (l *zapLogger) Error(msg string, keyvals ...interface{}) {
	l.s.Errorw(msg, l.merge(keyvals)...)
}

func (l *zapLogger) With(keyvals ...interface{}) Logger {
	return &zapLogger{s: l.s, kv: l.merge(keyvals)}
}

func (l *zapLogger) merge(keyvals []interface{}) []interface{} {
	if len(l.kv) == 0 {
		return keyvals
	}
	out := make([]interface{}, 0, len(l.kv)+len(keyvals))
	out = append(out, l.kv...)
	return append(out, keyvals...)
}

type nopLogger struct{}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (n nopLogger) With(...interface{}) Logger { return n }
