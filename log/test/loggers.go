package test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rollkit/blockexec/log"
)

// TestLogger routes log lines to testing.T.
type TestLogger struct {
	mtx sync.Mutex
	T   *testing.T
	kv  []interface{}
}

var _ log.Logger = (*TestLogger)(nil)

// NewTestLogger returns a logger writing to t.
func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{T: t}
}

func (t *TestLogger) Debug(msg string, keyvals ...interface{}) {
	t.log("DEBUG: ", msg, keyvals)
}

func (t *TestLogger) Info(msg string, keyvals ...interface{}) {
	t.log("INFO:  ", msg, keyvals)
}

func (t *TestLogger) Warn(msg string, keyvals ...interface{}) {
	t.log("WARN:  ", msg, keyvals)
}

func (t *TestLogger) Error(msg string, keyvals ...interface{}) {
	t.log("ERROR: ", msg, keyvals)
}

func (t *TestLogger) With(keyvals ...interface{}) log.Logger {
	return &TestLogger{T: t.T, kv: append(append([]interface{}{}, t.kv...), keyvals...)}
}

func (t *TestLogger) log(level, msg string, keyvals []interface{}) {
	t.T.Helper()
	t.mtx.Lock()
	defer t.mtx.Unlock()
	args := append([]interface{}{level + msg}, t.kv...)
	t.T.Log(append(args, keyvals...)...)
}

// MockLogger records lines per level so tests can assert on them.
type MockLogger struct {
	mtx                                        sync.Mutex
	DebugLines, InfoLines, WarnLines, ErrLines []string
}

var _ log.Logger = (*MockLogger)(nil)

func (t *MockLogger) Debug(msg string, keyvals ...interface{}) {
	t.record(&t.DebugLines, msg, keyvals)
}

func (t *MockLogger) Info(msg string, keyvals ...interface{}) {
	t.record(&t.InfoLines, msg, keyvals)
}

func (t *MockLogger) Warn(msg string, keyvals ...interface{}) {
	t.record(&t.WarnLines, msg, keyvals)
}

func (t *MockLogger) Error(msg string, keyvals ...interface{}) {
	t.record(&t.ErrLines, msg, keyvals)
}

// With returns t itself; the mock does not track context.
func (t *MockLogger) With(...interface{}) log.Logger {
	return t
}

func (t *MockLogger) record(lines *[]string, msg string, keyvals []interface{}) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	*lines = append(*lines, fmt.Sprint(append([]interface{}{msg}, keyvals...)...))
}
