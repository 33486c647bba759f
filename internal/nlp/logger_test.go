package nlp

import "testing"

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{
		t:      t,
		fields: make(map[string]interface{}),
	}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	allFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		allFields[k] = v
	}
	for k, v := range fields {
		allFields[k] = v
	}
	return allFields
}

// BenchmarkLogger is a minimal logger for benchmarks
type BenchmarkLogger struct{}

func (b *BenchmarkLogger) Info(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Warn(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Error(msg string, fields map[string]interface{}) {}
func (b *BenchmarkLogger) With(fields map[string]interface{}) Logger       { return b }
