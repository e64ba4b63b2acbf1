package interfaces

// Logger is the minimal structured-logging contract shared across the scan
// pipeline. Packages accept it instead of a concrete logger so the sink can
// differ between the service binary and tests.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger whose fields are attached to every entry.
	With(fields ...Field) Logger
}

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}
