package log

// Logger is the logging surface used across the keypad service.
// Implementations must be safe for concurrent use: the publisher logs from its
// timer goroutine while handlers log from request goroutines.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	// WithField returns a Logger that appends key=value to every entry.
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}
