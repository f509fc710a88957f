package logger

// NoopLogger отбрасывает все сообщения. Используется в тестах.
type NoopLogger struct{}

func NewNoop() *NoopLogger { return &NoopLogger{} }

func (NoopLogger) Debugf(format string, args ...any)            {}
func (NoopLogger) Infof(format string, args ...any)             {}
func (NoopLogger) Warnf(format string, args ...any)             {}
func (NoopLogger) Errorf(err error, format string, args ...any) {}
