package langprompt

import (
	"fmt"
	"log"
	"os"
)

// Logger receives structured debug output. The SDK logs nothing unless a
// Logger is provided; bring your own implementation or use NewSimpleLogger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes leveled key=value lines to stderr.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger returns a console logger suitable for development.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.New(os.Stderr, "langprompt ", log.LstdFlags|log.Lmsgprefix),
	}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.write("DEBUG", msg, keysAndValues) }
func (l *SimpleLogger) Info(msg string, keysAndValues ...any)  { l.write("INFO", msg, keysAndValues) }
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any)  { l.write("WARN", msg, keysAndValues) }
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.write("ERROR", msg, keysAndValues) }

func (l *SimpleLogger) write(level, msg string, keysAndValues []any) {
	line := level + " " + msg
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 == 1 {
		line += fmt.Sprintf(" %v", keysAndValues[len(keysAndValues)-1])
	}
	l.logger.Print(line)
}
