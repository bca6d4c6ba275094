package oplog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const lastOperationFile = "last-operation.log"

// Logger is the append-only, human-readable event trail of one operation.
// Every line goes to the operation's own file and to a shared
// "last operation" file that always reflects the most recent trade.
type Logger struct {
	mu    sync.Mutex
	files []*os.File
}

// New opens <dir>/<name>.log for appending and truncates the shared
// last-operation file.
func New(dir, name string) (*Logger, error) {
	own, err := os.OpenFile(filepath.Join(dir, name+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open operation log: %w", err)
	}
	last, err := os.OpenFile(filepath.Join(dir, lastOperationFile), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = own.Close()
		return nil, fmt.Errorf("open last-operation log: %w", err)
	}
	return &Logger{files: []*os.File{own, last}}, nil
}

// NewDiscard returns a logger that drops everything. Used by tests.
func NewDiscard() *Logger {
	return &Logger{}
}

func (l *Logger) Log(format string, args ...any) {
	l.write("INFO ", format, args...)
}

func (l *Logger) Success(format string, args ...any) {
	l.write("OK   ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write("WARN ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write("ERROR", format, args...)
}

func (l *Logger) LineBreak() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		_, _ = f.WriteString("\n")
	}
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}

func (l *Logger) write(level, format string, args ...any) {
	line := fmt.Sprintf("%s | %s | %s\n",
		time.Now().Format("15:04:05.000"), level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		// a tick may race a Close; a failed write on a closed file is fine
		_, _ = f.WriteString(line)
	}
}
