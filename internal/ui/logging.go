package ui

import (
	"fmt"
	"io"
	"os"
)

type Logger struct {
	Debug bool

	out io.Writer
	err io.Writer
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, out: os.Stdout, err: os.Stderr}
}

// NewLoggerTo writes every level to w.
func NewLoggerTo(w io.Writer, debug bool) *Logger {
	return &Logger{Debug: debug, out: w, err: w}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.out, "[DEBUG] "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	fmt.Fprintf(l.out, "[INFO] "+format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.err, "[WARN] "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.err, "[ERROR] "+format, args...)
}
