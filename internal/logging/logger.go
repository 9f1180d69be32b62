package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is a small leveled wrapper around the standard logger.
type Logger struct {
	level  Level
	debug  *log.Logger
	info   *log.Logger
	warn   *log.Logger
	errorL *log.Logger
}

// New builds a logger writing info and debug to stdout and warnings and errors to stderr.
func New(level string) *Logger {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

func NewWithWriters(level string, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	return &Logger{
		level:  ParseLevel(level),
		debug:  log.New(out, "DEBUG: ", flags),
		info:   log.New(out, "INFO: ", flags),
		warn:   log.New(errOut, "WARN: ", flags),
		errorL: log.New(errOut, "ERROR: ", flags),
	}
}

// NewDiscard returns a logger that drops everything. Used by tests.
func NewDiscard() *Logger {
	return NewWithWriters("error", io.Discard, io.Discard)
}

func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(format string, v ...any) {
	if l.level > LevelDebug {
		return
	}
	l.debug.Printf(format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	if l.level > LevelInfo {
		return
	}
	l.info.Printf(format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	if l.level > LevelWarn {
		return
	}
	l.warn.Printf(format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.errorL.Printf(format, v...)
}
