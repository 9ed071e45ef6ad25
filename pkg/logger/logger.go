package logger

import (
	"log"
	"strings"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	level int
}

func NewLogger(level int) *defaultLogger {
	return &defaultLogger{level: level}
}

// ParseLevel converts a level name from configuration. Unknown names fall back to INFO.
func ParseLevel(name string) int {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "silence", "off":
		return SILENCE
	default:
		return INFO
	}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	l.printf(DEBUG, "[DEBUG] ", msg, a...)
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	l.printf(INFO, "[INFO] ", msg, a...)
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	l.printf(WARNING, "[WARN] ", msg, a...)
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	l.printf(ERROR, "[ERROR] ", msg, a...)
}

func (l *defaultLogger) printf(level int, prefix, msg string, a ...any) {
	if l.level <= level {
		log.Printf(prefix+msg+"\n", a...)
	}
}
