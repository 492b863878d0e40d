package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the webhook service and the relay worker.
// Entries may carry key=value fields, appended after the message.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return levelNames[level]
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

// Fields are rendered as sorted key=value pairs.
type Fields map[string]interface{}

func (f Fields) String() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := fmt.Sprint(f[k])
		if strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}

// Entry is a logger bound to a set of fields.
type Entry struct {
	fields Fields
}

// With returns an Entry carrying the given fields.
func With(f Fields) *Entry {
	cp := make(Fields, len(f))
	for k, v := range f {
		cp[k] = v
	}
	return &Entry{fields: cp}
}

// With returns a copy of e extended with f.
func (e *Entry) With(f Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(f))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}
	return &Entry{fields: merged}
}

func (e *Entry) Debugf(format string, v ...interface{}) { write(LevelDebug, e.fields, format, v...) }
func (e *Entry) Infof(format string, v ...interface{})  { write(LevelInfo, e.fields, format, v...) }
func (e *Entry) Warnf(format string, v ...interface{})  { write(LevelWarn, e.fields, format, v...) }
func (e *Entry) Errorf(format string, v ...interface{}) { write(LevelError, e.fields, format, v...) }

func write(l Level, f Fields, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	msg := fmt.Sprintf(format, v...)
	logger.Printf("%s [%s] %s%s", time.Now().Format(time.RFC3339), strings.ToUpper(levelNames[l]), msg, f.String())
}

func Debugf(format string, v ...interface{}) { write(LevelDebug, nil, format, v...) }
func Infof(format string, v ...interface{})  { write(LevelInfo, nil, format, v...) }
func Warnf(format string, v ...interface{})  { write(LevelWarn, nil, format, v...) }
func Errorf(format string, v ...interface{}) { write(LevelError, nil, format, v...) }

func Fatalf(format string, v ...interface{}) {
	logger.Printf("%s [FATAL] %s", time.Now().Format(time.RFC3339), fmt.Sprintf(format, v...))
	os.Exit(1)
}

func Info(v string) { Infof("%s", v) }
func Warn(v string) { Warnf("%s", v) }
