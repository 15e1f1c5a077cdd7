// Package logger provides leveled, structured logging with secret masking.
// Oracle API keys travel through config and error messages; masking keeps
// them out of episode logs.
package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// secretPatterns match credential shapes that must never reach a log line.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(AIza[a-zA-Z0-9_-]{35})`),
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9]{20,})`),
	regexp.MustCompile(`(?i)(Bearer\s+[a-zA-Z0-9._-]+)`),
	regexp.MustCompile(`(?i)(api[_-]?key[=:]\s*["']?[a-zA-Z0-9_-]{16,}["']?)`),
	regexp.MustCompile(`(?i)(token[=:]\s*["']?[a-zA-Z0-9._-]{20,}["']?)`),
}

// secretFields are structured-field keys whose values are masked outright.
var secretFields = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"token":         true,
	"access_token":  true,
	"auth":          true,
	"authorization": true,
	"secret":        true,
	"password":      true,
}

type field struct {
	key   string
	value any
}

// Logger writes timestamped, leveled lines with optional prefix and
// structured fields. Fields render in the order they were attached.
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	prefix string
	fields []field
}

// New makes a logger writing to out at the given level.
func New(level Level, out io.Writer) *Logger {
	return &Logger{level: level, out: out}
}

var (
	std     *Logger
	stdOnce sync.Once
)

// Default returns the shared process logger (info level, stdout).
func Default() *Logger {
	stdOnce.Do(func() { std = New(LevelInfo, os.Stdout) })
	return std
}

// SetLevel changes the minimum severity that gets written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	l.out = out
	l.mu.Unlock()
}

func (l *Logger) clone() *Logger {
	return &Logger{
		level:  l.level,
		out:    l.out,
		prefix: l.prefix,
		fields: append([]field(nil), l.fields...),
	}
}

// WithPrefix returns a derived logger whose lines carry [prefix].
func (l *Logger) WithPrefix(prefix string) *Logger {
	next := l.clone()
	next.prefix = prefix
	return next
}

// WithField returns a derived logger with one extra field.
func (l *Logger) WithField(key string, value any) *Logger {
	next := l.clone()
	next.setField(key, value)
	return next
}

// WithFields returns a derived logger with the given fields attached.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	next := l.clone()
	// map order is random; sort for stable lines
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		next.setField(k, fields[k])
	}
	return next
}

func (l *Logger) setField(key string, value any) {
	for i := range l.fields {
		if l.fields[i].key == key {
			l.fields[i].value = value
			return
		}
	}
	l.fields = append(l.fields, field{key, value})
}

// redact hides all but the edges of a secret.
func redact(s string) string {
	if len(s) <= 8 {
		return "***MASKED***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// scrub replaces credential-shaped substrings in s.
func scrub(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllStringFunc(s, redact)
	}
	return s
}

// MaskSecrets scrubs credential-shaped substrings from s. Exposed for
// callers that build log-adjacent output themselves.
func MaskSecrets(s string) string {
	return scrub(s)
}

func renderValue(key string, value any) string {
	if secretFields[strings.ToLower(key)] {
		if s, ok := value.(string); ok {
			return redact(s)
		}
		return "***MASKED***"
	}
	if s, ok := value.(string); ok {
		return scrub(s)
	}
	return fmt.Sprintf("%v", value)
}

func (l *Logger) write(level Level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	if l.prefix != "" {
		b.WriteByte('[')
		b.WriteString(l.prefix)
		b.WriteString("] ")
	}
	b.WriteString(scrub(msg))
	for _, f := range l.fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(renderValue(f.key, f.value))
	}
	b.WriteByte('\n')

	fmt.Fprint(l.out, b.String())
}

// Debug logs at debug level. Printf-style args are optional.
func (l *Logger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.write(LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.write(LevelWarn, msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.write(LevelError, msg, args...) }
