// Package logger configures the logrus logger shared by all components.
package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries a caller-supplied request id.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds a caller-supplied id.
const maxRequestIDLen = 64

// Options selects the output format and verbosity.
type Options struct {
	// Format is "text" for a local console or "json" for everything else.
	Format string
	Level  string
	Output io.Writer
}

// Logger is the root entry handed to each component; Module and WithRequest
// derive tagged entries from it.
type Logger struct {
	*logrus.Entry
}

// New builds a logger writing to opts.Output, or stdout when unset.
func New(opts Options) *Logger {
	base := logrus.New()

	if opts.Format == "" || opts.Format == "text" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	base.SetOutput(out)
	base.SetLevel(ParseLevel(opts.Level))

	return &Logger{Entry: logrus.NewEntry(base)}
}

// ParseLevel maps a config level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Module returns an entry tagged with the component name.
func (l *Logger) Module(name string) *logrus.Entry {
	return l.WithField("module", name)
}

// RequestID returns the request's id. A missing header, or one that is too
// long or holds anything but letters, digits, '.', '_' and '-', gets a fresh
// uuid instead.
func RequestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); validRequestID(id) {
		return id
	}
	return uuid.New().String()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range []byte(id) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// WithRequest attaches request metadata and returns an entry
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"req_id":     RequestID(r),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// Discard returns an entry that drops everything; used by tests.
func Discard() *logrus.Entry {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return logrus.NewEntry(base)
}
