// Package logging configures the process-wide logrus logger. The TUI owns
// stdout, so entries go to a rotating file.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is shared by every package. It discards output until Init runs.
var Logger = newDiscardLogger()

// Options controls where and how much to log.
type Options struct {
	Path       string
	Level      string
	SystemName string
	Verbose    bool
}

// Formatter writes one line per entry with a unique event ID.
type Formatter struct {
	SystemName string
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s level=%s source=%s event=%s msg=%q",
		entry.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		strings.ToUpper(entry.Level.String()),
		f.SystemName,
		uuid.New().String(),
		entry.Message,
	)

	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, " caller=%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Init points Logger at a rotating log file and returns a closer for it.
func Init(opts Options) (io.Closer, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("log path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	level, err := logrus.ParseLevel(defaultString(opts.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", opts.Level, err)
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}

	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	configure(Logger, file, level, defaultString(opts.SystemName, "forgedesk"))
	return file, nil
}

// InitWriter sends log output to w. Used by CLI subcommands with --verbose
// and by tests.
func InitWriter(w io.Writer, level logrus.Level) {
	configure(Logger, w, level, "forgedesk")
}

func configure(l *logrus.Logger, w io.Writer, level logrus.Level, system string) {
	l.SetOutput(w)
	l.SetFormatter(&Formatter{SystemName: system})
	l.SetLevel(level)
	l.SetReportCaller(level >= logrus.DebugLevel)
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
