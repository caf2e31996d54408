// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dentrec/dentrec/internal/config"
)

// New returns a zerolog logger writing JSON to stdout, or a console writer in
// development. When LOG_FILE is set, the same JSON lines also go to a rotated
// file; the returned closer flushes and closes it and is never nil.
func New(cfg *config.Config) (zerolog.Logger, io.Closer) {
	return build(cfg, os.Stdout)
}

func build(cfg *config.Config, stdout io.Writer) (zerolog.Logger, io.Closer) {
	var console io.Writer = stdout
	if cfg.IsDev() {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.Kitchen}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := zerolog.New(out).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", "dentrec").
		Logger()
	return logger, closer
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
