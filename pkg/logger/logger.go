package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var defaultLogger *slog.Logger

// Options controls how the process-wide logger is built.
type Options struct {
	Env    string
	Level  string
	Format string
	// File enables a rotating log file next to stdout when set.
	File string
}

func Init(env string) {
	InitWithOptions(Options{Env: env})
}

func InitWithOptions(opts Options) {
	level := parseLevel(opts.Level)
	format := opts.Format
	if format == "" {
		if opts.Env == "production" {
			format = "json"
			if opts.Level == "" {
				level = slog.LevelInfo
			}
		} else {
			format = "text"
		}
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		file := opts.File
		if !strings.HasSuffix(file, ".log") {
			file += ".log"
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:  file,
			MaxSize:   50, // megabytes
			LocalTime: false,
			Compress:  true,
		})
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
