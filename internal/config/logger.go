package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOptions selects level, format and destination of the global logger
type LogOptions struct {
	Level       string
	Format      string    // "json" or "console"
	Output      io.Writer // stdout when nil
	Service     string
	Environment string
}

// LogOptionsFrom builds LogOptions from the app section; a non-empty
// levelOverride wins over the configured level
func LogOptionsFrom(app AppConfig, levelOverride string) LogOptions {
	level := app.LogLevel
	if levelOverride != "" {
		level = levelOverride
	}
	return LogOptions{
		Level:       level,
		Format:      app.LogFormat,
		Service:     app.Name,
		Environment: app.Environment,
	}
}

// InitLogger configures log.Logger. Unknown levels fall back to info.
func InitLogger(opts LogOptions) {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Environment != "" && opts.Format != "console" {
		ctx = ctx.Str("env", opts.Environment)
	}
	log.Logger = ctx.Caller().Logger()

	log.Debug().
		Str("level", logLevel.String()).
		Str("format", opts.Format).
		Msg("Logger initialized")
}
