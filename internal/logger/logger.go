// Package logger builds the zerolog loggers used by the command line and
// the MCP server. Logs always go to a caller supplied writer, normally
// stderr, since stdout carries MCP traffic and reports.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Environment variables read by FromEnv.
const (
	LevelEnv  = "GRAPHENE_METRICS_LOG_LEVEL"
	FormatEnv = "GRAPHENE_METRICS_LOG_FORMAT"
)

// New returns a timestamped logger writing to w at level. With console set
// the output is human readable, otherwise one JSON object per line.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// FromEnv returns a logger configured from GRAPHENE_METRICS_LOG_LEVEL
// (debug, info, warn or error; info by default) and
// GRAPHENE_METRICS_LOG_FORMAT ("json" for JSON lines, console otherwise).
func FromEnv(w io.Writer) zerolog.Logger {
	level, err := ParseLevel(os.Getenv(LevelEnv))
	console := !strings.EqualFold(os.Getenv(FormatEnv), "json")
	log := New(w, level, console)
	if err != nil {
		log.Warn().Err(err).Str("variable", LevelEnv).Msg("Ignoring invalid log level")
	}
	return log
}

// ParseLevel parses a level name. An empty name gives info; an unknown one
// gives info and an error.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.InfoLevel, err
	}
	return level, nil
}
