package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wallet/config"
)

type Type uint8

const (
	ConsoleLogger Type = iota
	JSONLogger
)

var (
	Root  = zerolog.Nop()
	Store = zerolog.Nop()
	Web   = zerolog.Nop()
	MQ    = zerolog.Nop()
	DB    = zerolog.Nop()
)

// Options for Init
type Options struct {
	Level zerolog.Level
	Type  Type
}

func ParseLogLevel(level string) (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(level))
}

func ParseType(s string) Type {
	if strings.EqualFold(s, "json") {
		return JSONLogger
	}
	return ConsoleLogger
}

// Init sets up the root logger and the per-component loggers derived from it.
// Until Init is called every logger discards its output.
func Init(opts Options) {
	var base zerolog.Logger
	switch opts.Type {
	case ConsoleLogger:
		base = zerolog.New(newConsoleWriter())
	default:
		base = zerolog.New(os.Stdout)
	}
	Root = base.Level(opts.Level).With().Timestamp().Str("app", config.AppName).Logger()
	Store = Root.With().Str("component", "store").Logger()
	Web = Root.With().Str("component", "web").Logger()
	MQ = Root.With().Str("component", "mq").Logger()
	DB = Root.With().Str("component", "db").Logger()
}

func newConsoleWriter() zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-5s|", i))
	}
	return cw
}
