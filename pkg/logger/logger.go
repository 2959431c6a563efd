package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/synapse-ia/salesagent/internal/core"
)

const service = "salesagent"

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default (debug, or info in production).
	Level string
	// Output replaces stdout in production and the console writer elsewhere.
	Output io.Writer
}

func (o LoggerOpts) level() zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(o.Level))); err == nil && o.Level != "" {
		return lvl
	}
	if o.Environment.IsProduction() {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}

// Init installs the global logger. Production writes JSON lines tagged with
// the service name; other environments get a colored console with callers.
func Init(opts ...LoggerOpts) {
	o := LoggerOpts{Environment: core.Development}
	if len(opts) > 0 {
		o = opts[0]
	}

	var ctx zerolog.Context
	if o.Environment.IsProduction() {
		out := o.Output
		if out == nil {
			out = os.Stdout
		}
		ctx = zerolog.New(out).With().Timestamp().Str("service", service)
	} else {
		out := o.Output
		if out == nil {
			out = zerolog.NewConsoleWriter()
		}
		ctx = zerolog.New(out).With().Timestamp().Caller()
	}
	log.Logger = ctx.Logger().Level(o.level())
}

// With starts a child logger carrying extra fields.
func With() zerolog.Context {
	return log.Logger.With()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}
