package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologAdapter wraps a zerolog.Logger to implement the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger from an existing zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) Logger {
	return &ZerologAdapter{logger: logger}
}

// NewConsoleLogger builds a zerolog backed Logger with human readable console
// output. Used by the CLI; library code receives it through the Logger
// interface only.
func NewConsoleLogger(level LogLevel, output io.Writer) Logger {
	if output == nil {
		output = os.Stderr
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: output}).
		Level(zerologLevel(level)).
		With().Timestamp().Logger()
	return &ZerologAdapter{logger: zl}
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) { emit(z.logger.Debug(), msg, args) }

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) { emit(z.logger.Info(), msg, args) }

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) { emit(z.logger.Warn(), msg, args) }

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) { emit(z.logger.Error(), msg, args) }

// emit attaches alternating key/value args as zerolog fields. A trailing key
// without a value is logged under "extra" rather than dropped.
func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "field"
		}
		ev = ev.Interface(key, args[i+1])
	}
	if len(args)%2 == 1 {
		ev = ev.Interface("extra", args[len(args)-1])
	}
	ev.Msg(msg)
}

func zerologLevel(l LogLevel) zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
