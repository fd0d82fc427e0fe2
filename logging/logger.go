package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// GlobalLogger describes a Logger that is disabled by default and is enabled by the CLI on startup. Each
// package should create its own sub-logger from it, so log output is filterable per concern.
var GlobalLogger *Logger

// StructuredLogInfo describes a key-value mapping that can be used to log structured data alongside a
// message.
type StructuredLogInfo map[string]any

// Logger describes a logging object that emits structured logs to any number of arbitrary writers and,
// optionally, human-readable output to console.
type Logger struct {
	// level describes the log level events are filtered against.
	level zerolog.Level

	// multiLogger describes a logger used to output structured logs to any arbitrary channel(s).
	multiLogger zerolog.Logger

	// consoleLogger describes a logger used to output human-readable output to console.
	consoleLogger zerolog.Logger

	// writers describes the list of io.Writer objects where structured log output is sent.
	writers []io.Writer
}

// NewLogger will create a new Logger object with a specific log level. The Logger can output to console,
// if enabled, and output structured logs to any number of additional io.Writer channels.
func NewLogger(level zerolog.Level, consoleEnabled bool, writers ...io.Writer) *Logger {
	// The two base loggers are disabled until a writer or the console is attached, so that loggers
	// created before CLI setup never panic on use.
	baseMultiLogger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	baseConsoleLogger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	if len(writers) > 0 {
		baseMultiLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	}

	if consoleEnabled {
		consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}
		baseConsoleLogger = zerolog.New(consoleWriter).Level(level)
	}

	return &Logger{
		level:         level,
		multiLogger:   baseMultiLogger,
		consoleLogger: baseConsoleLogger,
		writers:       writers,
	}
}

// NewSubLogger will create a new Logger with unique context in the form of a key-value pair. The expected
// use of this function is for each package to have its own logger so that parsing of logs is "grep-able"
// based on some key.
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	subMultiLogger := l.multiLogger.With().Str(key, value).Logger()
	subConsoleLogger := l.consoleLogger.With().Str(key, value).Logger()
	return &Logger{
		level:         l.level,
		multiLogger:   subMultiLogger,
		consoleLogger: subConsoleLogger,
		writers:       l.writers,
	}
}

// AddWriter will add a writer to the list of channels where structured log output is sent, if it is not
// already present.
func (l *Logger) AddWriter(writer io.Writer) {
	for _, w := range l.writers {
		if writer == w {
			return
		}
	}
	l.writers = append(l.writers, writer)
	l.multiLogger = zerolog.New(zerolog.MultiLevelWriter(l.writers...)).Level(l.level).With().Timestamp().Logger()
}

// Level will get the log level of the Logger.
func (l *Logger) Level() zerolog.Level {
	return l.level
}

// SetLevel will update the log level of the Logger.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.level = level
	l.multiLogger = l.multiLogger.Level(level)
	l.consoleLogger = l.consoleLogger.Level(level)
}

// Debug is a wrapper function that will log a debug event.
func (l *Logger) Debug(args ...any) {
	msg, err, info := buildMsg(args...)
	l.emit(l.consoleLogger.Debug(), l.multiLogger.Debug(), msg, err, info)
}

// Info is a wrapper function that will log an info event.
func (l *Logger) Info(args ...any) {
	msg, err, info := buildMsg(args...)
	l.emit(l.consoleLogger.Info(), l.multiLogger.Info(), msg, err, info)
}

// Warn is a wrapper function that will log a warning event.
func (l *Logger) Warn(args ...any) {
	msg, err, info := buildMsg(args...)
	l.emit(l.consoleLogger.Warn(), l.multiLogger.Warn(), msg, err, info)
}

// Error is a wrapper function that will log an error event.
func (l *Logger) Error(args ...any) {
	msg, err, info := buildMsg(args...)
	l.emit(l.consoleLogger.Error(), l.multiLogger.Error(), msg, err, info)
}

// Panic is a wrapper function that will log a panic event and then panic.
func (l *Logger) Panic(args ...any) {
	msg, err, info := buildMsg(args...)
	l.emit(l.consoleLogger.Panic(), l.multiLogger.Panic(), msg, err, info)
}

// emit chains the optional error and structured log info onto both events and sends them off with the
// given message.
func (l *Logger) emit(consoleEvent *zerolog.Event, multiEvent *zerolog.Event, msg string, err error, info StructuredLogInfo) {
	if err != nil {
		// Stack traces are only attached to the structured stream; console output stays readable.
		consoleEvent.Err(err)
		multiEvent.Stack().Err(err)
	}
	if info != nil {
		consoleEvent.Any("info", info)
		multiEvent.Any("info", info)
	}
	consoleEvent.Msg(msg)
	multiEvent.Msg(msg)
}

// buildMsg takes a variadic list of arguments and splits it into a message string, an optional error, and
// optional structured log info. Only one error and one StructuredLogInfo can be provided per log message;
// all other arguments are stringified and joined into the message.
func buildMsg(args ...any) (string, error, StructuredLogInfo) {
	var (
		parts []string
		err   error
		info  StructuredLogInfo
	)
	for _, arg := range args {
		switch t := arg.(type) {
		case StructuredLogInfo:
			info = t
		case error:
			err = t
		default:
			parts = append(parts, fmt.Sprintf("%v", t))
		}
	}
	// Callers include their own spacing, so parts are concatenated without a separator.
	return strings.Join(parts, ""), err, info
}
