package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/term"
)

// Format represents the log output format
type Format string

const (
	// FormatAuto picks console output on a terminal and JSON elsewhere
	FormatAuto    Format = "auto"
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// New creates a slog.Logger from string level and format options.
// Console output uses colored clog, JSON output is structured for
// log collectors.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}

	logLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	resolved := Format(format)
	if resolved == "" {
		resolved = FormatAuto
	}

	var handler slog.Handler
	switch resolved {
	case FormatConsole:
		handler = consoleHandler(logLevel, w)

	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})

	case FormatAuto:
		if isTerminal(w) {
			handler = consoleHandler(logLevel, w)
		} else {
			// JSON for non-terminal output (log collectors, CI)
			handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
				Level: logLevel,
			})
		}

	default:
		return nil, goerr.New("invalid log format", goerr.V("format", format))
	}

	return slog.New(handler), nil
}

func consoleHandler(level slog.Level, w io.Writer) slog.Handler {
	return clog.New(
		clog.WithWriter(w),
		clog.WithLevel(level),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "warning", "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, goerr.New("invalid log level", goerr.V("level", level))
	}
}
