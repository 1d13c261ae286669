// Package logging builds the zerolog logger shared by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/config"
)

// New returns a logger writing to w at the configured level. Format "json"
// always writes JSON lines, "console" always writes human-readable output,
// and "auto" picks console output when w is a terminal.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log.level: %w", err)
		}
		level = l
	}

	var out io.Writer
	switch strings.ToLower(cfg.Format) {
	case "json":
		out = w
	case "console":
		out = consoleWriter(w)
	case "", "auto":
		if isTerminal(w) {
			out = consoleWriter(w)
		} else {
			out = w
		}
	default:
		return zerolog.Nop(), fmt.Errorf("log.format %q: want json, console or auto", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
