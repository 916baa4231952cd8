// Package logging builds the slog handlers used by the bot.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Supported log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgHiYellow)
	errorColor = color.New(color.FgHiRed)
	keyColor   = color.New(color.FgHiBlack)
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewHandler returns a JSON or console handler writing to w.
func NewHandler(w io.Writer, format, level string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}), nil
	case FormatConsole:
		return NewConsoleHandler(w, lvl), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ConsoleHandler writes one human-readable line per record:
//
//	15:04:05 INFO started playback guild=123 ref=https://...
type ConsoleHandler struct {
	w     io.Writer
	level slog.Leveler
	mu    *sync.Mutex

	attrs  []slog.Attr
	prefix string // group prefix for keys, e.g. "player."
}

// NewConsoleHandler creates a ConsoleHandler.
func NewConsoleHandler(w io.Writer, level slog.Leveler) *ConsoleHandler {
	return &ConsoleHandler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	sb.WriteString(t.Format(time.TimeOnly))
	sb.WriteByte(' ')
	sb.WriteString(levelColor(r.Level).Sprintf("%-5s", r.Level.String()))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&sb, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.prefix, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, groupPrefix, ga)
		}
		return
	}

	value := a.Value.String()
	if strings.ContainsAny(value, " \t\n\"=") {
		value = fmt.Sprintf("%q", value)
	}

	sb.WriteByte(' ')
	sb.WriteString(keyColor.Sprint(prefix + a.Key + "="))
	sb.WriteString(value)
}

func levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return errorColor
	case level >= slog.LevelWarn:
		return warnColor
	case level >= slog.LevelInfo:
		return infoColor
	default:
		return debugColor
	}
}

var _ slog.Handler = (*ConsoleHandler)(nil)
