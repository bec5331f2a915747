package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Handler returns a slog.Handler writing through the logger, so slog call
// sites share the file, level filter, and line format.
func (l *Logger) Handler() slog.Handler {
	return &slogHandler{logger: l}
}

// Setup builds the logger from cfg and installs it as the slog default.
// With no file path configured, slog output is dropped.
func Setup(cfg *Config) (*Logger, error) {
	l, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(l.Handler()))
	return l, nil
}

type slogHandler struct {
	logger *Logger
	attrs  []slog.Attr
	groups []string
}

func (h *slogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.logger.enabled(levelOf(level))
}

func (h *slogHandler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.qualify(a.Key), a.Value)
		return true
	})
	h.logger.log(levelOf(r.Level), b.String())
	return nil
}

// WithAttrs qualifies the new attrs with the open groups and stores them,
// so later records carry them pre-rendered.
func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		combined = append(combined, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &slogHandler{
		logger: h.logger,
		attrs:  combined,
		groups: append([]string(nil), h.groups...),
	}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append([]string(nil), h.groups...)
	return &slogHandler{
		logger: h.logger,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append(groups, name),
	}
}

func (h *slogHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func writeAttr(b *strings.Builder, key string, value slog.Value) {
	fmt.Fprintf(b, " %s=%v", key, value.Resolve().Any())
}

func levelOf(level slog.Level) LogLevel {
	switch {
	case level < slog.LevelInfo:
		return DEBUG
	case level < slog.LevelWarn:
		return INFO
	case level < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}
