package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// Fields are key/value pairs appended to a log line.
type Fields map[string]any

// Logger is the logging surface used by Client.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, err error, fields Fields)
}

type logxLogger struct{}

// NewLogger returns a Logger backed by logx at the given level.
func NewLogger(level string) Logger {
	logx.SetLevel(parseLevel(level))
	return logxLogger{}
}

func (logxLogger) Debug(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Debug(formatLine(msg, fields))
}

func (logxLogger) Info(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Info(formatLine(msg, fields))
}

// Warn maps onto logx's slow channel, which is its closest level.
func (logxLogger) Warn(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Slow(formatLine(msg, fields))
}

func (logxLogger) Error(ctx context.Context, err error, fields Fields) {
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	logx.WithContext(ctx).Error(formatLine(msg, fields))
}

func parseLevel(level string) uint32 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logx.DebugLevel
	case "error":
		return logx.ErrorLevel
	case "severe", "fatal":
		return logx.SevereLevel
	default:
		return logx.InfoLevel
	}
}

// formatLine renders "msg | k1=v1 k2=v2" with keys sorted.
func formatLine(msg string, fields Fields) string {
	if len(fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	b.WriteString(" |")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}
