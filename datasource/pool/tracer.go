package pool

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// newTracer returns a pgx tracer logging with zerolog at the given pgx level, or nil for none.
func newTracer(logger *zerolog.Logger, level string) (pgx.QueryTracer, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" || level == "none" {
		return nil, nil
	}
	logLevel, err := tracelog.LogLevelFromString(level)
	if err != nil {
		return nil, fmt.Errorf("invalid logLevel %q:\n\t%w", level, err)
	}
	return &tracelog.TraceLog{
		Logger:   zerologAdapter(logger),
		LogLevel: logLevel,
	}, nil
}

func zerologAdapter(logger *zerolog.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		var event *zerolog.Event
		switch level {
		case tracelog.LogLevelTrace:
			event = logger.Trace()
		case tracelog.LogLevelDebug:
			event = logger.Debug()
		case tracelog.LogLevelInfo:
			event = logger.Info()
		case tracelog.LogLevelWarn:
			event = logger.Warn()
		case tracelog.LogLevelError:
			event = logger.Error()
		default:
			return
		}
		event.Fields(data).Msg(msg)
	})
}
