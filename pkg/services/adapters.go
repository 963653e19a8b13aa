package services

import (
	"time"

	"github.com/rs/zerolog"
)

// zerologAdapter adapts zerolog to the service-layer Logger interface.
type zerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger in the Logger interface.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return &zerologAdapter{logger: logger}
}

func (l *zerologAdapter) Debug(msg string, keysAndValues ...interface{}) {
	l.addFields(l.logger.Debug(), keysAndValues...).Msg(msg)
}

func (l *zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.addFields(l.logger.Info(), keysAndValues...).Msg(msg)
}

func (l *zerologAdapter) Warn(msg string, keysAndValues ...interface{}) {
	l.addFields(l.logger.Warn(), keysAndValues...).Msg(msg)
}

func (l *zerologAdapter) Error(msg string, keysAndValues ...interface{}) {
	l.addFields(l.logger.Error(), keysAndValues...).Msg(msg)
}

func (l *zerologAdapter) addFields(event *zerolog.Event, keysAndValues ...interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		case error:
			event = event.AnErr(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	return event
}
