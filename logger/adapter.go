package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// eventAdapter adapts *zerolog.Event to LogEvent and applies the sensitive
// data filter to string and interface fields.
type eventAdapter struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (a *eventAdapter) with(e *zerolog.Event) LogEvent {
	return &eventAdapter{event: e, filter: a.filter}
}

func (a *eventAdapter) Msg(msg string) { a.event.Msg(msg) }

func (a *eventAdapter) Msgf(format string, args ...any) { a.event.Msgf(format, args...) }

func (a *eventAdapter) Err(err error) LogEvent { return a.with(a.event.Err(err)) }

func (a *eventAdapter) Str(key, value string) LogEvent {
	return a.with(a.event.Str(key, a.filter.FilterString(key, value)))
}

func (a *eventAdapter) Int(key string, value int) LogEvent { return a.with(a.event.Int(key, value)) }

func (a *eventAdapter) Int64(key string, value int64) LogEvent {
	return a.with(a.event.Int64(key, value))
}

func (a *eventAdapter) Uint64(key string, value uint64) LogEvent {
	return a.with(a.event.Uint64(key, value))
}

func (a *eventAdapter) Bool(key string, value bool) LogEvent { return a.with(a.event.Bool(key, value)) }

func (a *eventAdapter) Dur(key string, d time.Duration) LogEvent { return a.with(a.event.Dur(key, d)) }

func (a *eventAdapter) Interface(key string, i any) LogEvent {
	return a.with(a.event.Interface(key, a.filter.FilterValue(key, i)))
}

func (a *eventAdapter) Bytes(key string, val []byte) LogEvent {
	return a.with(a.event.Bytes(key, val))
}
