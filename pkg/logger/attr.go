package logger

import (
	"log/slog"
	"strconv"

	"github.com/dmitrymomot/keymeter/pkg/keys"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.String(strconv.Itoa(i), err.Error()))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return Group("errors", as...)
}

// Error records err under the key "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// APIKey records a masked API key under the key "api_key".
// Raw keys never reach the log output.
func APIKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	return slog.String("api_key", keys.Mask(key))
}

func Plan(plan string) slog.Attr {
	return slog.String("plan", plan)
}

// Provider records the billing provider name.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// EventType records a provider event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
