package logger

import (
	"fmt"
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// Accepts any Stringer (uuid.UUID) or string.
func UserID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("user_id", id.String())
}

// Tier records a subscription tier under the key "tier".
func Tier(tier fmt.Stringer) slog.Attr {
	if tier == nil {
		return slog.Attr{}
	}
	return slog.String("tier", tier.String())
}

// Feature records a feature key under the key "feature".
func Feature(key string) slog.Attr {
	return slog.String("feature", key)
}

// Count records a usage counter under the key "count".
func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}

// InvoiceID records the invoice identifier under the key "invoice_id".
func InvoiceID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("invoice_id", id.String())
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
