package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are added to every record logged with the enriched context.
type LogFields struct {
	EventID   *string
	EntrantID *string
	UID       *string
	MessageID *string // Redis stream message id
	Component string  // e.g. "luckyspot.application.promotion"
}

// WithLogFields merges fields into ctx. Newer non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	return context.WithValue(ctx, logFieldsKey, mergeFields(GetLogFields(ctx), fields))
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing
	if next.EventID != nil {
		result.EventID = next.EventID
	}
	if next.EntrantID != nil {
		result.EntrantID = next.EntrantID
	}
	if next.UID != nil {
		result.UID = next.UID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}
	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}
