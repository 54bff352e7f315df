package output

// T is the message catalog used for every user-facing string.
type T interface {
	// T renders the message identified by key for the given locale.
	// data holds template placeholders and may be nil.
	T(locale, key string, data map[string]any) string
}
