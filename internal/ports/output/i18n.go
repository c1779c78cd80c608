package output

// Translator renders catalogue messages for notifications and transport
// replies. data fills template placeholders and may be nil.
type Translator interface {
	T(locale, key string, data map[string]any) string
}
