package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

var _ output.Translator = (*Translator)(nil)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	log             *slog.Logger
}

// NewTranslator builds a Translator using the given default locale (e.g. "fr").
// Unknown locales fall back to French, the catalogue every key exists in.
func NewTranslator(defaultLocale string, log *slog.Logger) *Translator {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(sl.Module("i18n"))

	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.French
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.fr.toml", "active.en.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Error("load message file", slog.String("file", file), sl.Err(err))
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		log:             log,
	}
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.log.Warn("localize failed", slog.String("key", key), slog.Any("locales", languages), sl.Err(err))
		return key
	}
	return msg
}

// NotificationKey is the catalogue key for a notification kind.
func NotificationKey(kind string) string {
	return "notify_" + kindKey(kind)
}

// ErrorKey is the catalogue key for a domain error code.
func ErrorKey(code string) string {
	if code == "" {
		code = "internal"
	}
	return "error_" + code
}

func kindKey(kind string) string {
	b := []byte(kind)
	for i, c := range b {
		if c == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}
