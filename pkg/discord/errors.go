package discord

import (
	"rollcall/internal/domain"
	"rollcall/internal/infrastructure/i18n"
	"rollcall/internal/ports/output"
)

// DomainErrorMessage resolves err to a user-facing message through its
// domain code. Errors without a code get the generic message.
func DomainErrorMessage(tr output.Translator, locale string, err error) string {
	if err == nil {
		return ""
	}
	return tr.T(locale, i18n.ErrorKey(domain.Code(err)), nil)
}
