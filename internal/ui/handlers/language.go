// language.go — обработчик переключения языка UI.
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blazen1013/setting/internal/ui/i18n"
)

// langCookieMaxAge — срок хранения выбранного языка (1 год).
const langCookieMaxAge = 365 * 24 * time.Hour

// HandleSetLanguage возвращает обработчик POST /set-language.
// Устанавливает cookie "lang" и перенаправляет обратно на страницу того же хоста.
// Неподдерживаемый язык заменяется языком по умолчанию.
func HandleSetLanguage(defaultLang string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := r.FormValue("lang")
		if !i18n.IsSupported(lang) {
			lang = defaultLang
		}

		http.SetCookie(w, &http.Cookie{
			Name:     i18n.LangCookieName,
			Value:    lang,
			Path:     "/",
			MaxAge:   int(langCookieMaxAge.Seconds()),
			HttpOnly: false, // JS может читать для UI-логики
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(langCookieMaxAge),
		})

		http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
	}
}

// backTarget возвращает путь из Referer, если он указывает на тот же хост.
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" || strings.HasPrefix(ref.Path, "//") || (ref.Host != "" && ref.Host != r.Host) {
		return homePath
	}
	return ref.Path
}
