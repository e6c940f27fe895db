// language.go — обработчик переключения языка UI.
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bigkaa/manual-console/internal/ui/i18n"
	"github.com/bigkaa/manual-console/internal/ui/views"
)

// HandleSetLanguage обрабатывает POST /console/set-language.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Параметр lang: "en" или "ru" (из query или form).
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = "en"
	}

	// Устанавливаем cookie "lang" на 1 год
	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	http.Redirect(w, r, backTo(r.Header.Get("Referer")), http.StatusSeeOther)
}

// backTo возвращает путь страницы из Referer, если она принадлежит консоли.
// Иначе (внешний или пустой Referer) — dashboard.
func backTo(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || !strings.HasPrefix(u.Path, views.BasePath+"/") {
		return views.DashboardPath
	}
	back := u.Path
	if u.RawQuery != "" {
		back += "?" + u.RawQuery
	}
	return back
}
