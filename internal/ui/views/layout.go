package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
)

// Пути страниц консоли.
const (
	BasePath      = "/console"
	DashboardPath = BasePath + "/"
	UploadPath    = BasePath + "/upload"
	LoginPath     = BasePath + "/login"
	LogoutPath    = BasePath + "/logout"
	LanguagePath  = BasePath + "/set-language"
)

// Активные пункты навигации, не связанные с видом записей.
const (
	NavDashboard = "dashboard"
	NavUpload    = "upload"
)

// KindPath возвращает путь страницы вида записей.
func KindPath(kind model.Kind) string {
	return BasePath + "/" + string(kind)
}

// PartialPath возвращает путь HTML-фрагмента таблицы вида записей.
func PartialPath(kind model.Kind) string {
	return BasePath + "/partials/" + string(kind) + "/table"
}

// HTMXSource — адрес скрипта htmx; пустой — страницы работают без htmx
// (обычные формы и ссылки). Задаётся при старте из конфигурации.
var HTMXSource string

// LayoutData — данные общего каркаса страницы.
type LayoutData struct {
	// Title — заголовок страницы (уже переведённый)
	Title string
	// Username — имя пользователя сессии
	Username string
	// Active — активный пункт навигации (вид записей, NavDashboard или NavUpload)
	Active string
	// Notifications — уведомления, показываемые над содержимым
	Notifications []console.Notification
}

// Layout — каркас страницы: навигация, уведомления, содержимое.
func Layout(data LayoutData, body templ.Component) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.rawf(`<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8">`, attr(i18n.LangFromContext(ctx)))
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(data.Title + " · " + i18n.T(ctx, "app.title"))
		hw.raw(`</title><link rel="stylesheet" href="/static/css/console.css">`)
		if HTMXSource != "" {
			hw.rawf(`<script src="%s" defer></script>`, href(HTMXSource))
		}
		hw.raw(`</head><body>`)

		hw.render(ctx, sidebar(data))

		hw.raw(`<main>`)
		hw.render(ctx, Notifications(data.Notifications))
		hw.render(ctx, body)
		hw.raw(`</main></body></html>`)
	})
}

// sidebar — навигация по страницам консоли.
func sidebar(data LayoutData) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<nav class="sidebar"><h1>`)
		hw.text(i18n.T(ctx, "app.title"))
		hw.raw(`</h1>`)

		navLink(ctx, hw, DashboardPath, i18n.T(ctx, "nav.dashboard"), data.Active == NavDashboard)
		for _, kind := range model.Kinds {
			navLink(ctx, hw, KindPath(kind), i18n.T(ctx, "nav."+string(kind)), data.Active == string(kind))
		}
		navLink(ctx, hw, UploadPath, i18n.T(ctx, "nav.upload"), data.Active == NavUpload)

		hw.raw(`<div class="footer">`)
		if data.Username != "" {
			hw.text(data.Username)
			hw.raw(`<br>`)
		}
		hw.render(ctx, LanguageSwitch())
		hw.rawf(`<form method="post" action="%s"><button class="link" type="submit">`, href(LogoutPath))
		hw.text(i18n.T(ctx, "nav.logout"))
		hw.raw(`</button></form></div></nav>`)
	})
}

func navLink(_ context.Context, hw *htmlWriter, path, label string, active bool) {
	class := ""
	if active {
		class = ` class="active"`
	}
	hw.rawf(`<a href="%s"%s>`, href(path), class)
	hw.text(label)
	hw.raw(`</a>`)
}

// LanguageSwitch — переключатель языка интерфейса.
func LanguageSwitch() templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		current := i18n.LangFromContext(ctx)
		hw.rawf(`<form method="post" action="%s">`, href(LanguagePath))
		hw.text(i18n.T(ctx, "nav.language"))
		hw.raw(`: `)
		for _, lang := range i18n.Languages {
			hw.rawf(`<button class="link" type="submit" name="lang" value="%s"%s>`, attr(lang), disabled(lang != current))
			hw.text(lang)
			hw.raw(`</button>`)
		}
		hw.raw(`</form>`)
	})
}

// Notifications — список уведомлений.
// Тексты по умолчанию переводятся через каталог, сообщения сервера выводятся как есть.
func Notifications(notes []console.Notification) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		if len(notes) == 0 {
			return
		}
		hw.raw(`<ul class="notifications" role="status">`)
		for _, n := range notes {
			hw.rawf(`<li class="%s">`, attr(string(n.Level)))
			hw.text(Message(ctx, n.Message))
			hw.raw(`</li>`)
		}
		hw.raw(`</ul>`)
	})
}

// Message переводит текст уведомления, если он есть в каталоге.
func Message(ctx context.Context, msg string) string {
	return i18n.TDefault(ctx, "msg."+msg, msg)
}
