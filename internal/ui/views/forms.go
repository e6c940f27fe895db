package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
)

// EditData — форма редактирования метаданных выбранного руководства.
type EditData struct {
	Kind     model.Kind
	ID       model.ID
	FileName string
	// Values — исходные значения полей (до форматирования дат)
	Values map[string]string
}

// EditPage — форма редактирования метаданных.
func EditPage(layout LayoutData, data EditData) templ.Component {
	return Layout(layout, component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<section class="panel"><h2>`)
		hw.text(i18n.T(ctx, "page.edit"))
		hw.raw(`</h2><p>`)
		hw.text(data.FileName)
		hw.raw(`</p>`)

		hw.rawf(`<form class="stacked" method="post" action="%s">`, href(EditPath(data.Kind)))
		hw.rawf(`<input type="hidden" name="id" value="%s">`, attr(string(data.ID)))
		for _, field := range model.UploadFields {
			metadataInput(ctx, hw, field, data.Values[field], false)
		}
		hw.raw(`<p><button class="primary" type="submit">`)
		hw.text(i18n.T(ctx, "edit.save"))
		hw.rawf(`</button> <a class="button" href="%s">`, href(KindPath(data.Kind)))
		hw.text(i18n.T(ctx, "edit.cancel"))
		hw.raw(`</a></p></form></section>`)
	}))
}

// LoginData — страница ввода токена.
type LoginData struct {
	// Error — сообщение об ошибке предыдущей попытки
	Error string
}

// LoginPage — ввод bearer-токена (без навигации).
func LoginPage(data LoginData) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.rawf(`<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8"><title>`, attr(i18n.LangFromContext(ctx)))
		hw.text(i18n.T(ctx, "page.login") + " · " + i18n.T(ctx, "app.title"))
		hw.raw(`</title><link rel="stylesheet" href="/static/css/console.css"></head><body><main><div class="panel login"><h2>`)
		hw.text(i18n.T(ctx, "app.title"))
		hw.raw(`</h2>`)

		if data.Error != "" {
			hw.raw(`<ul class="notifications"><li class="error">`)
			hw.text(data.Error)
			hw.raw(`</li></ul>`)
		}

		hw.rawf(`<form class="stacked" method="post" action="%s"><label for="token">`, href(LoginPath))
		hw.text(i18n.T(ctx, "login.token"))
		hw.raw(`</label><textarea id="token" name="token" rows="5" autocomplete="off" required></textarea><p>`)
		hw.text(i18n.T(ctx, "login.hint"))
		hw.raw(`</p><button class="primary" type="submit">`)
		hw.text(i18n.T(ctx, "login.submit"))
		hw.raw(`</button></form>`)

		hw.render(ctx, LanguageSwitch())
		hw.raw(`</div></main></body></html>`)
	})
}
