package views

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
)

// PanelID — id элемента таблицы записей.
const PanelID = "record-panel"

// PanelAreaID — id блока уведомлений и таблицы; цель частичного обновления htmx.
const PanelAreaID = "panel-area"

// hxTarget — атрибуты замены блока PanelAreaID ответом htmx.
const hxTarget = ` hx-target="#` + PanelAreaID + `" hx-swap="outerHTML"`

// hxPost возвращает атрибуты формы, отправляемой через htmx.
func hxPost(path string) string {
	return ` hx-post="` + href(path) + `"` + hxTarget
}

// TogglePath возвращает путь переключения выбора строки.
func TogglePath(kind model.Kind, id model.ID) string {
	return KindPath(kind) + "/toggle/" + url.PathEscape(string(id))
}

// ActionPath возвращает путь пакетного действия.
func ActionPath(kind model.Kind, action console.ActionKind) string {
	return KindPath(kind) + "/actions/" + string(action)
}

// EditPath возвращает путь формы редактирования выбранной записи.
func EditPath(kind model.Kind) string {
	return KindPath(kind) + "/edit"
}

// RefreshPath возвращает путь перезагрузки текущей страницы.
func RefreshPath(kind model.Kind) string {
	return KindPath(kind) + "/refresh"
}

// PagePath возвращает путь страницы page.
func PagePath(kind model.Kind, page int) string {
	return KindPath(kind) + "?page=" + strconv.Itoa(page)
}

// PartialPagePath возвращает путь фрагмента таблицы для страницы page.
func PartialPagePath(kind model.Kind, page int) string {
	return PartialPath(kind) + "?page=" + strconv.Itoa(page)
}

// ClearPath возвращает путь снятия выбора со всех строк.
func ClearPath(kind model.Kind) string {
	return KindPath(kind) + "/clear"
}

// Title возвращает переведённый заголовок страницы вида записей.
func Title(ctx context.Context, kind model.Kind, fallback string) string {
	return i18n.TDefault(ctx, "page."+string(kind), fallback)
}

// RecordsPage — страница вида записей в общем каркасе.
// Уведомления выводятся внутри PanelArea, чтобы обновляться вместе с таблицей.
func RecordsPage(layout LayoutData, snap console.Snapshot) templ.Component {
	notes := layout.Notifications
	layout.Notifications = nil
	return Layout(layout, PanelArea(notes, snap))
}

// PanelArea — уведомления и таблица записей; ответ на запросы htmx.
func PanelArea(notes []console.Notification, snap console.Snapshot) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.rawf(`<div id="%s">`, PanelAreaID)
		hw.render(ctx, Notifications(notes))
		hw.render(ctx, RecordPanel(snap))
		hw.raw(`</div>`)
	})
}

// RecordPanel — таблица записей с панелью действий и пагинацией.
// Отрисовывается и как часть страницы, и как отдельный фрагмент.
func RecordPanel(snap console.Snapshot) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.rawf(`<section id="%s" class="panel">`, PanelID)
		hw.raw(`<h2>`)
		hw.text(Title(ctx, snap.Kind, snap.Title))
		hw.raw(`</h2>`)

		hw.render(ctx, actionBar(snap))

		switch snap.State {
		case console.StateLoading:
			hw.raw(`<div class="state">`)
			hw.text(i18n.T(ctx, "table.loading"))
			hw.raw(`</div>`)
		case console.StateError:
			hw.raw(`<div class="state error" role="alert">`)
			hw.text(Message(ctx, snap.Error))
			hw.raw(`</div>`)
		default:
			hw.render(ctx, recordTable(snap))
			hw.render(ctx, Pagination(snap))
		}
		hw.raw(`</section>`)
	})
}

// actionBar — кнопки пакетных действий, перезагрузка и счётчик выбора.
func actionBar(snap console.Snapshot) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<div class="toolbar">`)
		for _, action := range snap.Actions {
			label := i18n.T(ctx, "action."+string(action.Kind))
			if action.Running {
				label = i18n.T(ctx, "action.running")
			}

			// Редактирование открывает форму, а не отправляет запрос сразу
			if action.Kind == console.ActionUpdate {
				if action.Enabled {
					hw.rawf(`<a class="button" href="%s">`, href(EditPath(snap.Kind)))
					hw.text(label)
					hw.raw(`</a>`)
				} else {
					hw.raw(`<button type="button" disabled>`)
					hw.text(label)
					hw.raw(`</button>`)
				}
				continue
			}

			class := "primary"
			confirm := ""
			if action.Kind == console.ActionDelete {
				class = "danger"
				confirm = ` hx-confirm="` + attr(i18n.T(ctx, "action.confirm_delete")) + `"`
			}
			path := ActionPath(snap.Kind, action.Kind)
			hw.rawf(`<form method="post" action="%s"%s%s>`, href(path), hxPost(path), confirm)
			hw.rawf(`<button class="%s" type="submit"%s>`, class, disabled(action.Enabled))
			hw.text(label)
			hw.raw(`</button></form>`)
		}

		hw.rawf(`<form method="post" action="%s"%s><button type="submit"%s>`,
			href(RefreshPath(snap.Kind)), hxPost(RefreshPath(snap.Kind)), disabled(snap.State != console.StateLoading))
		hw.text(i18n.T(ctx, "table.refresh"))
		hw.raw(`</button></form>`)

		hw.rawf(`<form method="post" action="%s"%s><button type="submit"%s>`,
			href(ClearPath(snap.Kind)), hxPost(ClearPath(snap.Kind)), disabled(snap.SelectedCount > 0))
		hw.text(i18n.T(ctx, "table.clear"))
		hw.raw(`</button></form>`)

		hw.raw(`<span class="count">`)
		hw.text(i18n.Tf(ctx, "table.selected", snap.SelectedCount))
		hw.raw(`</span></div>`)
	})
}

// recordTable — таблица строк текущей страницы.
func recordTable(snap console.Snapshot) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		if len(snap.Rows) == 0 {
			hw.raw(`<div class="state">`)
			hw.text(i18n.T(ctx, "table.empty"))
			hw.raw(`</div>`)
			return
		}

		total := 0
		for _, col := range snap.Columns {
			total += col.Width
		}

		hw.raw(`<table><thead><tr><th class="select"></th>`)
		for _, col := range snap.Columns {
			hw.rawf(`<th style="width:%d%%">`, col.Width*100/max(total, 1))
			hw.text(i18n.TDefault(ctx, "column."+col.Key, col.Header))
			hw.raw(`</th>`)
		}
		hw.raw(`</tr></thead><tbody>`)

		for _, row := range snap.Rows {
			if row.Selected {
				hw.raw(`<tr class="selected">`)
			} else {
				hw.raw(`<tr>`)
			}
			hw.render(ctx, toggleCell(snap.Kind, row))
			for _, cell := range row.Cells {
				hw.raw(`<td>`)
				hw.text(cell.Text)
				if cell.Refresh != nil {
					hw.render(ctx, refreshButton(snap.Kind, row.ID, *cell.Refresh))
				}
				hw.raw(`</td>`)
			}
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table>`)
	})
}

// toggleCell — флажок выбора строки.
func toggleCell(kind model.Kind, row console.Row) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		checked := ""
		if row.Selected {
			checked = " checked"
		}
		path := TogglePath(kind, row.ID)
		hw.rawf(`<td class="select"><form method="post" action="%s"%s>`, href(path), hxPost(path))
		hw.rawf(`<input type="checkbox" aria-label="%s" onchange="this.form.requestSubmit()"%s>`,
			attr(i18n.T(ctx, "table.select")), checked)
		hw.raw(`<noscript><button class="link" type="submit">&#10003;</button></noscript>`)
		hw.raw(`</form></td>`)
	})
}

// refreshButton — кнопка обновления статуса строки fine-tune.
func refreshButton(kind model.Kind, rowID model.ID, target console.RefreshTarget) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		path := ActionPath(kind, console.ActionRefreshStatus)
		hw.rawf(`<form method="post" action="%s"%s style="display:inline">`, href(path), hxPost(path))
		hw.rawf(`<input type="hidden" name="row_id" value="%s">`, attr(string(rowID)))
		hw.rawf(`<input type="hidden" name="status" value="%s">`, attr(string(target.StatusKind)))
		hw.raw(`<button class="link" type="submit">`)
		hw.text(i18n.T(ctx, "table.refresh_status"))
		hw.raw(`</button></form>`)
	})
}
