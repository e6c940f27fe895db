package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
)

// pageWindow — количество номеров страниц по обе стороны от текущей.
const pageWindow = 2

// Pagination — переходы назад/вперёд и номера соседних страниц.
// Кнопки вне диапазона [1, TotalPages] не выводятся как ссылки.
func Pagination(snap console.Snapshot) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<nav class="pagination" aria-label="pagination">`)

		pageLink(hw, snap, snap.Page-1, i18n.T(ctx, "pagination.prev"), snap.HasPrev)

		for _, p := range PageNumbers(snap.Page, snap.TotalPages) {
			pageLink(hw, snap, p, strconv.Itoa(p), p != snap.Page)
		}

		pageLink(hw, snap, snap.Page+1, i18n.T(ctx, "pagination.next"), snap.HasNext)

		hw.raw(`<span>`)
		hw.text(i18n.Tf(ctx, "pagination.page", snap.Page, snap.TotalPages))
		hw.raw(`</span></nav>`)
	})
}

func pageLink(hw *htmlWriter, snap console.Snapshot, page int, label string, enabled bool) {
	if !enabled {
		hw.raw(`<button type="button" disabled>`)
		hw.text(label)
		hw.raw(`</button>`)
		return
	}
	path := PagePath(snap.Kind, page)
	hw.rawf(`<a class="button" href="%s" hx-get="%s" hx-push-url="%s"%s>`,
		href(path), href(PartialPagePath(snap.Kind, page)), href(path), hxTarget)
	hw.text(label)
	hw.raw(`</a>`)
}

// PageNumbers возвращает номера страниц вокруг текущей в пределах [1, total].
func PageNumbers(current, total int) []int {
	from := max(1, current-pageWindow)
	to := min(total, current+pageWindow)
	out := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, p)
	}
	return out
}
