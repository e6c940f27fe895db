package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// DashboardPage — карточки видов записей с последним известным состоянием.
func DashboardPage(layout LayoutData, cards []workspace.Summary) templ.Component {
	return Layout(layout, component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<h2>`)
		hw.text(i18n.T(ctx, "nav.dashboard"))
		hw.raw(`</h2>`)
		if layout.Username != "" {
			hw.raw(`<p>`)
			hw.text(i18n.Tf(ctx, "dashboard.user", layout.Username))
			hw.raw(`</p>`)
		}

		hw.raw(`<div class="cards">`)
		for _, card := range cards {
			hw.render(ctx, dashboardCard(card))
		}
		hw.raw(`</div>`)
	}))
}

func dashboardCard(card workspace.Summary) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<div class="panel card"><h3>`)
		hw.text(Title(ctx, card.Kind, card.Title))
		hw.raw(`</h3>`)

		switch {
		case !card.Visited:
			hw.raw(`<p>`)
			hw.text(i18n.T(ctx, "dashboard.not_loaded"))
			hw.raw(`</p>`)
		case card.State == console.StateError:
			hw.raw(`<p class="state error">`)
			hw.text(i18n.T(ctx, "table.error"))
			hw.raw(`</p>`)
		default:
			hw.raw(`<p>`)
			hw.text(i18n.Tf(ctx, "dashboard.pages", card.TotalPages))
			hw.raw(`</p><p>`)
			hw.text(i18n.Tf(ctx, "dashboard.rows", card.Rows))
			hw.raw(`</p>`)
		}

		hw.rawf(`<a class="button" href="%s">`, href(KindPath(card.Kind)))
		hw.text(i18n.T(ctx, "dashboard.open"))
		hw.raw(`</a></div>`)
	})
}
