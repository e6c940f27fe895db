package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/manual-console/internal/ui/i18n"
	"github.com/bigkaa/manual-console/internal/ui/views"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// DashboardHandler — обработчик страницы Dashboard.
type DashboardHandler struct {
	store  *workspace.Store
	logger *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(store *workspace.Store, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:  store,
		logger: logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /console/ — карточки видов записей.
// Непосещённые страницы не загружаются.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ws := sessionWorkspace(w, r, h.store)
	if ws == nil {
		return
	}

	layout := views.LayoutData{
		Title:         i18n.T(r.Context(), "nav.dashboard"),
		Username:      username(r.Context()),
		Active:        views.NavDashboard,
		Notifications: ws.TakeFlashes(),
	}
	renderHTML(w, r, http.StatusOK, views.DashboardPage(layout, ws.Overview()), h.logger)
}
