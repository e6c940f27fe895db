// Пакет handlers — HTTP-обработчики Manual Console.
// Страницы отрисовываются на сервере; действия выполняются POST-запросами
// с redirect обратно на страницу (POST/Redirect/GET). Для запросов HTMX
// (заголовок HX-Request) вместо redirect возвращается фрагмент таблицы.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
	uimiddleware "github.com/bigkaa/manual-console/internal/ui/middleware"
	"github.com/bigkaa/manual-console/internal/ui/views"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// sessionWorkspace возвращает рабочее пространство сессии запроса.
// Без сессии (запрос не прошёл через UIAuth) выполняет redirect на login и возвращает nil.
func sessionWorkspace(w http.ResponseWriter, r *http.Request, store *workspace.Store) *workspace.Workspace {
	session := uimiddleware.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, views.LoginPath, http.StatusFound)
		return nil
	}
	return store.Get(session.SessionID)
}

// username возвращает имя пользователя сессии запроса.
func username(ctx context.Context) string {
	if session := uimiddleware.SessionFromContext(ctx); session != nil {
		return session.Username
	}
	return ""
}

// kindParam извлекает вид записей из URL-параметра {kind}.
func kindParam(r *http.Request) (model.Kind, bool) {
	return model.ParseKind(chi.URLParam(r, "kind"))
}

// detached возвращает контекст запроса без отмены: загрузка и мутация
// доводятся до конца, даже если клиент ушёл со страницы.
// Значения контекста (токен пользователя) сохраняются.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// isHTMX сообщает, что запрос отправлен HTMX.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// renderHTML отрисовывает компонент с кодом status.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component, logger *slog.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// respondPanel завершает действие над таблицей: для HTMX отдаёт фрагмент
// с уведомлениями и таблицей, иначе redirect на страницу вида записей.
func respondPanel(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, c *console.Container, logger *slog.Logger) {
	if !isHTMX(r) {
		http.Redirect(w, r, views.KindPath(c.Kind()), http.StatusSeeOther)
		return
	}
	renderPanel(w, r, ws, c, logger)
}

// renderPanel отрисовывает фрагмент: отложенные уведомления и таблицу.
func renderPanel(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, c *console.Container, logger *slog.Logger) {
	renderHTML(w, r, http.StatusOK, views.PanelArea(ws.TakeFlashes(), c.Snapshot()), logger)
}
