// records.go — страницы видов записей: таблица, выбор строк, пагинация,
// пакетные действия и форма редактирования.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/views"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// RecordsHandler — обработчик страниц видов записей.
type RecordsHandler struct {
	store  *workspace.Store
	logger *slog.Logger
}

// NewRecordsHandler создаёт новый RecordsHandler.
func NewRecordsHandler(store *workspace.Store, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{
		store:  store,
		logger: logger.With(slog.String("component", "ui.records")),
	}
}

// container возвращает рабочее пространство и контейнер вида записей запроса.
// При неизвестном виде выполняет redirect на dashboard и возвращает nil.
func (h *RecordsHandler) container(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, *console.Container) {
	kind, ok := kindParam(r)
	if !ok {
		http.Redirect(w, r, views.DashboardPath, http.StatusFound)
		return nil, nil
	}
	ws := sessionWorkspace(w, r, h.store)
	if ws == nil {
		return nil, nil
	}
	c, err := ws.Container(kind)
	if err != nil {
		h.logger.Error("Ошибка создания страницы консоли",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return nil, nil
	}
	return ws, c
}

// HandlePage обрабатывает GET /console/{kind} — страница таблицы.
// Первое посещение загружает первую страницу; параметр page переходит на страницу.
func (h *RecordsHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}
	h.navigate(r, c)

	snap := c.Snapshot()
	layout := views.LayoutData{
		Title:         views.Title(r.Context(), snap.Kind, snap.Title),
		Username:      username(r.Context()),
		Active:        string(snap.Kind),
		Notifications: ws.TakeFlashes(),
	}
	renderHTML(w, r, http.StatusOK, views.RecordsPage(layout, snap), h.logger)
}

// HandlePartial обрабатывает GET /console/partials/{kind}/table — фрагмент таблицы (без layout).
func (h *RecordsHandler) HandlePartial(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}
	h.navigate(r, c)

	renderPanel(w, r, ws, c, h.logger)
}

// navigate загружает таблицу при первом посещении и выполняет переход по параметру page.
// Некорректный номер страницы игнорируется.
func (h *RecordsHandler) navigate(r *http.Request, c *console.Container) {
	ctx := detached(r)
	c.Mount(ctx)

	var page *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		h.logger.Debug("Некорректный параметр page",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		return
	}
	if page != nil {
		c.GoTo(ctx, *page)
	}
}

// HandleRefresh обрабатывает POST /console/{kind}/refresh — перезагрузка текущей страницы.
func (h *RecordsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}
	c.Refresh(detached(r))
	respondPanel(w, r, ws, c, h.logger)
}

// HandleClear обрабатывает POST /console/{kind}/clear — снятие выбора со всех строк.
func (h *RecordsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}
	c.ClearSelection()
	respondPanel(w, r, ws, c, h.logger)
}

// HandleToggle обрабатывает POST /console/{kind}/toggle/{id} — переключение выбора строки.
func (h *RecordsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}

	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		http.Error(w, "Некорректный идентификатор записи", http.StatusBadRequest)
		return
	}

	if _, ok := c.Toggle(model.ID(id)); !ok {
		// Строка исчезла после перезагрузки страницы: показываем актуальную таблицу
		h.logger.Debug("Строка для выбора не найдена",
			slog.String("kind", string(c.Kind())),
			slog.String("id", id),
		)
	}
	respondPanel(w, r, ws, c, h.logger)
}

// HandleAction обрабатывает POST /console/{kind}/actions/{action} — пакетное действие.
func (h *RecordsHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}

	action, ok := console.ParseAction(chi.URLParam(r, "action"))
	if !ok || action == console.ActionUpdate {
		// update отправляется только из формы редактирования
		ws.Flash(console.Notification{Level: console.LevelError, Message: "Action is not available on this page"})
		respondPanel(w, r, ws, c, h.logger)
		return
	}

	var extra console.Extra
	if action == console.ActionRefreshStatus {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
			return
		}
		extra.RowID = model.ID(r.PostFormValue("row_id"))
		extra.StatusKind = model.StatusKind(r.PostFormValue("status"))
	}

	result := c.Dispatch(detached(r), action, extra)
	h.logResult(c, result)
	if result.Err == nil {
		invalidateAffected(ws, action)
	}
	ws.Flash(result.Notification)
	respondPanel(w, r, ws, c, h.logger)
}

// invalidateAffected помечает устаревшими страницы, которые изменило действие.
func invalidateAffected(ws *workspace.Workspace, action console.ActionKind) {
	for _, kind := range console.AffectedKinds(action) {
		if other, err := ws.Container(kind); err == nil {
			other.Invalidate()
		}
	}
}

// HandleEditForm обрабатывает GET /console/{kind}/edit — форма редактирования
// единственной выбранной записи, заполненная исходными значениями полей.
func (h *RecordsHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}
	if !c.Schema().Exposes(console.ActionUpdate) {
		http.Redirect(w, r, views.KindPath(c.Kind()), http.StatusSeeOther)
		return
	}

	rec, ok := c.SelectedRecord()
	if !ok {
		ws.Flash(console.Notification{Level: console.LevelWarning, Message: "Select exactly one record"})
		http.Redirect(w, r, views.KindPath(c.Kind()), http.StatusSeeOther)
		return
	}

	values := make(map[string]string, len(model.UploadFields))
	for _, field := range model.UploadFields {
		values[field] = rec.RawString(field)
	}
	h.renderEdit(w, r, ws, c, rec, values, http.StatusOK)
}

// HandleEdit обрабатывает POST /console/{kind}/edit — сохранение метаданных.
// При ошибке форма показывается снова с введёнными значениями.
func (h *RecordsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ws, c := h.container(w, r)
	if c == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}

	rec, ok := c.SelectedRecord()
	if !ok || string(rec.ID) != r.PostFormValue("id") {
		// Выбор изменился, пока форма была открыта
		ws.Flash(console.Notification{Level: console.LevelWarning, Message: "Select exactly one record"})
		http.Redirect(w, r, views.KindPath(c.Kind()), http.StatusSeeOther)
		return
	}

	fields := make(map[string]string, len(model.UploadFields))
	for _, field := range model.UploadFields {
		fields[field] = strings.TrimSpace(r.PostFormValue(field))
	}

	result := c.Dispatch(detached(r), console.ActionUpdate, console.Extra{Fields: fields})
	h.logResult(c, result)
	ws.Flash(result.Notification)
	if result.Err != nil {
		h.renderEdit(w, r, ws, c, rec, fields, http.StatusUnprocessableEntity)
		return
	}
	http.Redirect(w, r, views.KindPath(c.Kind()), http.StatusSeeOther)
}

func (h *RecordsHandler) renderEdit(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace,
	c *console.Container, rec model.Record, values map[string]string, status int) {
	layout := views.LayoutData{
		Title:         views.Title(r.Context(), c.Kind(), c.Schema().Title),
		Username:      username(r.Context()),
		Active:        string(c.Kind()),
		Notifications: ws.TakeFlashes(),
	}
	data := views.EditData{
		Kind:     c.Kind(),
		ID:       rec.ID,
		FileName: rec.Display("file_name"),
		Values:   values,
	}
	renderHTML(w, r, status, views.EditPage(layout, data), h.logger)
}

// logResult пишет итог действия в лог. Отклонённые действия логируются на уровне Debug.
func (h *RecordsHandler) logResult(c *console.Container, result console.Result) {
	if result.Err == nil {
		return
	}
	h.logger.Debug("Действие не выполнено",
		slog.String("kind", string(c.Kind())),
		slog.String("action", string(result.Action)),
		slog.String("error", result.Err.Error()),
	)
}
