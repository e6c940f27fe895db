// upload.go — форма загрузки PDF-руководств: добавление и удаление файлов,
// метаданные, отправка в REST API.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
	"github.com/bigkaa/manual-console/internal/ui/views"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// UploadHandler — обработчик формы загрузки.
type UploadHandler struct {
	store     *workspace.Store
	uploader  console.Uploader
	maxMemory int64
	maxSize   int64
	logger    *slog.Logger
}

// NewUploadHandler создаёт новый UploadHandler.
// maxMemory — объём multipart-формы, хранимый в памяти при разборе;
// maxSize — предельный размер тела запроса.
func NewUploadHandler(store *workspace.Store, uploader console.Uploader, maxMemory, maxSize int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		store:     store,
		uploader:  uploader,
		maxMemory: maxMemory,
		maxSize:   maxSize,
		logger:    logger.With(slog.String("component", "ui.upload")),
	}
}

// HandlePage обрабатывает GET /console/upload — форма загрузки.
func (h *UploadHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ws := sessionWorkspace(w, r, h.store)
	if ws == nil {
		return
	}
	form := ws.Upload()

	layout := views.LayoutData{
		Title:         i18n.T(r.Context(), "page.upload"),
		Username:      username(r.Context()),
		Active:        views.NavUpload,
		Notifications: ws.TakeFlashes(),
	}
	data := views.UploadData{
		Files:    form.FileNames(),
		MaxFiles: form.MaxFiles(),
		Metadata: form.Metadata(),
	}
	renderHTML(w, r, http.StatusOK, views.UploadPage(layout, data), h.logger)
}

// HandleAddFiles обрабатывает POST /console/upload/files — добавление файлов в форму.
// Метаданные формы сохраняются; файлы, не являющиеся PDF, пропускаются с предупреждением.
func (h *UploadHandler) HandleAddFiles(w http.ResponseWriter, r *http.Request) {
	ws := sessionWorkspace(w, r, h.store)
	if ws == nil {
		return
	}

	files, meta, err := h.parseForm(w, r)
	if err != nil {
		h.badForm(w, r, ws, err)
		return
	}
	form := ws.Upload()
	form.SetMetadata(meta)
	h.addFiles(ws, form, files)

	http.Redirect(w, r, views.UploadPath, http.StatusSeeOther)
}

// HandleRemoveFile обрабатывает POST /console/upload/files/{index}/remove — удаление файла из формы.
func (h *UploadHandler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	ws := sessionWorkspace(w, r, h.store)
	if ws == nil {
		return
	}

	var index int
	err := runtime.BindStyledParameterWithOptions("simple", "index", chi.URLParam(r, "index"), &index,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		http.Error(w, "Некорректный номер файла", http.StatusBadRequest)
		return
	}

	if !ws.Upload().RemoveFile(index) {
		h.logger.Debug("Файл для удаления не найден", slog.Int("index", index))
	}
	http.Redirect(w, r, views.UploadPath, http.StatusSeeOther)
}

// HandleSubmit обрабатывает POST /console/upload/submit — отправка формы.
// Файлы, выбранные в этом же запросе, добавляются перед отправкой.
// Ошибка валидации или загрузки не сбрасывает выбранные файлы.
func (h *UploadHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ws := sessionWorkspace(w, r, h.store)
	if ws == nil {
		return
	}

	files, meta, err := h.parseForm(w, r)
	if err != nil {
		h.badForm(w, r, ws, err)
		return
	}
	form := ws.Upload()
	form.SetMetadata(meta)
	if !h.addFiles(ws, form, files) {
		http.Redirect(w, r, views.UploadPath, http.StatusSeeOther)
		return
	}

	count := len(form.FileNames())
	notes, err := form.Submit(detached(r), h.uploader)
	ws.Flash(notes...)
	switch {
	case errors.Is(err, console.ErrValidation):
		h.logger.Debug("Форма загрузки не прошла проверку", slog.String("error", err.Error()))
	case err != nil:
		h.logger.Warn("Ошибка загрузки файлов",
			slog.Int("files", count),
			slog.String("error", err.Error()),
		)
	default:
		h.logger.Info("Файлы загружены", slog.Int("files", count))
		// Список файлов изменился: открытая страница перезагрузится при следующем посещении
		if c, err := ws.Container(model.KindFiles); err == nil {
			c.Invalidate()
		}
	}

	http.Redirect(w, r, views.UploadPath, http.StatusSeeOther)
}

// addFiles добавляет файлы в форму и сохраняет уведомления о пропущенных файлах.
// Возвращает false, если лимит количества файлов превышен.
func (h *UploadHandler) addFiles(ws *workspace.Workspace, form *console.UploadForm, files []model.UploadFile) bool {
	if len(files) == 0 {
		return true
	}
	_, skipped, err := form.AddFiles(files)
	if len(skipped) > 0 {
		ws.Flash(console.Notification{
			Level:   console.LevelWarning,
			Message: "Only PDF files are allowed: " + strings.Join(skipped, ", "),
		})
	}
	switch {
	case errors.Is(err, console.ErrTooLarge):
		ws.Flash(console.Notification{
			Level:   console.LevelError,
			Message: "Selected files exceed the maximum total size",
		})
		return false
	case err != nil:
		ws.Flash(console.Notification{
			Level:   console.LevelError,
			Message: fmt.Sprintf("Too many files, at most %d allowed", form.MaxFiles()),
		})
		return false
	}
	return true
}

// parseForm разбирает multipart-форму: выбранные файлы и метаданные.
// Тело запроса ограничено maxSize.
// Пустые поля выбора файла (браузер отправляет их без имени) пропускаются.
func (h *UploadHandler) parseForm(w http.ResponseWriter, r *http.Request) ([]model.UploadFile, model.UploadMetadata, error) {
	if h.maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	}
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		return nil, nil, fmt.Errorf("ошибка разбора multipart-формы: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	meta := make(model.UploadMetadata, len(model.UploadFields))
	for _, field := range model.UploadFields {
		meta[field] = r.FormValue(field)
	}

	var files []model.UploadFile
	for _, fh := range r.MultipartForm.File["files"] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, model.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, meta, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", fh.Filename, err)
	}
	return data, nil
}

// badForm сообщает об ошибке разбора формы.
// Превышение размера запроса — ошибка валидации, а не сбой.
func (h *UploadHandler) badForm(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.logger.Debug("Превышен размер загрузки", slog.Int64("limit", tooLarge.Limit))
		ws.Flash(console.Notification{
			Level:   console.LevelError,
			Message: fmt.Sprintf("Upload exceeds the maximum size of %d bytes", tooLarge.Limit),
		})
		http.Redirect(w, r, views.UploadPath, http.StatusSeeOther)
		return
	}
	h.logger.Warn("Некорректная форма загрузки", slog.String("error", err.Error()))
	ws.Flash(console.Notification{Level: console.LevelError, Message: "Upload failed."})
	http.Redirect(w, r, views.UploadPath, http.StatusSeeOther)
}
