package console

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

// ErrValidation — форма загрузки не прошла проверку; запрос не отправлялся.
var ErrValidation = errors.New("ошибка валидации формы загрузки")

// Ошибки лимитов формы; обе являются ErrValidation.
var (
	ErrTooManyFiles = fmt.Errorf("%w: превышено количество файлов", ErrValidation)
	ErrTooLarge     = fmt.Errorf("%w: превышен суммарный размер файлов", ErrValidation)
)

// RequiredUploadFields — обязательные поля метаданных загрузки.
var RequiredUploadFields = []string{model.FieldManufacturer, model.FieldModel, model.FieldYear}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Uploader — отправка файлов в REST API.
// Реализуется *apiclient.Client.
type Uploader interface {
	UploadManuals(ctx context.Context, files []model.UploadFile, meta model.UploadMetadata) (*model.UploadResult, error)
}

// UploadForm — состояние формы загрузки: выбранные файлы и метаданные.
// Ошибка валидации или загрузки не сбрасывает выбранные файлы;
// список очищается только после успешной отправки.
type UploadForm struct {
	maxFiles int
	maxBytes int64

	mu    sync.Mutex
	files []model.UploadFile
	meta  model.UploadMetadata
}

// NewUploadForm создаёт пустую форму с лимитами количества файлов
// и их суммарного размера в байтах. Нулевой лимит не ограничивает.
func NewUploadForm(maxFiles int, maxBytes int64) *UploadForm {
	return &UploadForm{maxFiles: maxFiles, maxBytes: maxBytes, meta: model.UploadMetadata{}}
}

// IsPDF сообщает, является ли файл PDF (по MIME-типу или расширению).
func IsPDF(name, contentType string) bool {
	if strings.EqualFold(strings.TrimSpace(strings.Split(contentType, ";")[0]), "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// AddFiles добавляет файлы в форму. Файлы, не являющиеся PDF, пропускаются.
// Если лимит количества файлов или их размера превышен, ни один файл не добавляется.
func (f *UploadForm) AddFiles(files []model.UploadFile) (added int, skipped []string, err error) {
	pdfs := make([]model.UploadFile, 0, len(files))
	var size int64
	for _, file := range files {
		if IsPDF(file.Name, file.ContentType) {
			pdfs = append(pdfs, file)
			size += int64(len(file.Data))
		} else {
			skipped = append(skipped, file.Name)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.maxFiles > 0 && len(f.files)+len(pdfs) > f.maxFiles {
		return 0, skipped, fmt.Errorf("%w: не более %d", ErrTooManyFiles, f.maxFiles)
	}
	if f.maxBytes > 0 && f.sizeLocked()+size > f.maxBytes {
		return 0, skipped, fmt.Errorf("%w: не более %d байт", ErrTooLarge, f.maxBytes)
	}
	f.files = append(f.files, pdfs...)
	return len(pdfs), skipped, nil
}

// RemoveFile удаляет файл по позиции в списке.
func (f *UploadForm) RemoveFile(index int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.files) {
		return false
	}
	f.files = append(f.files[:index], f.files[index+1:]...)
	return true
}

// SetMetadata заменяет метаданные формы. Неизвестные поля игнорируются.
func (f *UploadForm) SetMetadata(meta model.UploadMetadata) {
	clean := make(model.UploadMetadata, len(model.UploadFields))
	for _, field := range model.UploadFields {
		if v := strings.TrimSpace(meta[field]); v != "" {
			clean[field] = v
		}
	}
	f.mu.Lock()
	f.meta = clean
	f.mu.Unlock()
}

// FileNames возвращает имена выбранных файлов.
func (f *UploadForm) FileNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.files))
	for i, file := range f.files {
		names[i] = file.Name
	}
	return names
}

// Metadata возвращает копию метаданных формы.
func (f *UploadForm) Metadata() model.UploadMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(model.UploadMetadata, len(f.meta))
	for k, v := range f.meta {
		out[k] = v
	}
	return out
}

func (f *UploadForm) sizeLocked() int64 {
	var total int64
	for _, file := range f.files {
		total += int64(len(file.Data))
	}
	return total
}

// MaxFiles возвращает лимит количества файлов.
func (f *UploadForm) MaxFiles() int {
	return f.maxFiles
}

// Validate проверяет форму перед отправкой.
// Все отсутствующие обязательные поля перечисляются в одном сообщении.
func (f *UploadForm) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *UploadForm) validateLocked() error {
	if len(f.files) == 0 {
		return fmt.Errorf("%w: Please select files to upload", ErrValidation)
	}
	if f.maxFiles > 0 && len(f.files) > f.maxFiles {
		return fmt.Errorf("%w: Too many files, at most %d allowed", ErrValidation, f.maxFiles)
	}

	var missing []string
	for _, field := range RequiredUploadFields {
		if f.meta[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: Missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}

	if !yearPattern.MatchString(f.meta[model.FieldYear]) {
		return fmt.Errorf("%w: Year must be a four-digit number", ErrValidation)
	}
	if date := f.meta[model.FieldPublicationDate]; date != "" {
		if _, ok := parseDate(date); !ok {
			return fmt.Errorf("%w: Invalid publication date %q", ErrValidation, date)
		}
	}
	return nil
}

// Submit проверяет форму и отправляет файлы.
// При ошибке валидации запрос не отправляется и возвращается одно уведомление.
// После успешной отправки список файлов очищается, метаданные сохраняются.
// Пустые списки результата не порождают уведомлений.
func (f *UploadForm) Submit(ctx context.Context, uploader Uploader) ([]Notification, error) {
	f.mu.Lock()
	if err := f.validateLocked(); err != nil {
		f.mu.Unlock()
		return []Notification{failure(validationMessage(err))}, err
	}
	files := make([]model.UploadFile, len(f.files))
	copy(files, f.files)
	meta := make(model.UploadMetadata, len(f.meta))
	for k, v := range f.meta {
		meta[k] = v
	}
	f.mu.Unlock()

	result, err := uploader.UploadManuals(ctx, files, meta)
	if err != nil {
		text := apiclient.ServerMessage(err)
		if text == "" {
			text = "Upload failed."
		}
		return []Notification{failure(text)}, err
	}

	f.mu.Lock()
	f.files = nil
	f.mu.Unlock()

	return UploadNotifications(result), nil
}

// UploadNotifications преобразует результат загрузки в уведомления.
func UploadNotifications(result *model.UploadResult) []Notification {
	var out []Notification
	if result == nil {
		return []Notification{success("Files uploaded successfully!")}
	}
	if len(result.Succeeded) > 0 {
		out = append(out, success("Uploaded: "+strings.Join(result.Succeeded, ", ")))
	}
	if len(result.Failed) > 0 {
		out = append(out, failure("Failed to upload: "+strings.Join(result.Failed, ", ")))
	}
	if len(result.AlreadyExist) > 0 {
		out = append(out, warning("Already exist: "+strings.Join(result.AlreadyExist, ", ")))
	}
	if len(out) == 0 {
		out = append(out, info("No files were processed"))
	}
	return out
}

// validationMessage убирает из текста ошибки префикс ErrValidation.
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}
