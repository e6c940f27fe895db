package model

// Поля метаданных загрузки (имена полей multipart-формы).
const (
	FieldManufacturer    = "manufacturer"
	FieldModel           = "model"
	FieldYear            = "year"
	FieldRevision        = "revision"
	FieldPublicationDate = "publication_date"
	FieldRegion          = "region"
	FieldSoftwareVersion = "software_version"
)

// UploadFields — поля метаданных в порядке отображения в форме.
var UploadFields = []string{
	FieldManufacturer,
	FieldModel,
	FieldYear,
	FieldRevision,
	FieldPublicationDate,
	FieldRegion,
	FieldSoftwareVersion,
}

// UploadMetadata — метаданные, отправляемые вместе с файлами.
// Ключ — имя поля из UploadFields.
type UploadMetadata map[string]string

// UploadFile — файл, выбранный для загрузки.
type UploadFile struct {
	// Name — имя файла
	Name string
	// ContentType — MIME-тип, заявленный клиентом
	ContentType string
	// Data — содержимое файла
	Data []byte
}

// UploadResult — результат загрузки (ответ POST /pdf-manuals).
// Каждый список содержит имена файлов.
type UploadResult struct {
	// Succeeded — успешно загруженные файлы
	Succeeded []string `json:"successResult"`
	// Failed — файлы, которые не удалось загрузить
	Failed []string `json:"failureResult"`
	// AlreadyExist — файлы, уже присутствующие на сервере
	AlreadyExist []string `json:"alreadyExist"`
}

// StatusKind — тип статуса строки fine-tune, обновляемого по запросу.
type StatusKind string

const (
	// StatusKindFile — статус обработки обучающего файла.
	StatusKindFile StatusKind = "FILE_STATUS"
	// StatusKindFineTune — статус задачи fine-tune.
	StatusKindFineTune StatusKind = "FINETUNE_STATUS"
)
