package console

import (
	"time"

	"github.com/bigkaa/manual-console/internal/domain/model"
)

// Column — колонка таблицы.
type Column struct {
	// Header — заголовок колонки
	Header string
	// Key — имя поля записи
	Key string
	// Width — относительная ширина в процентах
	Width int
	// Fallback — текст для пустого значения
	Fallback string
}

// RowAction — действие над отдельной строкой, привязанное к колонке
// (обновление статуса fine-tune).
type RowAction struct {
	// Column — колонка, в которой показывается кнопка
	Column string
	// TargetKey — поле записи с идентификатором файла или задачи
	TargetKey string
	// StatusKind — вид обновляемого статуса
	StatusKind model.StatusKind
}

// Schema — описание страницы для вида записей.
type Schema struct {
	Kind       model.Kind
	Title      string
	Columns    []Column
	Actions    []ActionKind
	RowActions []RowAction
	// DateFields — поля, форматируемые в DD-MM-YYYY
	DateFields []string
	// Age — вычислять давность публикации
	Age bool
}

// StatusProcessed — статус fine-tune, после которого обновление не требуется.
const StatusProcessed = "processed"

var manualDateFields = []string{model.FieldPublicationDate, FieldCreatedAt, FieldUpdatedAt}

var schemas = map[model.Kind]Schema{
	model.KindFiles: {
		Kind:  model.KindFiles,
		Title: "Files",
		Columns: []Column{
			{Header: "File", Key: "file_name", Width: 20},
			{Header: "Manufacturer", Key: model.FieldManufacturer, Width: 12},
			{Header: "Model", Key: model.FieldModel, Width: 12},
			{Header: "Year", Key: model.FieldYear, Width: 8},
			{Header: "Published", Key: model.FieldPublicationDate, Width: 12},
			{Header: "Age", Key: FieldAge, Width: 10},
			{Header: "Uploaded By", Key: "uploaded_by", Width: 12},
			{Header: "Uploaded", Key: FieldCreatedAt, Width: 12},
		},
		Actions:    []ActionKind{ActionArchive, ActionDelete, ActionUpdate},
		DateFields: manualDateFields,
		Age:        true,
	},
	model.KindArchived: {
		Kind:  model.KindArchived,
		Title: "Archived Files",
		Columns: []Column{
			{Header: "File", Key: "file_name", Width: 20},
			{Header: "Manufacturer", Key: model.FieldManufacturer, Width: 10},
			{Header: "Model", Key: model.FieldModel, Width: 10},
			{Header: "Year", Key: model.FieldYear, Width: 10},
			{Header: "Published", Key: model.FieldPublicationDate, Width: 10},
			{Header: "Uploaded By", Key: "uploaded_by", Width: 10},
		},
		Actions:    []ActionKind{ActionUnarchive, ActionDelete, ActionUpdate},
		DateFields: manualDateFields,
	},
	model.KindFAQs: {
		Kind:  model.KindFAQs,
		Title: "FAQ",
		Columns: []Column{
			{Header: "Question", Key: "question", Width: 30},
			{Header: "Answer", Key: "answer", Width: 50},
			{Header: "Approve", Key: "approve", Width: 10, Fallback: "No"},
		},
		Actions: []ActionKind{ActionApprove, ActionPrepareJSONL},
	},
	model.KindFineTune: {
		Kind:  model.KindFineTune,
		Title: "Fine-Tuning",
		Columns: []Column{
			{Header: "File Name", Key: "file_name", Width: 20},
			{Header: "File Status", Key: "file_status", Width: 15, Fallback: "NA"},
			{Header: "Finetune Model", Key: "finetune_model", Width: 25, Fallback: "NA"},
			{Header: "Finetune Base Model", Key: "finetune_base_model", Width: 25, Fallback: "NA"},
			{Header: "Finetune Status", Key: "finetune_status", Width: 15, Fallback: "NA"},
		},
		Actions: []ActionKind{ActionStartFineTune},
		RowActions: []RowAction{
			{Column: "file_status", TargetKey: "file_id", StatusKind: model.StatusKindFile},
			{Column: "finetune_status", TargetKey: "finetune_model_id", StatusKind: model.StatusKindFineTune},
		},
	},
}

// SchemaFor возвращает схему страницы для вида записей.
func SchemaFor(kind model.Kind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// Enricher возвращает обработчик полей для схемы.
func (s Schema) Enricher(now func() time.Time) Enricher {
	return FieldEnricher{Now: now, DateFields: s.DateFields, Age: s.Age}
}

// Exposes сообщает, доступно ли действие на странице.
func (s Schema) Exposes(action ActionKind) bool {
	if action == ActionRefreshStatus {
		return len(s.RowActions) > 0
	}
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// rowTarget возвращает цель обновления статуса status строки rec.
// false, если у строки нет такого статуса или он не требует обновления.
func (s Schema) rowTarget(rec *model.Record, status model.StatusKind) (*RefreshTarget, bool) {
	for _, ra := range s.RowActions {
		if ra.StatusKind == status {
			return s.rowActionFor(rec, ra.Column)
		}
	}
	return nil, false
}

// rowActionFor возвращает действие строки для колонки, если статус требует обновления.
func (s Schema) rowActionFor(rec *model.Record, column string) (*RefreshTarget, bool) {
	for _, ra := range s.RowActions {
		if ra.Column != column {
			continue
		}
		status := rec.RawString(ra.Column)
		if status == "" || status == StatusProcessed {
			return nil, false
		}
		return &RefreshTarget{TargetID: rec.RawString(ra.TargetKey), StatusKind: ra.StatusKind}, true
	}
	return nil, false
}

// affected — виды записей, которые действие меняет помимо своей страницы.
var affected = map[ActionKind][]model.Kind{
	ActionArchive:      {model.KindArchived},
	ActionUnarchive:    {model.KindFiles},
	ActionPrepareJSONL: {model.KindFineTune},
}

// AffectedKinds возвращает другие страницы, данные которых устарели
// после успешного действия action.
func AffectedKinds(action ActionKind) []model.Kind {
	return affected[action]
}
