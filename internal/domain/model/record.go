// Пакет model — доменные модели Manual Console.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID — стабильный идентификатор записи, назначенный сервером.
// Числовые идентификаторы из JSON приводятся к десятичной строке.
type ID string

// Kind — вид записей, отображаемых отдельной страницей консоли.
type Kind string

const (
	// KindFiles — загруженные PDF-руководства (неархивные).
	KindFiles Kind = "files"
	// KindArchived — архивированные PDF-руководства.
	KindArchived Kind = "archived"
	// KindFAQs — FAQ, полученные из руководств.
	KindFAQs Kind = "faqs"
	// KindFineTune — обучающие файлы и задачи fine-tune.
	KindFineTune Kind = "finetune"
)

// Kinds — все виды записей в порядке отображения в навигации.
var Kinds = []Kind{KindFiles, KindArchived, KindFAQs, KindFineTune}

// ParseKind преобразует строку в Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Record — одна строка таблицы консоли.
// Схема полей зависит от вида записи, поэтому поля хранятся как map.
type Record struct {
	// ID — идентификатор записи (поле "id" ответа сервера)
	ID ID
	// Fields — значения для отображения (после обогащения)
	Fields map[string]any
	// Raw — исходные значения полей, перезаписанных при обогащении
	Raw map[string]any
	// Selected — отметка строки в UI, на сервер не отправляется
	Selected bool
}

// NewRecord создаёт запись из полей ответа сервера.
// Возвращает ошибку, если поле "id" отсутствует или пустое.
func NewRecord(fields map[string]any) (*Record, error) {
	id, ok := IDFromValue(fields["id"])
	if !ok {
		return nil, fmt.Errorf("запись без идентификатора: %v", fields["id"])
	}
	return &Record{
		ID:     id,
		Fields: fields,
		Raw:    make(map[string]any),
	}, nil
}

// IDFromValue приводит значение поля "id" к ID.
func IDFromValue(v any) (ID, bool) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		return ID(id), id != ""
	case json.Number:
		return ID(id.String()), id.String() != ""
	case float64:
		return ID(strconv.FormatFloat(id, 'f', -1, 64)), true
	case int:
		return ID(strconv.Itoa(id)), true
	case int64:
		return ID(strconv.FormatInt(id, 10)), true
	default:
		return "", false
	}
}

// SetDerived записывает вычисленное значение поля для отображения.
// Исходное значение сохраняется в Raw один раз и больше не перезаписывается.
func (r *Record) SetDerived(key string, value any) {
	if original, exists := r.Fields[key]; exists {
		if _, saved := r.Raw[key]; !saved {
			r.Raw[key] = original
		}
	}
	r.Fields[key] = value
}

// RawValue возвращает исходное значение поля (до обогащения).
func (r *Record) RawValue(key string) any {
	if v, ok := r.Raw[key]; ok {
		return v
	}
	return r.Fields[key]
}

// Display возвращает значение поля в виде строки для отображения.
func (r *Record) Display(key string) string {
	return FormatValue(r.Fields[key])
}

// RawString возвращает исходное значение поля в виде строки.
func (r *Record) RawString(key string) string {
	return FormatValue(r.RawValue(key))
}

// FormatValue форматирует произвольное JSON-значение в строку.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(val)
	}
}
