package console

import (
	"strings"
	"time"

	"github.com/bigkaa/manual-console/internal/domain/model"
)

// Поля, вычисляемые при загрузке страницы.
const (
	// FieldAge — давность публикации ("> 2 years" и т.д.)
	FieldAge = "age"
	// FieldCreatedAt — время загрузки записи
	FieldCreatedAt = "created_at"
	// FieldUpdatedAt — время последнего изменения записи
	FieldUpdatedAt = "updated_at"
)

// Корзины давности публикации.
const (
	AgeOverTwoYears = "> 2 years"
	AgeOverOneYear  = "> 1 year"
	AgeOverSixMonth = "> 6 months"
	AgeOverOneMonth = "> 1 month"
)

// DisplayDateLayout — формат дат в таблицах (DD-MM-YYYY).
const DisplayDateLayout = "02-01-2006"

// dateLayouts — принимаемые форматы дат сервера.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	DisplayDateLayout,
}

// Enricher вычисляет поля для отображения из полей ответа сервера.
type Enricher interface {
	Enrich(rec *model.Record)
}

// FieldEnricher форматирует даты и вычисляет давность публикации.
// Результат зависит только от записи и значения Now.
type FieldEnricher struct {
	// Now — источник текущего времени (nil — time.Now)
	Now func() time.Time
	// DateFields — поля, переформатируемые в DD-MM-YYYY
	DateFields []string
	// Age — вычислять ли поле age по publication_date
	Age bool
}

// Enrich дополняет запись вычисленными полями.
// Исходные значения перезаписанных полей сохраняются в rec.Raw.
// Отсутствующая или некорректная дата не является ошибкой.
func (e FieldEnricher) Enrich(rec *model.Record) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	if e.Age {
		published, ok := parseDate(rec.Fields[model.FieldPublicationDate])
		months := 0
		if ok {
			months = monthsElapsed(published, now())
		}
		rec.SetDerived(FieldAge, AgeBucket(months))
	}

	for _, key := range e.DateFields {
		raw, exists := rec.Fields[key]
		if !exists {
			continue
		}
		if t, ok := parseDate(raw); ok {
			rec.SetDerived(key, t.Format(DisplayDateLayout))
		} else {
			rec.SetDerived(key, "")
		}
	}
}

// AgeBucket возвращает корзину давности по числу полных месяцев.
// Границы строгие: ровно 24 месяца — это "> 1 year".
func AgeBucket(months int) string {
	switch {
	case months > 24:
		return AgeOverTwoYears
	case months > 12:
		return AgeOverOneYear
	case months > 6:
		return AgeOverSixMonth
	default:
		return AgeOverOneMonth
	}
}

// monthsElapsed считает полные календарные месяцы между from и to.
// Месяц не засчитывается, пока день (а затем время суток) to не достиг from.
func monthsElapsed(from, to time.Time) int {
	from = from.UTC()
	to = to.UTC()
	if !to.After(from) {
		return 0
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() || (to.Day() == from.Day() && clockOf(to) < clockOf(from)) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// parseDate разбирает дату в одном из поддерживаемых форматов.
func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
