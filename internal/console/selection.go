package console

import "github.com/bigkaa/manual-console/internal/domain/model"

// Selection — множество выбранных идентификаторов текущей страницы.
// Флаг Selected записи и членство в множестве всегда совпадают:
// оба меняются только через Toggle и Reset.
type Selection struct {
	order []model.ID
	set   map[model.ID]struct{}
}

// NewSelection создаёт пустое множество.
func NewSelection() *Selection {
	return &Selection{set: make(map[model.ID]struct{})}
}

// Toggle инвертирует выбор записи с идентификатором id.
// Возвращает новое состояние и ok=false, если записи нет на странице.
func (s *Selection) Toggle(records []*model.Record, id model.ID) (selected bool, ok bool) {
	rec := findRecord(records, id)
	if rec == nil {
		return false, false
	}

	rec.Selected = !rec.Selected
	if rec.Selected {
		s.set[id] = struct{}{}
		s.order = append(s.order, id)
	} else {
		delete(s.set, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return rec.Selected, true
}

// Reset очищает множество и снимает флаг Selected со всех записей.
func (s *Selection) Reset(records []*model.Record) {
	for _, rec := range records {
		rec.Selected = false
	}
	s.order = nil
	clear(s.set)
}

// Len возвращает количество выбранных записей.
func (s *Selection) Len() int {
	return len(s.order)
}

// Contains сообщает, выбрана ли запись.
func (s *Selection) Contains(id model.ID) bool {
	_, ok := s.set[id]
	return ok
}

// IDs возвращает выбранные идентификаторы в порядке выбора.
func (s *Selection) IDs() []model.ID {
	out := make([]model.ID, len(s.order))
	copy(out, s.order)
	return out
}

func findRecord(records []*model.Record, id model.ID) *model.Record {
	for _, rec := range records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}
