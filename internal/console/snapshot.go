package console

import "github.com/bigkaa/manual-console/internal/domain/model"

// Snapshot — неизменяемое представление контейнера для отрисовки.
type Snapshot struct {
	Kind          model.Kind
	Title         string
	State         State
	Error         string
	Columns       []Column
	Rows          []Row
	Page          int
	TotalPages    int
	HasPrev       bool
	HasNext       bool
	Actions       []ActionState
	SelectedCount int
}

// Row — строка таблицы.
type Row struct {
	ID       model.ID
	Selected bool
	Cells    []Cell
}

// Cell — ячейка таблицы.
type Cell struct {
	Key  string
	Text string
	// Refresh — кнопка обновления статуса (nil — нет кнопки)
	Refresh *RefreshTarget
}

// RefreshTarget — параметры обновления статуса строки.
type RefreshTarget struct {
	TargetID   string
	StatusKind model.StatusKind
}

// ActionState — кнопка пакетного действия.
type ActionState struct {
	Kind    ActionKind
	Enabled bool
	Running bool
}

// Snapshot возвращает текущее состояние контейнера.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Kind:          c.schema.Kind,
		Title:         c.schema.Title,
		State:         c.state,
		Error:         c.errMsg,
		Columns:       c.schema.Columns,
		Page:          c.pagination.Current(),
		TotalPages:    c.pagination.Total(),
		HasPrev:       c.pagination.HasPrev(),
		HasNext:       c.pagination.HasNext(),
		SelectedCount: c.selection.Len(),
	}

	for _, action := range c.schema.Actions {
		running := c.dispatcher.InFlight(action)
		snap.Actions = append(snap.Actions, ActionState{
			Kind:    action,
			Enabled: c.state == StateReady && !running && CanDispatch(action, c.selection.Len()),
			Running: running,
		})
	}

	if c.state != StateReady {
		return snap
	}

	snap.Rows = make([]Row, 0, len(c.records))
	for _, rec := range c.records {
		row := Row{ID: rec.ID, Selected: rec.Selected, Cells: make([]Cell, 0, len(c.schema.Columns))}
		for _, col := range c.schema.Columns {
			cell := Cell{Key: col.Key, Text: rec.Display(col.Key)}
			if cell.Text == "" {
				cell.Text = col.Fallback
			}
			if target, ok := c.schema.rowActionFor(rec, col.Key); ok {
				cell.Refresh = target
			}
			row.Cells = append(row.Cells, cell)
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap
}

// Action возвращает состояние кнопки действия.
func (s Snapshot) Action(kind ActionKind) (ActionState, bool) {
	for _, a := range s.Actions {
		if a.Kind == kind {
			return a, true
		}
	}
	return ActionState{}, false
}
