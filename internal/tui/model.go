// Пакет tui — терминальная консоль: те же таблицы записей и пакетные
// действия, что и в веб-интерфейсе, поверх console.Container.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

// loadedMsg — загрузка страницы завершена.
type loadedMsg struct {
	kind model.Kind
}

// dispatchedMsg — пакетное действие завершено.
type dispatchedMsg struct {
	kind   model.Kind
	result console.Result
}

// Model — модель Bubbletea терминальной консоли.
type Model struct {
	ctx        context.Context
	containers []*console.Container
	active     int
	cursor     int
	busy       bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	note     *console.Notification
	width    int
	quitting bool
}

// New создаёт модель с контейнером для каждого вида записей.
func New(ctx context.Context, api console.API, opts console.Options) (Model, error) {
	containers := make([]*console.Container, 0, len(model.Kinds))
	for _, kind := range model.Kinds {
		c, err := console.NewContainer(kind, api, opts)
		if err != nil {
			return Model{}, fmt.Errorf("контейнер %s: %w", kind, err)
		}
		containers = append(containers, c)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctx:        ctx,
		containers: containers,
		spinner:    s,
		help:       help.New(),
		keys:       defaultKeys(),
	}, nil
}

// Init загружает первую страницу активного раздела.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.mountCmd())
}

func (m Model) container() *console.Container {
	return m.containers[m.active]
}

// mountCmd загружает первую страницу раздела при первом открытии.
func (m Model) mountCmd() tea.Cmd {
	c := m.container()
	ctx := m.ctx
	return func() tea.Msg {
		c.Mount(ctx)
		return loadedMsg{kind: c.Kind()}
	}
}

// loadCmd выполняет загрузку fn в фоне.
func (m Model) loadCmd(fn func(ctx context.Context, c *console.Container)) tea.Cmd {
	c := m.container()
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx, c)
		return loadedMsg{kind: c.Kind()}
	}
}

// dispatchCmd выполняет пакетное действие в фоне.
func (m Model) dispatchCmd(action console.ActionKind, extra console.Extra) tea.Cmd {
	c := m.container()
	ctx := m.ctx
	return func() tea.Msg {
		return dispatchedMsg{kind: c.Kind(), result: c.Dispatch(ctx, action, extra)}
	}
}

// Update обрабатывает клавиши и результаты фоновых операций.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.kind == m.container().Kind() {
			m.busy = false
			m.clampCursor()
		}
		return m, nil

	case dispatchedMsg:
		m.busy = false
		if msg.result.Err == nil {
			m.invalidateAffected(msg.result.Action)
		}
		note := msg.result.Notification
		m.note = &note
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.container().Snapshot().Rows)-1 {
			m.cursor++
		}
		return m, nil
	}

	// Во время загрузки таблица не принимает команды
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextKind):
		return m.switchKind(1)
	case key.Matches(msg, m.keys.PrevKind):
		return m.switchKind(-1)
	case key.Matches(msg, m.keys.Toggle):
		snap := m.container().Snapshot()
		if m.cursor < len(snap.Rows) {
			m.container().Toggle(snap.Rows[m.cursor].ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.container().ClearSelection()
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		if !m.container().Snapshot().HasNext {
			return m, nil
		}
		return m.startLoad(func(ctx context.Context, c *console.Container) { c.Next(ctx) })
	case key.Matches(msg, m.keys.PrevPage):
		if !m.container().Snapshot().HasPrev {
			return m, nil
		}
		return m.startLoad(func(ctx context.Context, c *console.Container) { c.Prev(ctx) })
	case key.Matches(msg, m.keys.Refresh):
		return m.startLoad(func(ctx context.Context, c *console.Container) { c.Refresh(ctx) })
	case key.Matches(msg, m.keys.RowStatus):
		return m.refreshRowStatus()
	}

	for action, binding := range m.keys.Actions {
		if key.Matches(msg, binding) {
			return m.dispatch(action, console.Extra{})
		}
	}
	return m, nil
}

func (m Model) startLoad(fn func(ctx context.Context, c *console.Container)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.note = nil
	return m, m.loadCmd(fn)
}

func (m Model) switchKind(delta int) (tea.Model, tea.Cmd) {
	n := len(m.containers)
	m.active = (m.active + delta + n) % n
	m.cursor = 0
	m.note = nil
	m.busy = true
	return m, m.mountCmd()
}

// dispatch запускает действие, если оно есть на странице.
func (m Model) dispatch(action console.ActionKind, extra console.Extra) (tea.Model, tea.Cmd) {
	if action != console.ActionRefreshStatus {
		if _, ok := m.container().Snapshot().Action(action); !ok {
			return m, nil
		}
	}
	m.busy = true
	m.note = nil
	return m, m.dispatchCmd(action, extra)
}

// refreshRowStatus обновляет первый статус строки под курсором.
func (m Model) refreshRowStatus() (tea.Model, tea.Cmd) {
	snap := m.container().Snapshot()
	if m.cursor >= len(snap.Rows) {
		return m, nil
	}
	row := snap.Rows[m.cursor]
	for _, cell := range row.Cells {
		if cell.Refresh == nil {
			continue
		}
		return m.dispatch(console.ActionRefreshStatus, console.Extra{
			RowID:      row.ID,
			TargetID:   cell.Refresh.TargetID,
			StatusKind: cell.Refresh.StatusKind,
		})
	}
	return m, nil
}

// invalidateAffected помечает устаревшими разделы, которые изменило действие.
func (m Model) invalidateAffected(action console.ActionKind) {
	for _, kind := range console.AffectedKinds(action) {
		for _, c := range m.containers {
			if c.Kind() == kind {
				c.Invalidate()
			}
		}
	}
}

func (m *Model) clampCursor() {
	rows := len(m.container().Snapshot().Rows)
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
