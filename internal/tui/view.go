package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bigkaa/manual-console/internal/console"
)

// tableWidth — ширина таблицы по умолчанию до получения WindowSizeMsg.
const tableWidth = 120

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	enabledStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	noteStyles = map[console.Level]lipgloss.Style{
		console.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		console.LevelError:   errorStyle,
		console.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		console.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

// View отрисовывает вкладки, таблицу, действия и строку уведомлений.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.container().Snapshot()
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch snap.State {
	case console.StateLoading:
		b.WriteString(m.spinner.View() + " Загрузка...\n")
	case console.StateError:
		b.WriteString(errorStyle.Render(snap.Error) + "\n")
	default:
		b.WriteString(m.renderTable(snap))
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Page %d of %d  ·  Selected: %d", snap.Page, max(snap.TotalPages, 1), snap.SelectedCount)))
	b.WriteString("\n")
	b.WriteString(m.renderActions(snap))
	b.WriteString("\n")

	if m.busy && snap.State != console.StateLoading {
		b.WriteString(m.spinner.View() + "\n")
	} else if m.note != nil {
		b.WriteString(noteStyles[m.note.Level].Render(m.note.Message) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.containers))
	for i, c := range m.containers {
		title := fmt.Sprintf("%d %s", i+1, c.Schema().Title)
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, tabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// columnWidths переводит относительные ширины колонок в символы.
func (m Model) columnWidths(cols []console.Column) []int {
	total := m.width
	if total <= 0 {
		total = tableWidth
	}
	// Место под курсор и отметку выбора
	total -= 6

	widths := make([]int, len(cols))
	for i, col := range cols {
		w := total * col.Width / 100
		if w < 4 {
			w = 4
		}
		widths[i] = w
	}
	return widths
}

func (m Model) renderTable(snap console.Snapshot) string {
	widths := m.columnWidths(snap.Columns)
	var b strings.Builder

	header := make([]string, len(snap.Columns))
	for i, col := range snap.Columns {
		header[i] = pad(col.Header, widths[i])
	}
	b.WriteString("      " + headerStyle.Render(strings.Join(header, " ")) + "\n")

	if len(snap.Rows) == 0 {
		b.WriteString(mutedStyle.Render("      No records") + "\n")
		return b.String()
	}

	for i, row := range snap.Rows {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ] "
		if row.Selected {
			check = selectedStyle.Render("[x] ")
		}

		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			text := cell.Text
			if cell.Refresh != nil {
				text += " ↻"
			}
			cells[j] = pad(text, widths[j])
		}
		line := strings.Join(cells, " ")
		if row.Selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + check + line + "\n")
	}
	return b.String()
}

func (m Model) renderActions(snap console.Snapshot) string {
	parts := make([]string, 0, len(snap.Actions))
	for _, a := range snap.Actions {
		binding, ok := m.keys.Actions[a.Kind]
		if !ok {
			continue
		}
		label := fmt.Sprintf("[%s] %s", binding.Help().Key, binding.Help().Desc)
		switch {
		case a.Running:
			parts = append(parts, enabledStyle.Render(label+" "+m.spinner.View()))
		case a.Enabled:
			parts = append(parts, enabledStyle.Render(label))
		default:
			parts = append(parts, mutedStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

// pad обрезает или дополняет текст пробелами до ширины w.
func pad(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		if w <= 1 {
			return string(r[:w])
		}
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(r))
}
