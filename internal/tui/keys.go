package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/bigkaa/manual-console/internal/console"
)

// keyMap — привязки клавиш терминальной консоли.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Clear     key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	NextKind  key.Binding
	PrevKind  key.Binding
	Refresh   key.Binding
	RowStatus key.Binding
	Help      key.Binding
	Quit      key.Binding

	// Actions — пакетные действия; показываются только доступные на странице
	Actions map[console.ActionKind]key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "вверх")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "вниз")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "выбрать")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "снять выбор")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "пред. страница")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "след. страница")),
		NextKind:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "след. раздел")),
		PrevKind:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "пред. раздел")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "обновить")),
		RowStatus: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "статус строки")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "справка")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "выход")),
		Actions: map[console.ActionKind]key.Binding{
			console.ActionArchive:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "архивировать")),
			console.ActionUnarchive:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "восстановить")),
			console.ActionDelete:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "удалить")),
			console.ActionApprove:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "одобрить")),
			console.ActionPrepareJSONL:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "JSONL")),
			console.ActionStartFineTune: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fine-tune")),
		},
	}
}

// ShortHelp реализует help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.NextPage, k.NextKind, k.Help, k.Quit}
}

// FullHelp реализует help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Clear},
		{k.PrevPage, k.NextPage, k.Refresh},
		{k.NextKind, k.PrevKind, k.RowStatus},
		{k.Help, k.Quit},
	}
}
