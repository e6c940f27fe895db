// Пакет views — HTML-компоненты консоли (templ.Component).
// Компоненты собираются через templ.ComponentFunc; текст экранируется
// templ.EscapeString, ссылки проходят через templ.URL.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter накапливает первую ошибку записи, чтобы компоненты
// не проверяли ошибку после каждого фрагмента.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw пишет строку без экранирования (только разметка компонента).
func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// text пишет экранированный текст.
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// rawf форматирует разметку; строковые аргументы должны быть уже экранированы.
func (hw *htmlWriter) rawf(format string, args ...any) {
	hw.raw(fmt.Sprintf(format, args...))
}

// render вставляет вложенный компонент.
func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// component оборачивает функцию отрисовки в templ.Component.
func component(fn func(ctx context.Context, hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		fn(ctx, hw)
		return hw.err
	})
}

// attr экранирует значение атрибута.
func attr(s string) string {
	return templ.EscapeString(s)
}

// href возвращает безопасную экранированную ссылку.
func href(u string) string {
	return templ.EscapeString(string(templ.URL(u)))
}

// disabled возвращает атрибут disabled при !enabled.
func disabled(enabled bool) string {
	if enabled {
		return ""
	}
	return " disabled"
}
