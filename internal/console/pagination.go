package console

// Pagination — текущая страница и количество страниц.
// Инвариант: 1 <= current <= total.
type Pagination struct {
	current int
	total   int
}

// NewPagination создаёт пагинацию на первой из одной страниц.
func NewPagination() Pagination {
	return Pagination{current: 1, total: 1}
}

// GoTo переходит на страницу page.
// Возвращает false (без изменений) для страницы вне [1, total] или текущей.
func (p *Pagination) GoTo(page int) bool {
	if page < 1 || page > p.total || page == p.current {
		return false
	}
	p.current = page
	return true
}

// SetTotal задаёт количество страниц из ответа сервера (минимум 1)
// и при необходимости сдвигает текущую страницу в допустимый диапазон.
func (p *Pagination) SetTotal(total int) {
	if total < 1 {
		total = 1
	}
	p.total = total
	if p.current > total {
		p.current = total
	}
	if p.current < 1 {
		p.current = 1
	}
}

// Current возвращает номер текущей страницы.
func (p Pagination) Current() int { return p.current }

// Total возвращает количество страниц.
func (p Pagination) Total() int { return p.total }

// HasPrev сообщает, есть ли предыдущая страница.
func (p Pagination) HasPrev() bool { return p.current > 1 }

// HasNext сообщает, есть ли следующая страница.
func (p Pagination) HasNext() bool { return p.current < p.total }
