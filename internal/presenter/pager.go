package presenter

// TotalPages is ceil(count/size). An empty list has zero pages.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Page returns the 1-based page of items. Out of range pages are empty.
func Page[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// Pager walks a list in fixed-size pages. Next and Previous are no-ops at the bounds.
type Pager[T any] struct {
	items []T
	size  int
	page  int
}

// NewPager starts at page 1.
func NewPager[T any](items []T, size int) *Pager[T] {
	if size < 1 {
		size = 1
	}
	return &Pager[T]{items: items, size: size, page: 1}
}

// Reset replaces the items and returns to page 1.
func (p *Pager[T]) Reset(items []T) {
	p.items = items
	p.page = 1
}

// Page is the current 1-based page number.
func (p *Pager[T]) Page() int { return p.page }

// TotalPages is the page count of the current items.
func (p *Pager[T]) TotalPages() int { return TotalPages(len(p.items), p.size) }

// Items returns the current page.
func (p *Pager[T]) Items() []T { return Page(p.items, p.page, p.size) }

// Next advances one page unless already on the last one.
func (p *Pager[T]) Next() bool {
	if p.page >= p.TotalPages() {
		return false
	}
	p.page++
	return true
}

// Previous goes back one page unless already on the first one.
func (p *Pager[T]) Previous() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// PageView is the serialisable state of a pager.
type PageView[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrevious"`
}

// View snapshots the pager.
func (p *Pager[T]) View() PageView[T] {
	total := p.TotalPages()
	return PageView[T]{
		Items:      p.Items(),
		Page:       p.page,
		TotalPages: total,
		HasNext:    p.page < total,
		HasPrev:    p.page > 1,
	}
}
