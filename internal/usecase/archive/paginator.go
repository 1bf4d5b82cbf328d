package archive

import "chatlog-archive/internal/domain"

// SortDirection определяет, какой конец упорядоченной выборки считается
// первой страницей. Арифметику нарезки направление не меняет.
type SortDirection int

const (
	// Ascending — от старых к новым; используется дневными страницами.
	Ascending SortDirection = iota
	// Descending — от новых к старым; используется поиском.
	Descending
)

// PageCount возвращает ceil(total/pageSize), минимум 0.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Slice возвращает страницу page (нумерация с единицы) выборки items.
// Номер за пределами [1, PageCount] даёт пустой срез; не допускать таких
// номеров — обязанность вызывающего.
func Slice(items []domain.Message, page, pageSize int) []domain.Message {
	if page < 1 || pageSize < 1 {
		return nil
	}
	from := (page - 1) * pageSize
	if from >= len(items) {
		return nil
	}
	to := from + pageSize
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}
