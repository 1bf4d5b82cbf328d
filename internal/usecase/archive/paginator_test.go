package archive

import (
	"testing"

	"chatlog-archive/internal/domain"
)

func TestPageCount(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 150, 0},
		{1, 150, 1},
		{150, 150, 1},
		{151, 150, 2},
		{300, 150, 2},
		{301, 150, 3},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := PageCount(c.total, c.size); got != c.want {
			t.Fatalf("PageCount(%d, %d): ожидали %d, получили %d", c.total, c.size, c.want, got)
		}
	}
}

func TestSlice(t *testing.T) {
	items := make([]domain.Message, 5)
	for i := range items {
		items[i] = domain.Message{ID: int64(i + 1)}
	}

	first := Slice(items, 1, 2)
	if len(first) != 2 || first[0].ID != 1 {
		t.Fatalf("ожидали первую страницу [1 2], получили %v", first)
	}
	last := Slice(items, 3, 2)
	if len(last) != 1 || last[0].ID != 5 {
		t.Fatalf("ожидали последнюю страницу [5], получили %v", last)
	}
	if got := Slice(items, 4, 2); got != nil {
		t.Fatalf("страница за пределами выборки должна быть пустой, получили %v", got)
	}
	if got := Slice(items, 0, 2); got != nil {
		t.Fatalf("нулевая страница должна быть пустой, получили %v", got)
	}
}
