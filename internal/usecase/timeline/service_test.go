package timeline

import (
	"context"
	"testing"
	"time"

	"chatlog-archive/internal/domain"
)

type stubMonths struct {
	months []time.Time
}

func (s *stubMonths) MonthsActive(context.Context, domain.Channel) ([]time.Time, error) {
	return s.months, nil
}

func (s *stubMonths) ListRange(context.Context, domain.Channel, time.Time, time.Time) ([]domain.Message, error) {
	return nil, nil
}
func (s *stubMonths) CountRange(context.Context, domain.Channel, time.Time, time.Time) (int, error) {
	return 0, nil
}
func (s *stubMonths) LatestBefore(context.Context, domain.Channel, time.Time) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubMonths) EarliestSince(context.Context, domain.Channel, time.Time) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubMonths) Search(context.Context, domain.Channel, string, string) ([]domain.Message, error) {
	return nil, nil
}
func (s *stubMonths) GetByID(context.Context, int64) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubMonths) LastExit(context.Context, domain.Channel, string) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubMonths) NextJoin(context.Context, domain.Channel, string, time.Time) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubMonths) ListBetween(context.Context, domain.Channel, time.Time, *time.Time) ([]domain.Message, error) {
	return nil, nil
}
func (s *stubMonths) Append(context.Context, int64, []domain.Message) error { return nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildEmptyCatalog(t *testing.T) {
	svc := NewService(&stubMonths{}, fixedClock{now: date(2024, 3, 15)})
	buckets, err := svc.Build(context.Background(), domain.Channel{ID: 1})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !buckets.Empty() {
		t.Fatalf("пустой каталог должен давать пустой результат")
	}
}

func TestBuildWeekBoundaries(t *testing.T) {
	// 2024-03-15 — пятница; понедельник этой недели — 2024-03-11
	store := &stubMonths{months: []time.Time{date(2023, 11, 1), date(2023, 12, 1), date(2024, 1, 1)}}
	svc := NewService(store, fixedClock{now: date(2024, 3, 15).Add(13 * time.Hour)})

	buckets, err := svc.Build(context.Background(), domain.Channel{ID: 1})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !buckets.ThisWeek.Equal(date(2024, 3, 11)) {
		t.Fatalf("ожидали понедельник 2024-03-11, получили %v", buckets.ThisWeek)
	}
	if !buckets.LastWeek.Equal(date(2024, 3, 4)) {
		t.Fatalf("ожидали 2024-03-04, получили %v", buckets.LastWeek)
	}
	if len(buckets.Months) != 2 {
		t.Fatalf("последний месяц выделяется из каталога, осталось %d", len(buckets.Months))
	}
	// январь далеко в прошлом — корректировка не нужна
	if !buckets.LastMonth.Adjusted.Equal(buckets.LastMonth.Real) {
		t.Fatalf("не ожидали корректировку: %+v", buckets.LastMonth)
	}
}

func TestBuildAdjustsOverlappingLastMonth(t *testing.T) {
	// последний месяц ровно на границе прошлой недели — граница включается
	lastWeek := date(2024, 3, 4)
	store := &stubMonths{months: []time.Time{date(2024, 2, 1), lastWeek}}
	svc := NewService(store, fixedClock{now: date(2024, 3, 15)})

	buckets, err := svc.Build(context.Background(), domain.Channel{ID: 1})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !buckets.LastMonth.Real.Equal(lastWeek) {
		t.Fatalf("реальная дата не должна меняться, получили %v", buckets.LastMonth.Real)
	}
	if !buckets.LastMonth.Adjusted.Equal(lastWeek.AddDate(0, 0, -1)) {
		t.Fatalf("ожидали сдвиг на день перед границей недели, получили %v", buckets.LastMonth.Adjusted)
	}
}

func TestBuildMondayStartOfWeek(t *testing.T) {
	// в воскресенье неделя всё ещё начинается с прошлого понедельника
	store := &stubMonths{months: []time.Time{date(2024, 1, 1)}}
	svc := NewService(store, fixedClock{now: date(2024, 3, 17)})

	buckets, err := svc.Build(context.Background(), domain.Channel{ID: 1})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !buckets.ThisWeek.Equal(date(2024, 3, 11)) {
		t.Fatalf("ожидали понедельник 2024-03-11, получили %v", buckets.ThisWeek)
	}
}
