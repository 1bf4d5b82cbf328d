package timeline

import (
	"context"
	"fmt"
	"time"

	"chatlog-archive/internal/domain"
)

// MonthMark — последний месяц каталога: реальная дата и дата для сортировки.
type MonthMark struct {
	Real     time.Time `json:"real"`
	Adjusted time.Time `json:"adjusted"`
}

// Buckets — периоды боковой навигации: помесячные записи, границы
// недель и особый последний месяц. Пустой каталог даёт нулевое значение.
type Buckets struct {
	Months    []time.Time `json:"months"`
	ThisWeek  time.Time   `json:"this_week"`
	LastWeek  time.Time   `json:"last_week"`
	LastMonth MonthMark   `json:"last_month"`
}

// Empty сообщает, что отображать нечего.
func (b Buckets) Empty() bool { return b.ThisWeek.IsZero() }

// Service строит периоды навигации из каталога активных месяцев.
type Service struct {
	messages domain.MessageRepo
	clock    domain.Clock
}

// NewService создаёт сервис таймлайна.
func NewService(messages domain.MessageRepo, clock domain.Clock) *Service {
	return &Service{messages: messages, clock: clock}
}

// Build собирает периоды для канала. Границы недель считаются от
// сегодняшнего дня в UTC (неделя начинается с понедельника) независимо
// от зоны запроса — поведение исходного продукта сохранено намеренно.
func (s *Service) Build(ctx context.Context, ch domain.Channel) (Buckets, error) {
	months, err := s.messages.MonthsActive(ctx, ch)
	if err != nil {
		return Buckets{}, fmt.Errorf("каталог месяцев: %w", err)
	}
	if len(months) == 0 {
		return Buckets{}, nil
	}

	now := s.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	thisWeek := today.AddDate(0, 0, -int((today.Weekday()+6)%7))
	lastWeek := thisWeek.AddDate(0, 0, -7)

	// последний месяц каталога живьём пересекается с недельными периодами,
	// поэтому его дата сдвигается перед границу недели
	lastMonth := months[len(months)-1]
	adjusted := lastMonth
	if !lastMonth.Before(lastWeek) {
		adjusted = lastWeek.AddDate(0, 0, -1)
	} else if !lastMonth.Before(thisWeek) {
		adjusted = thisWeek.AddDate(0, 0, -1)
	}

	return Buckets{
		Months:    months[:len(months)-1],
		ThisWeek:  thisWeek,
		LastWeek:  lastWeek,
		LastMonth: MonthMark{Real: lastMonth, Adjusted: adjusted},
	}, nil
}
