package archive

import (
	"context"
	"errors"
	"fmt"

	"chatlog-archive/internal/domain"
)

// previousDay находит ближайший день с сообщениями до начала окна.
// Один ограниченный запрос к хранилищу, полного сканирования нет.
func (s *Service) previousDay(ctx context.Context, day Day) (Day, bool, error) {
	msg, err := s.messages.LatestBefore(ctx, day.Channel, day.Start)
	if errors.Is(err, domain.ErrNotFound) {
		return Day{}, false, nil
	}
	if err != nil {
		return Day{}, false, fmt.Errorf("предыдущий день: %w", err)
	}
	return StartOfDay(day.Channel, msg.Timestamp, day.Start.Location()), true, nil
}

// nextDay находит ближайший день с сообщениями после конца окна.
func (s *Service) nextDay(ctx context.Context, day Day) (Day, bool, error) {
	_, end := day.Interval()
	msg, err := s.messages.EarliestSince(ctx, day.Channel, end)
	if errors.Is(err, domain.ErrNotFound) {
		return Day{}, false, nil
	}
	if err != nil {
		return Day{}, false, fmt.Errorf("следующий день: %w", err)
	}
	return StartOfDay(day.Channel, msg.Timestamp, day.Start.Location()), true, nil
}

// nearbyDay подбирает непустой день для редиректа с пустого: сначала
// смотрим в прошлое, и только если там ничего нет — в будущее.
func (s *Service) nearbyDay(ctx context.Context, day Day) (PageRef, bool, error) {
	msg, err := s.messages.LatestBefore(ctx, day.Channel, day.Start)
	if errors.Is(err, domain.ErrNotFound) {
		msg, err = s.messages.EarliestSince(ctx, day.Channel, day.Start)
		if errors.Is(err, domain.ErrNotFound) {
			return PageRef{}, false, nil
		}
	}
	if err != nil {
		return PageRef{}, false, fmt.Errorf("соседний день: %w", err)
	}
	target := StartOfDay(day.Channel, msg.Timestamp, day.Start.Location())
	return PageRef{Date: target.Start, Page: 1}, true, nil
}
