package archive

import (
	"context"
	"fmt"
	"time"
)

// PageRef — адрес страницы: местная полночь дня и номер страницы внутри него.
type PageRef struct {
	Date time.Time
	Page int
}

// Navigation — ссылки соседних страниц. Nil означает отсутствие ссылки.
// IsLiveTail выставляется на последней странице самого свежего дня:
// дальше журнала пока нет.
type Navigation struct {
	Prev       *PageRef
	Next       *PageRef
	Current    *PageRef
	IsLiveTail bool
}

// navigation строит ссылки для дневной страницы. Переход через границу
// дня прозрачно продолжается в ближайший непустой день: вперёд — на его
// первую страницу, назад — на последнюю.
func (s *Service) navigation(ctx context.Context, day Day, page, pageCount int) (Navigation, error) {
	var nav Navigation

	if page < pageCount {
		nav.Next = &PageRef{Date: day.Start, Page: page + 1}
	} else {
		next, ok, err := s.nextDay(ctx, day)
		if err != nil {
			return Navigation{}, err
		}
		if ok {
			// новый день — новая область, всегда с первой страницы
			nav.Next = &PageRef{Date: next.Start, Page: 1}
		} else {
			nav.IsLiveTail = true
		}
	}

	if page > 1 {
		nav.Prev = &PageRef{Date: day.Start, Page: page - 1}
	} else {
		prev, ok, err := s.previousDay(ctx, day)
		if err != nil {
			return Navigation{}, err
		}
		if ok {
			start, end := prev.Interval()
			total, err := s.messages.CountRange(ctx, day.Channel, start, end)
			if err != nil {
				return Navigation{}, fmt.Errorf("размер предыдущего дня: %w", err)
			}
			last := PageCount(total, s.pageSize)
			if last < 1 {
				last = 1
			}
			// назад попадаем на последнюю страницу, чтобы листать непрерывно
			nav.Prev = &PageRef{Date: prev.Start, Page: last}
		}
	}

	// «сейчас» — сегодняшний день в UTC, а не отображаемый;
	// якорь пересчитывается на каждый запрос
	today := StartOfDay(day.Channel, s.clock.Now(), time.UTC)
	nav.Current = &PageRef{Date: today.Start, Page: page}

	return nav, nil
}
