package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/metrics"
)

var nickFilterRegex = regexp.MustCompile(`(?i)(\bnick:([\w\-]+)\b)`)

// Service реализует навигацию по архиву: дневные страницы, поиск,
// постоянные ссылки и пропущенную активность.
type Service struct {
	messages domain.MessageRepo
	channels domain.ChannelRepo
	cache    domain.Cache
	clock    domain.Clock
	pageSize int
	bigSize  int
	log      zerolog.Logger
}

// NewService создаёт сервис архива.
func NewService(messages domain.MessageRepo, channels domain.ChannelRepo, cache domain.Cache, clock domain.Clock, pageSize, bigSize int, log zerolog.Logger) *Service {
	if pageSize < 1 {
		pageSize = 150
	}
	return &Service{messages: messages, channels: channels, cache: cache, clock: clock, pageSize: pageSize, bigSize: bigSize, log: log}
}

// PageSpec — номер страницы из запроса: положительное целое либо литерал "last".
type PageSpec struct {
	Last   bool
	Number int
}

// ParsePageSpec разбирает параметр page; пустое значение означает первую страницу.
func ParsePageSpec(raw string) (PageSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PageSpec{Number: 1}, nil
	}
	if strings.EqualFold(raw, "last") {
		return PageSpec{Last: true}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return PageSpec{}, domain.ErrInvalidPage
	}
	return PageSpec{Number: n}, nil
}

// DayRequest — разобранный запрос дневной страницы. Нулевой год означает
// «текущий день, последняя страница» независимо от Page.
type DayRequest struct {
	Year  int
	Month int
	Day   int
	Page  PageSpec
	TZ    string
}

// DayPageResult — содержимое дневной страницы вместе с навигацией.
// Ненулевой Redirect означает, что запрошенный день пуст и вызывающий
// должен перенаправить на ближайший непустой.
type DayPageResult struct {
	Day       Day
	Messages  []domain.Message
	Page      int
	PageCount int
	Nav       Navigation
	Redirect  *PageRef
	Size      int
	Big       bool
}

// ResolveDayPage возвращает страницу журнала за день.
func (s *Service) ResolveDayPage(ctx context.Context, ch domain.Channel, req DayRequest) (DayPageResult, error) {
	metrics.IncPageRequest("day")
	loc := LoadLocation(req.TZ)

	var (
		day      Day
		err      error
		spec     = req.Page
		explicit = req.Year != 0
	)
	if explicit {
		day, err = DayOfDate(ch, req.Year, req.Month, req.Day, loc)
		if err != nil {
			return DayPageResult{}, err
		}
	} else {
		// без даты показываем сегодняшний день с хвоста
		day = StartOfDay(ch, s.clock.Now(), loc)
		spec = PageSpec{Last: true}
	}

	start, end := day.Interval()
	msgs, err := s.messages.ListRange(ctx, ch, start, end)
	if err != nil {
		return DayPageResult{}, fmt.Errorf("выборка дня: %w", err)
	}

	if len(msgs) == 0 && explicit {
		ref, ok, err := s.nearbyDay(ctx, day)
		if err != nil {
			return DayPageResult{}, err
		}
		if ok {
			return DayPageResult{Day: day, Redirect: &ref}, nil
		}
		// журнал целиком пуст — отдаём пустую страницу, это не ошибка
	}

	pageCount := PageCount(len(msgs), s.pageSize)
	page := 1
	switch {
	case spec.Last:
		if pageCount > 1 {
			page = pageCount
		}
	default:
		page = spec.Number
	}
	if page > pageCount && page > 1 {
		return DayPageResult{}, domain.ErrNotFound
	}

	nav, err := s.navigation(ctx, day, page, pageCount)
	if err != nil {
		return DayPageResult{}, err
	}

	size, err := s.channels.MessageCount(ctx, ch.ID)
	if err != nil {
		return DayPageResult{}, fmt.Errorf("размер канала: %w", err)
	}

	return DayPageResult{
		Day:       day,
		Messages:  Slice(msgs, page, s.pageSize),
		Page:      page,
		PageCount: pageCount,
		Nav:       nav,
		Size:      size,
		Big:       s.bigSize > 0 && size >= s.bigSize,
	}, nil
}

// SearchResult — страница результатов поиска. У поиска нет дневных границ,
// поэтому Prev и Next — чистая арифметика страниц (0 — страницы нет).
type SearchResult struct {
	Messages  []domain.Message
	Query     string
	Nick      string
	Page      int
	PageCount int
	Prev      int
	Next      int
}

// ResolveSearchPage выполняет поиск по журналу канала. Префикс nick:<имя>
// в запросе выделяется в отдельный фильтр по нику.
func (s *Service) ResolveSearchPage(ctx context.Context, ch domain.Channel, query string, spec PageSpec) (SearchResult, error) {
	metrics.IncPageRequest("search")

	nick := ""
	if m := nickFilterRegex.FindStringSubmatch(query); m != nil {
		query = strings.TrimSpace(strings.Replace(query, m[1], "", 1))
		nick = m[2]
	}

	msgs, err := s.messages.Search(ctx, ch, query, nick)
	if err != nil {
		return SearchResult{}, fmt.Errorf("поиск: %w", err)
	}

	pageCount := PageCount(len(msgs), s.pageSize)
	page := 1
	if spec.Last {
		if pageCount > 1 {
			page = pageCount
		}
	} else {
		page = spec.Number
	}
	if page > pageCount && page > 1 {
		return SearchResult{}, domain.ErrNotFound
	}

	res := SearchResult{
		Messages:  Slice(msgs, page, s.pageSize),
		Query:     query,
		Nick:      nick,
		Page:      page,
		PageCount: pageCount,
	}
	if page > 1 {
		res.Prev = page - 1
	}
	if page < pageCount {
		res.Next = page + 1
	}
	return res, nil
}

// ResolveMissedActivity возвращает сообщения между последним выходом
// пользователя из канала и его следующим возвращением (или до конца
// журнала, если возвращения не было).
func (s *Service) ResolveMissedActivity(ctx context.Context, ch domain.Channel, nick string) (domain.MissedActivity, error) {
	metrics.IncPageRequest("missed")

	exit, err := s.messages.LastExit(ctx, ch, nick)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.MissedActivity{}, domain.ErrNeverLeft
	}
	if err != nil {
		return domain.MissedActivity{}, fmt.Errorf("поиск выхода: %w", err)
	}

	var to *time.Time
	join, err := s.messages.NextJoin(ctx, ch, nick, exit.Timestamp)
	switch {
	case err == nil:
		to = &join.Timestamp
	case errors.Is(err, domain.ErrNotFound):
		// пользователь так и не вернулся — окно открыто справа
	default:
		return domain.MissedActivity{}, fmt.Errorf("поиск возвращения: %w", err)
	}

	msgs, err := s.messages.ListBetween(ctx, ch, exit.Timestamp, to)
	if err != nil {
		return domain.MissedActivity{}, fmt.Errorf("выборка окна: %w", err)
	}

	return domain.MissedActivity{
		Messages:   msgs,
		FetchAfter: exit.Timestamp.Add(-time.Millisecond),
	}, nil
}
