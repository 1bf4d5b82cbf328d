package archive

import (
	"time"

	"chatlog-archive/internal/domain"
)

// Day — суточное окно журнала канала: полуинтервал [полночь, полночь+24ч)
// в заданном часовом поясе. Границы окна считаются в местном времени,
// сравнение с метками сообщений — в UTC.
type Day struct {
	Channel domain.Channel
	Start   time.Time
}

// LoadLocation разбирает имя зоны IANA; неизвестная или пустая зона
// молча заменяется на UTC, запрос никогда не падает из-за tz.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfDay переводит момент в зону loc и усекает до местной полуночи.
func StartOfDay(ch domain.Channel, ts time.Time, loc *time.Location) Day {
	local := ts.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Day{Channel: ch, Start: start}
}

// DayOfDate строит окно для календарной даты. Возвращает ErrInvalidDate,
// если такой даты не существует.
func DayOfDate(ch domain.Channel, year, month, day int, loc *time.Location) (Day, error) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if start.Year() != year || start.Month() != time.Month(month) || start.Day() != day {
		return Day{}, domain.ErrInvalidDate
	}
	return Day{Channel: ch, Start: start}, nil
}

// Interval возвращает границы окна: [Start, Start+24ч).
func (d Day) Interval() (time.Time, time.Time) {
	return d.Start, d.Start.Add(24 * time.Hour)
}

// Date возвращает календарную дату окна.
func (d Day) Date() (year, month, day int) {
	return d.Start.Year(), int(d.Start.Month()), d.Start.Day()
}

// Equal сравнивает окна: совпадать должны канал, дата и часовой пояс.
func (d Day) Equal(other Day) bool {
	return d.Channel.ID == other.Channel.ID && d.Start.Equal(other.Start) &&
		d.Start.Location().String() == other.Start.Location().String()
}
