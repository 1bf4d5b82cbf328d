package archive

import (
	"testing"
	"time"

	"chatlog-archive/internal/domain"
)

func TestStartOfDayRoundTrip(t *testing.T) {
	ch := domain.Channel{ID: 1, Slug: "go"}
	loc := LoadLocation("Europe/Amsterdam")
	ts := time.Date(2024, 3, 15, 22, 45, 11, 0, time.UTC)

	day := StartOfDay(ch, ts, loc)
	start, end := day.Interval()
	if !end.Equal(start.Add(24 * time.Hour)) {
		t.Fatalf("ожидали окно ровно 24 часа, получили %v", end.Sub(start))
	}
	if !StartOfDay(ch, start, loc).Equal(day) {
		t.Fatalf("начало окна должно попадать в то же окно")
	}
	local := ts.In(loc)
	if day.Start.Day() != local.Day() {
		t.Fatalf("ожидали местную дату %d, получили %d", local.Day(), day.Start.Day())
	}
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	if LoadLocation("Mars/Olympus") != time.UTC {
		t.Fatalf("неизвестная зона должна заменяться на UTC")
	}
	if LoadLocation("") != time.UTC {
		t.Fatalf("пустая зона должна заменяться на UTC")
	}
}

func TestDayOfDateInvalid(t *testing.T) {
	ch := domain.Channel{ID: 1}
	if _, err := DayOfDate(ch, 2024, 2, 30, time.UTC); err != domain.ErrInvalidDate {
		t.Fatalf("ожидали ErrInvalidDate для 30 февраля, получили %v", err)
	}
	if _, err := DayOfDate(ch, 2024, 13, 1, time.UTC); err != domain.ErrInvalidDate {
		t.Fatalf("ожидали ErrInvalidDate для 13 месяца, получили %v", err)
	}
	if _, err := DayOfDate(ch, 2024, 2, 29, time.UTC); err != nil {
		t.Fatalf("29 февраля 2024 существует: %v", err)
	}
}
