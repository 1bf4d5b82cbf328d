package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chatlog-archive/internal/domain"
)

type stubSink struct {
	appended []domain.Message
}

func (s *stubSink) Append(_ context.Context, channelID int64, msgs []domain.Message) error {
	for _, m := range msgs {
		m.ChannelID = channelID
		s.appended = append(s.appended, m)
	}
	return nil
}

func (s *stubSink) ListRange(context.Context, domain.Channel, time.Time, time.Time) ([]domain.Message, error) {
	return nil, nil
}
func (s *stubSink) CountRange(context.Context, domain.Channel, time.Time, time.Time) (int, error) {
	return 0, nil
}
func (s *stubSink) LatestBefore(context.Context, domain.Channel, time.Time) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubSink) EarliestSince(context.Context, domain.Channel, time.Time) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubSink) Search(context.Context, domain.Channel, string, string) ([]domain.Message, error) {
	return nil, nil
}
func (s *stubSink) GetByID(context.Context, int64) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubSink) LastExit(context.Context, domain.Channel, string) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubSink) NextJoin(context.Context, domain.Channel, string, time.Time) (domain.Message, error) {
	return domain.Message{}, domain.ErrNotFound
}
func (s *stubSink) ListBetween(context.Context, domain.Channel, time.Time, *time.Time) ([]domain.Message, error) {
	return nil, nil
}
func (s *stubSink) MonthsActive(context.Context, domain.Channel) ([]time.Time, error) {
	return nil, nil
}

func (s *stubSink) GetBySlug(context.Context, string) (domain.Channel, error) {
	return domain.Channel{ID: 5, Slug: "go"}, nil
}
func (s *stubSink) GetOrCreateByName(context.Context, string) (domain.Channel, error) {
	return domain.Channel{ID: 5, Slug: "go"}, nil
}
func (s *stubSink) MessageCount(context.Context, int64) (int, error) { return 0, nil }

func newTestService(t *testing.T, sink *stubSink, prefixes []string) *Service {
	t.Helper()
	svc, err := NewService(nil, sink, sink, prefixes, zerolog.Nop())
	if err != nil {
		t.Fatalf("не ожидали ошибку конструктора: %v", err)
	}
	return svc
}

func TestParseSkipsPrivateQueries(t *testing.T) {
	svc := newTestService(t, &stubSink{}, nil)
	if _, keep := svc.Parse(domain.LogLine{Channel: "alice", Text: "привет"}); keep {
		t.Fatalf("строки вне каналов не логируются")
	}
}

func TestParseStripsActionPrefix(t *testing.T) {
	svc := newTestService(t, &stubSink{}, nil)
	msg, keep := svc.Parse(domain.LogLine{Channel: "#go", Nick: "alice", Text: "ACTION машет рукой", Command: "MESSAGE"})
	if !keep {
		t.Fatalf("ожидали сохранение строки")
	}
	if msg.Text != "машет рукой" {
		t.Fatalf("префикс ACTION должен отрезаться, получили %q", msg.Text)
	}
}

func TestParseIgnoresConfiguredPrefixes(t *testing.T) {
	svc := newTestService(t, &stubSink{}, []string{"!-"})
	if _, keep := svc.Parse(domain.LogLine{Channel: "#go", Text: "!-secret"}); keep {
		t.Fatalf("игнорируемый префикс должен отбрасывать строку")
	}
	if _, keep := svc.Parse(domain.LogLine{Channel: "#go", Text: "обычный текст"}); !keep {
		t.Fatalf("обычная строка должна сохраняться")
	}
}

func TestProcessAppendsToChannel(t *testing.T) {
	sink := &stubSink{}
	svc := newTestService(t, sink, nil)

	line := domain.LogLine{Channel: "#go", Nick: "alice", Text: "привет", Command: "MESSAGE", ReceivedAt: time.Now()}
	if err := svc.Process(context.Background(), line); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(sink.appended) != 1 {
		t.Fatalf("ожидали одно сообщение в журнале, получили %d", len(sink.appended))
	}
	if sink.appended[0].ChannelID != 5 {
		t.Fatalf("сообщение должно попадать в найденный канал, получили %d", sink.appended[0].ChannelID)
	}
}

func TestProcessSkipsWithoutError(t *testing.T) {
	sink := &stubSink{}
	svc := newTestService(t, sink, nil)

	if err := svc.Process(context.Background(), domain.LogLine{Channel: "alice", Text: "query"}); err != nil {
		t.Fatalf("пропуск строки — не ошибка: %v", err)
	}
	if len(sink.appended) != 0 {
		t.Fatalf("пропущенная строка не должна сохраняться")
	}
}
