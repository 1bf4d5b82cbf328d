package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/metrics"
)

// Service читает сырые строки из очереди файрхоза и дописывает их в журнал.
type Service struct {
	lines    domain.LineQueue
	messages domain.MessageRepo
	channels domain.ChannelRepo
	ignore   []*regexp.Regexp
	log      zerolog.Logger
}

// NewService создаёт сервис приёма. ignorePrefixes — префиксы текста,
// строки с которыми не логируются (сравнение без учёта регистра).
func NewService(lines domain.LineQueue, messages domain.MessageRepo, channels domain.ChannelRepo, ignorePrefixes []string, log zerolog.Logger) (*Service, error) {
	compiled := make([]*regexp.Regexp, 0, len(ignorePrefixes))
	for _, prefix := range ignorePrefixes {
		re, err := regexp.Compile(`(?i)^` + regexp.QuoteMeta(prefix))
		if err != nil {
			return nil, fmt.Errorf("префикс игнорирования %q: %w", prefix, err)
		}
		compiled = append(compiled, re)
	}
	return &Service{lines: lines, messages: messages, channels: channels, ignore: compiled, log: log}, nil
}

// Run читает очередь до отмены контекста. Ошибки отдельных строк
// логируются и не останавливают приём.
func (s *Service) Run(ctx context.Context) error {
	session := uuid.NewString()
	log := s.log.With().Str("session", session).Logger()
	log.Info().Msg("ingest: приём запущен")
	for {
		line, err := s.lines.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("чтение очереди: %w", err)
		}
		if err := s.Process(ctx, line); err != nil {
			log.Error().Err(err).Str("channel", line.Channel).Msg("ingest: строка не сохранена")
		}
	}
}

// Process разбирает и сохраняет одну строку. Строки вне каналов
// (приватные /query) и строки с игнорируемыми префиксами пропускаются.
func (s *Service) Process(ctx context.Context, line domain.LogLine) error {
	msg, keep := s.Parse(line)
	if !keep {
		metrics.IncIngestSkipped()
		return nil
	}

	ch, err := s.channels.GetOrCreateByName(ctx, line.Channel)
	if err != nil {
		return fmt.Errorf("канал %s: %w", line.Channel, err)
	}
	if err := s.messages.Append(ctx, ch.ID, []domain.Message{msg}); err != nil {
		return fmt.Errorf("запись в журнал: %w", err)
	}
	metrics.IncIngestStored()
	return nil
}

// Parse превращает сырую строку в сообщение журнала. Второй результат
// сообщает, нужно ли её сохранять.
func (s *Service) Parse(line domain.LogLine) (domain.Message, bool) {
	if !strings.HasPrefix(line.Channel, "#") {
		return domain.Message{}, false
	}

	// /me приходит с префиксом ACTION
	text := strings.TrimPrefix(line.Text, "ACTION ")
	for _, re := range s.ignore {
		if re.MatchString(text) {
			return domain.Message{}, false
		}
	}

	return domain.Message{
		Timestamp: line.ReceivedAt.UTC(),
		Nick:      line.Nick,
		Text:      text,
		Command:   line.Command,
		Host:      line.Host,
		Raw:       line.Raw,
	}, true
}
