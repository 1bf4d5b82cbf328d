package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/metrics"
)

func permalinkKey(id int64) string {
	return fmt.Sprintf("line:%d:permalink", id)
}

// ResolvePermalink находит страницу дня, на которой лежит сообщение.
// Результат кэшируется навсегда: журнал только дополняется, поэтому
// страница исторического сообщения никогда не меняется. День постоянной
// ссылки всегда считается в UTC, чтобы кэш не зависел от зоны запроса.
func (s *Service) ResolvePermalink(ctx context.Context, ch domain.Channel, msgID int64) (domain.PermalinkTarget, error) {
	msg, err := s.messages.GetByID(ctx, msgID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.PermalinkTarget{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PermalinkTarget{}, fmt.Errorf("получение сообщения: %w", err)
	}
	if msg.ChannelID != ch.ID {
		return domain.PermalinkTarget{}, domain.ErrNotFound
	}

	key := permalinkKey(msgID)
	if raw, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("permalink: кэш недоступен")
	} else if len(raw) > 0 {
		var target domain.PermalinkTarget
		if json.Unmarshal(raw, &target) == nil {
			metrics.IncPermalinkCache(true)
			return target, nil
		}
	}
	metrics.IncPermalinkCache(false)

	day := StartOfDay(ch, msg.Timestamp, time.UTC)
	start, end := day.Interval()
	msgs, err := s.messages.ListRange(ctx, ch, start, end)
	if err != nil {
		return domain.PermalinkTarget{}, fmt.Errorf("выборка дня сообщения: %w", err)
	}

	pageCount := PageCount(len(msgs), s.pageSize)
	for page := 1; page <= pageCount; page++ {
		for _, m := range Slice(msgs, page, s.pageSize) {
			if m.ID != msgID {
				continue
			}
			target := domain.PermalinkTarget{Date: day.Start, Page: page, MessageID: msgID}
			if raw, err := json.Marshal(target); err == nil {
				if err := s.cache.Set(ctx, key, raw, 0); err != nil {
					s.log.Warn().Err(err).Str("key", key).Msg("permalink: не удалось сохранить в кэш")
				}
			}
			return target, nil
		}
	}

	// сообщение числится за днём, в котором его нет — несогласованность данных
	return domain.PermalinkTarget{}, domain.ErrNotFound
}
