package domain

import (
	"context"
	"time"
)

// MessageRepo — упорядоченный доступ к журналу сообщений.
// Все выборки по дню учитывают фильтр служебных команд канала.
type MessageRepo interface {
	// ListRange возвращает сообщения канала в интервале [start, end)
	// по возрастанию времени.
	ListRange(ctx context.Context, ch Channel, start, end time.Time) ([]Message, error)
	// CountRange возвращает количество сообщений в интервале [start, end).
	CountRange(ctx context.Context, ch Channel, start, end time.Time) (int, error)
	// LatestBefore возвращает последнее сообщение до указанного момента.
	LatestBefore(ctx context.Context, ch Channel, before time.Time) (Message, error)
	// EarliestSince возвращает первое сообщение начиная с указанного момента.
	EarliestSince(ctx context.Context, ch Channel, since time.Time) (Message, error)
	// Search выполняет полнотекстовый поиск, порядок выдачи — от новых к старым.
	Search(ctx context.Context, ch Channel, query, nick string) ([]Message, error)
	// GetByID возвращает сообщение по идентификатору.
	GetByID(ctx context.Context, id int64) (Message, error)
	// LastExit возвращает последний QUIT или PART пользователя в канале.
	// Учитываются варианты ника: nick, nick_ и nick|<суффикс>.
	LastExit(ctx context.Context, ch Channel, nick string) (Message, error)
	// NextJoin возвращает первый JOIN пользователя после указанного момента.
	NextJoin(ctx context.Context, ch Channel, nick string, after time.Time) (Message, error)
	// ListBetween возвращает сообщения канала без фильтра служебных команд
	// в интервале [from, to]; nil to означает открытый правый конец.
	ListBetween(ctx context.Context, ch Channel, from time.Time, to *time.Time) ([]Message, error)
	// MonthsActive возвращает первые числа месяцев с активностью, по возрастанию.
	MonthsActive(ctx context.Context, ch Channel) ([]time.Time, error)
	// Append добавляет сообщения в журнал канала.
	Append(ctx context.Context, channelID int64, msgs []Message) error
}

// ChannelRepo управляет каналами архива.
type ChannelRepo interface {
	GetBySlug(ctx context.Context, slug string) (Channel, error)
	// GetOrCreateByName возвращает канал по IRC-имени, создавая его при необходимости.
	GetOrCreateByName(ctx context.Context, name string) (Channel, error)
	MessageCount(ctx context.Context, channelID int64) (int, error)
}

// Cache — постоянное key/value хранилище. Get возвращает nil без ошибки
// при отсутствии ключа; ttl 0 означает хранение без срока.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LineQueue — очередь сырых строк от файрхоза бота.
type LineQueue interface {
	Pop(ctx context.Context) (LogLine, error)
}

// Clock отдаёт текущее время; выделен в интерфейс ради тестов.
type Clock interface {
	Now() time.Time
}

// UTCClock — системные часы в UTC.
type UTCClock struct{}

// Now возвращает текущее время в UTC.
func (UTCClock) Now() time.Time { return time.Now().UTC() }
