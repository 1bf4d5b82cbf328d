package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/metrics"
)

const messageColumns = "id, channel_id, timestamp, nick, text, command, host, raw, created_at"

// Postgres реализует репозитории архива на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.MessageRepo = (*Postgres)(nil)
var _ domain.ChannelRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// visibleCond добавляет фильтр служебных команд для каналов со включённым
// скрытием. Возвращает SQL-хвост условия и дописывает аргумент.
func visibleCond(ch domain.Channel, args *[]any) string {
	if !ch.HideJoinsParts {
		return ""
	}
	*args = append(*args, domain.HiddenCommands)
	return fmt.Sprintf(" AND NOT command = ANY($%d)", len(*args))
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.Timestamp, &m.Nick, &m.Text, &m.Command, &m.Host, &m.Raw, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (p *Postgres) queryOne(ctx context.Context, operation, query string, args ...any) (domain.Message, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var m domain.Message
	start := time.Now()
	err := p.pool.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.ChannelID, &m.Timestamp, &m.Nick, &m.Text, &m.Command, &m.Host, &m.Raw, &m.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", operation, "messages", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

// ListRange возвращает сообщения канала в интервале [start, end) по возрастанию.
func (p *Postgres) ListRange(ctx context.Context, ch domain.Channel, start, end time.Time) ([]domain.Message, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	args := []any{ch.ID, start, end}
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE channel_id = $1 AND timestamp >= $2 AND timestamp < $3` + visibleCond(ch, &args) + `
ORDER BY timestamp, id`

	began := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "messages_range", "messages", began, err)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// CountRange возвращает количество сообщений в интервале [start, end).
func (p *Postgres) CountRange(ctx context.Context, ch domain.Channel, start, end time.Time) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	args := []any{ch.ID, start, end}
	query := `
SELECT count(*)
FROM messages
WHERE channel_id = $1 AND timestamp >= $2 AND timestamp < $3` + visibleCond(ch, &args)

	var total int
	began := time.Now()
	err := p.pool.QueryRow(ctx, query, args...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "messages_count", "messages", began, err)
	return total, err
}

// LatestBefore возвращает последнее видимое сообщение до указанного момента.
func (p *Postgres) LatestBefore(ctx context.Context, ch domain.Channel, before time.Time) (domain.Message, error) {
	args := []any{ch.ID, before}
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE channel_id = $1 AND timestamp < $2` + visibleCond(ch, &args) + `
ORDER BY timestamp DESC, id DESC
LIMIT 1`
	return p.queryOne(ctx, "latest_before", query, args...)
}

// EarliestSince возвращает первое видимое сообщение начиная с указанного момента.
func (p *Postgres) EarliestSince(ctx context.Context, ch domain.Channel, since time.Time) (domain.Message, error) {
	args := []any{ch.ID, since}
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE channel_id = $1 AND timestamp >= $2` + visibleCond(ch, &args) + `
ORDER BY timestamp, id
LIMIT 1`
	return p.queryOne(ctx, "earliest_since", query, args...)
}

// Search выполняет полнотекстовый поиск по журналу канала, от новых к старым.
// Релевантность и разбор запроса — на стороне Postgres (websearch_to_tsquery).
func (p *Postgres) Search(ctx context.Context, ch domain.Channel, query, nick string) ([]domain.Message, error) {
	query = strings.TrimSpace(query)
	nick = strings.TrimSpace(nick)
	if query == "" && nick == "" {
		return nil, nil
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	args := []any{ch.ID}
	conds := []string{"channel_id = $1"}
	if query != "" {
		args = append(args, query)
		conds = append(conds, fmt.Sprintf("search_vector @@ websearch_to_tsquery('english', $%d)", len(args)))
	}
	if nick != "" {
		args = append(args, "%"+nick+"%")
		conds = append(conds, fmt.Sprintf("nick ILIKE $%d", len(args)))
	}
	tail := visibleCond(ch, &args)

	sql := `
SELECT ` + messageColumns + `
FROM messages
WHERE ` + strings.Join(conds, " AND ") + tail + `
ORDER BY timestamp DESC, id DESC`

	began := time.Now()
	rows, err := p.pool.Query(ctx, sql, args...)
	metrics.ObserveNetworkRequest("postgres", "messages_search", "messages", began, err)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// GetByID возвращает сообщение по идентификатору.
func (p *Postgres) GetByID(ctx context.Context, id int64) (domain.Message, error) {
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE id = $1`
	return p.queryOne(ctx, "message_by_id", query, id)
}

// nickVariants — условие для ников вида nick, nick_ и nick|<суффикс>.
const nickVariants = `(lower(nick) = lower($2) OR lower(nick) = lower($2 || '_') OR lower(nick) LIKE lower($2 || '|%'))`

// LastExit возвращает последний QUIT или PART пользователя в канале.
func (p *Postgres) LastExit(ctx context.Context, ch domain.Channel, nick string) (domain.Message, error) {
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE channel_id = $1 AND command IN ('QUIT', 'PART') AND ` + nickVariants + `
ORDER BY timestamp DESC, id DESC
LIMIT 1`
	return p.queryOne(ctx, "last_exit", query, ch.ID, nick)
}

// NextJoin возвращает первый JOIN пользователя после указанного момента.
func (p *Postgres) NextJoin(ctx context.Context, ch domain.Channel, nick string, after time.Time) (domain.Message, error) {
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE channel_id = $1 AND command = 'JOIN' AND ` + nickVariants + ` AND timestamp > $3
ORDER BY timestamp, id
LIMIT 1`
	return p.queryOne(ctx, "next_join", query, ch.ID, nick, after)
}

// ListBetween возвращает сообщения канала без фильтра служебных команд
// в интервале [from, to]; nil to означает открытый правый конец.
func (p *Postgres) ListBetween(ctx context.Context, ch domain.Channel, from time.Time, to *time.Time) ([]domain.Message, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	args := []any{ch.ID, from}
	upper := ""
	if to != nil {
		args = append(args, *to)
		upper = " AND timestamp <= $3"
	}
	query := `
SELECT ` + messageColumns + `
FROM messages
WHERE channel_id = $1 AND timestamp >= $2` + upper + `
ORDER BY timestamp, id`

	began := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "messages_between", "messages", began, err)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// MonthsActive возвращает первые числа месяцев с активностью, по возрастанию.
func (p *Postgres) MonthsActive(ctx context.Context, ch domain.Channel) ([]time.Time, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	began := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT DISTINCT date_trunc('month', timestamp AT TIME ZONE 'UTC')::date
FROM messages
WHERE channel_id = $1
ORDER BY 1`, ch.ID)
	metrics.ObserveNetworkRequest("postgres", "months_active", "messages", began, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []time.Time
	for rows.Next() {
		var month time.Time
		if err := rows.Scan(&month); err != nil {
			return nil, err
		}
		months = append(months, month.UTC())
	}
	return months, rows.Err()
}

// Append добавляет сообщения в журнал канала одной пачкой.
func (p *Postgres) Append(ctx context.Context, channelID int64, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, m := range msgs {
		batch.Queue(`
INSERT INTO messages (channel_id, timestamp, nick, text, command, host, raw, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7, to_tsvector('english', $4))`,
			channelID, m.Timestamp, m.Nick, m.Text, m.Command, m.Host, m.Raw)
	}

	began := time.Now()
	err := p.pool.SendBatch(ctx, batch).Close()
	metrics.ObserveNetworkRequest("postgres", "messages_append", "messages", began, err)
	return err
}

// GetBySlug возвращает канал по слагу.
func (p *Postgres) GetBySlug(ctx context.Context, slug string) (domain.Channel, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var ch domain.Channel
	began := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, slug, name, is_public, hide_joins_parts, created_at
FROM channels
WHERE slug = $1`, strings.ToLower(strings.TrimSpace(slug))).
		Scan(&ch.ID, &ch.Slug, &ch.Name, &ch.IsPublic, &ch.HideJoinsParts, &ch.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "channel_by_slug", "channels", began, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Channel{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Channel{}, err
	}
	return ch, nil
}

// GetOrCreateByName возвращает канал по IRC-имени, создавая при необходимости.
func (p *Postgres) GetOrCreateByName(ctx context.Context, name string) (domain.Channel, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	slug := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	var ch domain.Channel
	began := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO channels (slug, name, is_public)
VALUES ($1, $2, true)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
RETURNING id, slug, name, is_public, hide_joins_parts, created_at`, slug, name).
		Scan(&ch.ID, &ch.Slug, &ch.Name, &ch.IsPublic, &ch.HideJoinsParts, &ch.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "channel_upsert", "channels", began, err)
	if err != nil {
		return domain.Channel{}, err
	}
	return ch, nil
}

// MessageCount возвращает полный размер журнала канала.
func (p *Postgres) MessageCount(ctx context.Context, channelID int64) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var total int
	began := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE channel_id = $1`, channelID).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "channel_size", "messages", began, err)
	return total, err
}
