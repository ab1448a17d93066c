package postgresql

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4/pgxpool"

	"memorial/internal/domain/models"
)

type Storage struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

const (
	// tables
	tributeTable  = "tributes"
	timelineTable = "timeline_events"
)

const schema = `
CREATE TABLE IF NOT EXISTS tributes (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	relationship TEXT NOT NULL DEFAULT '',
	memory TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS timeline_events (
	id SERIAL PRIMARY KEY,
	year TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
`

func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *Storage) Stop() {
	s.db.Close()
}

// Migrate создает таблицы гостевой книги, если их еще нет
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgresql.Migrate"

	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SaveTribute(ctx context.Context, t models.Tribute) error {
	const op = "storage.postgresql.SaveTribute"

	query, args, err := s.sb.Insert(tributeTable).
		Columns("id", "name", "relationship", "memory", "created_at").
		Values(t.ID, t.Name, t.Relationship, t.Memory, t.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListTributes возвращает записи в порядке добавления
func (s *Storage) ListTributes(ctx context.Context) ([]models.Tribute, error) {
	const op = "storage.postgresql.ListTributes"

	query, args, err := s.sb.Select("id", "name", "relationship", "memory", "created_at").
		From(tributeTable).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tributes := make([]models.Tribute, 0)
	for rows.Next() {
		var t models.Tribute
		if err := rows.Scan(&t.ID, &t.Name, &t.Relationship, &t.Memory, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: can't scan row: %w", op, err)
		}
		tributes = append(tributes, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tributes, nil
}

func (s *Storage) SaveTimelineEvent(ctx context.Context, e models.TimelineEvent) error {
	const op = "storage.postgresql.SaveTimelineEvent"

	query, args, err := s.sb.Insert(timelineTable).
		Columns("year", "title", "description").
		Values(e.Year, e.Title, e.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) ListTimeline(ctx context.Context) ([]models.TimelineEvent, error) {
	const op = "storage.postgresql.ListTimeline"

	query, args, err := s.sb.Select("year", "title", "description").
		From(timelineTable).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events := make([]models.TimelineEvent, 0)
	for rows.Next() {
		var e models.TimelineEvent
		if err := rows.Scan(&e.Year, &e.Title, &e.Description); err != nil {
			return nil, fmt.Errorf("%s: can't scan row: %w", op, err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
