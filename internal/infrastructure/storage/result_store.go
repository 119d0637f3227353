package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
)

const resultsTable = "generation_results"

// SQLResultStore persists generation results into SQLite or Postgres.
type SQLResultStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ResultStore = (*SQLResultStore)(nil)

// NewSQLResultStore wires a sql.DB and creates the results table if needed.
func NewSQLResultStore(ctx context.Context, db *sql.DB, driver string) (*SQLResultStore, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}

	s := &SQLResultStore{db: db, builder: builder}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLResultStore) migrate(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS ` + resultsTable + ` (
		item_id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		sources TEXT NOT NULL,
		provider TEXT NOT NULL,
		generated_at TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrPersistence, resultsTable, err)
	}
	return nil
}

// Has reports whether a result for itemID exists.
func (s *SQLResultStore) Has(ctx context.Context, itemID string) (bool, error) {
	query, args, err := s.builder.
		Select("1").
		From(resultsTable).
		Where(sq.Eq{"item_id": itemID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: build has: %v", domain.ErrPersistence, err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: query has %s: %v", domain.ErrPersistence, itemID, err)
	}
	return true, nil
}

// Get loads the stored result for itemID.
func (s *SQLResultStore) Get(ctx context.Context, itemID string) (domain.GenerationResult, bool, error) {
	query, args, err := s.builder.
		Select("item_id", "content", "sources", "provider", "generated_at").
		From(resultsTable).
		Where(sq.Eq{"item_id": itemID}).
		ToSql()
	if err != nil {
		return domain.GenerationResult{}, false, fmt.Errorf("%w: build get: %v", domain.ErrPersistence, err)
	}

	var (
		result      domain.GenerationResult
		sources     string
		provider    string
		generatedAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&result.ItemID, &result.Content, &sources, &provider, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GenerationResult{}, false, nil
	}
	if err != nil {
		return domain.GenerationResult{}, false, fmt.Errorf("%w: query get %s: %v", domain.ErrPersistence, itemID, err)
	}

	if err := json.Unmarshal([]byte(sources), &result.Sources); err != nil {
		return domain.GenerationResult{}, false, fmt.Errorf("%w: decode sources %s: %v", domain.ErrPersistence, itemID, err)
	}
	result.ProviderUsed = domain.ProviderTag(provider)
	result.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return domain.GenerationResult{}, false, fmt.Errorf("%w: decode time %s: %v", domain.ErrPersistence, itemID, err)
	}
	return result, true, nil
}

// Set upserts the result; the last write for an id wins.
func (s *SQLResultStore) Set(ctx context.Context, result domain.GenerationResult) error {
	if result.ItemID == "" {
		return fmt.Errorf("%w: result has no item id", domain.ErrPersistence)
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	encoded, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("%w: encode sources: %v", domain.ErrPersistence, err)
	}

	query, args, err := s.builder.
		Insert(resultsTable).
		Columns("item_id", "content", "sources", "provider", "generated_at").
		Values(
			result.ItemID,
			result.Content,
			string(encoded),
			string(result.ProviderUsed),
			result.GeneratedAt.UTC().Format(time.RFC3339Nano),
		).
		Suffix(`ON CONFLICT (item_id) DO UPDATE
			SET content = excluded.content,
			    sources = excluded.sources,
			    provider = excluded.provider,
			    generated_at = excluded.generated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build set: %v", domain.ErrPersistence, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrPersistence, result.ItemID, err)
	}
	return nil
}

// Count returns how many results are stored.
func (s *SQLResultStore) Count(ctx context.Context) (int, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(resultsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: build count: %v", domain.ErrPersistence, err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrPersistence, err)
	}
	return n, nil
}
