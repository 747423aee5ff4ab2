package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/insidebooks/ibpcheck/types"
	"github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"
)

// DuckStore keeps cache entries in one DuckDB table, upserted by inmate id.
type DuckStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const createInmatesTable = `
	CREATE TABLE IF NOT EXISTS inmates (
		id           VARCHAR PRIMARY KEY,
		negative     BOOLEAN NOT NULL,
		jurisdiction VARCHAR,
		first_name   VARCHAR,
		last_name    VARCHAR,
		unit         VARCHAR,
		release_date VARCHAR,
		release_raw  VARCHAR,
		url          VARCHAR,
		fetched_at   BIGINT NOT NULL,
		accessed_at  BIGINT NOT NULL
	)`

// NewDuckStore opens (or creates) the database file at path.
func NewDuckStore(path string, logger *slog.Logger) (*DuckStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, errors.New("duck store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "duck store: create directory")
	}

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				logger.Warn("duck store: pragma failed", "pragma", pragma, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "duck store: create connector")
	}

	db := sql.OpenDB(connector)
	if _, err := db.Exec(createInmatesTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "duck store: create table")
	}

	logger.Debug("duck store: opened", "path", path)
	return &DuckStore{db: db, path: path, logger: logger}, nil
}

func (s *DuckStore) Save(ctx context.Context, ent *types.CacheEntry) error {
	r := toRow(ent)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO inmates
			(id, negative, jurisdiction, first_name, last_name, unit, release_date, release_raw, url, fetched_at, accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Negative, r.Jurisdiction, r.FirstName, r.LastName, r.Unit,
		nullString(r.Release), r.ReleaseRaw, r.URL, r.FetchedAt, r.AccessedAt,
	)
	return errors.Wrapf(err, "duck store: save %s", ent.Key)
}

func (s *DuckStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM inmates WHERE id = ?", key)
	return errors.Wrapf(err, "duck store: delete %s", key)
}

func (s *DuckStore) LoadAll(ctx context.Context) ([]*types.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, negative, jurisdiction, first_name, last_name, unit, release_date, release_raw, url, fetched_at, accessed_at
		FROM inmates ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "duck store: query")
	}
	defer rows.Close()

	var out []*types.CacheEntry
	for rows.Next() {
		var (
			r                                         row
			jurisdiction, first, last, unit, raw, url sql.NullString
			release                                   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Negative, &jurisdiction, &first, &last, &unit,
			&release, &raw, &url, &r.FetchedAt, &r.AccessedAt); err != nil {
			return nil, errors.Wrap(err, "duck store: scan")
		}
		r.Jurisdiction = jurisdiction.String
		r.FirstName = first.String
		r.LastName = last.String
		r.Unit = unit.String
		r.Release = release.String
		r.ReleaseRaw = raw.String
		r.URL = url.String
		out = append(out, r.entry())
	}
	return out, errors.Wrap(rows.Err(), "duck store: iterate")
}

func (s *DuckStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
