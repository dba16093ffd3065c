package docstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*/*.sql
var migrationFS embed.FS

type dialect struct {
	driver     string
	goose      goose.Dialect
	migrations string
	positional bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite", goose: goose.DialectSQLite3, migrations: "migrations/sqlite"}
	postgresDialect = dialect{driver: "pgx", goose: goose.DialectPostgres, migrations: "migrations/postgres", positional: true}
)

// SQLStore keeps documents in a single table of a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	return openSQL(ctx, sqliteDialect, path)
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, source string) (*SQLStore, error) {
	db, err := sql.Open(d.driver, source)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s db: %w", ErrUnavailable, d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// One connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s db: %w", ErrUnavailable, d.driver, err)
	}

	store := &SQLStore{db: db, dialect: d}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	migrations, err := fs.Sub(migrationFS, s.dialect.migrations)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(s.dialect.goose, s.db, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for dialects that need it.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return Document{}, err
	}

	const query = `
SELECT data, token
FROM documents
WHERE collection = ? AND id = ?;
`

	doc := Document{Collection: collection, ID: id}
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(query), collection, id).Scan(&data, &doc.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: query document %s/%s: %w", ErrUnavailable, collection, id, err)
	}
	doc.Data = []byte(data)

	return doc, nil
}

func (s *SQLStore) GetDocuments(ctx context.Context, collection string) ([]Document, error) {
	const query = `
SELECT id, data, token
FROM documents
WHERE collection = ?
ORDER BY id;
`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), collection)
	if err != nil {
		return nil, fmt.Errorf("%w: query documents %s: %w", ErrUnavailable, collection, err)
	}
	defer rows.Close()

	docs := make([]Document, 0, 64)
	for rows.Next() {
		doc := Document{Collection: collection}
		var data string
		if err := rows.Scan(&doc.ID, &data, &doc.Token); err != nil {
			return nil, fmt.Errorf("%w: scan document: %w", ErrUnavailable, err)
		}
		doc.Data = []byte(data)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate documents %s: %w", ErrUnavailable, collection, err)
	}

	return docs, nil
}

func (s *SQLStore) SetDocument(ctx context.Context, doc Document) (Document, error) {
	if err := validateKey(doc.Collection, doc.ID); err != nil {
		return Document{}, err
	}

	next := uuid.NewString()

	var (
		res sql.Result
		err error
	)
	if doc.Token == "" {
		const insertStmt = `
INSERT INTO documents (collection, id, data, token)
VALUES (?, ?, ?, ?)
ON CONFLICT (collection, id) DO NOTHING;`
		res, err = s.db.ExecContext(ctx, s.rebind(insertStmt), doc.Collection, doc.ID, string(doc.Data), next)
	} else {
		const updateStmt = `
UPDATE documents
SET data = ?, token = ?
WHERE collection = ? AND id = ? AND token = ?;`
		res, err = s.db.ExecContext(ctx, s.rebind(updateStmt), string(doc.Data), next, doc.Collection, doc.ID, doc.Token)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: write document %s/%s: %w", ErrUnavailable, doc.Collection, doc.ID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Document{}, fmt.Errorf("%w: read written row count: %w", ErrUnavailable, err)
	}
	if rowsAffected == 0 {
		return Document{}, fmt.Errorf("write document %s/%s: %w", doc.Collection, doc.ID, ErrStaleWrite)
	}

	doc.Token = next
	return doc, nil
}

func (s *SQLStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM documents WHERE collection = ? AND id = ?;`), collection, id)
	if err != nil {
		return fmt.Errorf("%w: delete document %s/%s: %w", ErrUnavailable, collection, id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: read deleted row count: %w", ErrUnavailable, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
