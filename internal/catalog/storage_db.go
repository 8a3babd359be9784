package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	saveTimeout  = 5 * time.Second
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS products (
		position    INTEGER NOT NULL,
		id          INTEGER PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		thumbnail   TEXT NOT NULL,
		code        TEXT NOT NULL UNIQUE,
		stock       INTEGER NOT NULL
	)
`

// PostgresStorage stores the snapshot in a products table. Each save
// replaces the table contents in one transaction; position keeps the
// catalog order.
type PostgresStorage struct {
	db *sql.DB
}

// OpenPostgres opens a pgx-backed database/sql handle.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schemaSQL)
		return errors.Wrap(err, "create products table")
	})
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStorage) Load(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, title, description, price, thumbnail, code, stock
			FROM products
			ORDER BY position ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Thumbnail, &p.Code, &p.Stock); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	return out, nil
}

func (s *PostgresStorage) Save(ctx context.Context, products []Product) error {
	return withTimeout(ctx, saveTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return errors.Wrap(err, "begin")
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return errors.Wrap(err, "clear products")
		}

		for i, p := range products {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO products (position, id, title, description, price, thumbnail, code, stock)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, i, p.ID, p.Title, p.Description, p.Price, p.Thumbnail, p.Code, p.Stock)
			if err != nil {
				return errors.Wrapf(err, "insert product %d", p.ID)
			}
		}

		return errors.Wrap(tx.Commit(), "commit")
	})
}
