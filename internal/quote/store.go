package quote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Store is the database storage of the quote log.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewStore(db *sql.DB, d Dialect) *Store {
	return &Store{DB: db, Dialect: d}
}

// Open connects to the database and verifies the connection. The MySQL
// DSN must contain parseTime=true for created_at to scan.
func Open(ctx context.Context, d Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", d, err)
	}

	return NewStore(db, d), nil
}

func (s *Store) tx(ctx context.Context, txFunc func(*sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if err := txFunc(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("err: %w, rbErr: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Migrate creates the quote log table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range s.Dialect.schema() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) InsertQuote(ctx context.Context, q Quote) error {
	_, err := q.Insert(ctx, s.DB, s.Dialect)
	return err
}

func (s *Store) SelectRecent(ctx context.Context, session string, limit int) ([]Quote, error) {
	c := Collection{}
	if err := c.SelectRecent(ctx, s.DB, s.Dialect, session, limit); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
