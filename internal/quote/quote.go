package quote

import (
	"context"
	"database/sql"
	"time"

	"github.com/cicconee/freight-app/internal/tariff"
)

// Quote is a logged price lookup.
type Quote struct {
	ID        int64     `json:"id"`
	Session   string    `json:"-"`
	Source    string    `json:"source"`
	Country   string    `json:"country"`
	Prefix    string    `json:"prefix"`
	WeightKg  float64   `json:"weight_kg"`
	Zone      int       `json:"zone"`
	ZoneCode  string    `json:"zone_code"`
	Bracket   string    `json:"bracket"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// FromResult returns the quote for a result that session computed with
// the tariff named source.
func FromResult(session string, source string, r tariff.Result) Quote {
	return Quote{
		Session:   session,
		Source:    source,
		Country:   r.Country,
		Prefix:    r.Prefix,
		WeightKg:  r.WeightKg,
		Zone:      r.Zone,
		ZoneCode:  r.ZoneCode,
		Bracket:   r.Bracket,
		Price:     r.Price,
		CreatedAt: time.Now().UTC(),
	}
}

func (q *Quote) Insert(ctx context.Context, db Execer, d Dialect) (sql.Result, error) {
	query := d.Rebind(`
		INSERT INTO tariff_quotes(session_id, source, country, prefix, weight_kg, zone, zone_code, bracket, price, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	return db.ExecContext(ctx, query,
		q.Session,
		q.Source,
		q.Country,
		q.Prefix,
		q.WeightKg,
		q.Zone,
		q.ZoneCode,
		q.Bracket,
		q.Price,
		q.CreatedAt,
	)
}

func (q *Quote) scan(s Scanner) error {
	return s.Scan(
		&q.ID,
		&q.Session,
		&q.Source,
		&q.Country,
		&q.Prefix,
		&q.WeightKg,
		&q.Zone,
		&q.ZoneCode,
		&q.Bracket,
		&q.Price,
		&q.CreatedAt,
	)
}

type Collection []Quote

// SelectRecent reads the limit most recent quotes of session, newest
// first.
func (c *Collection) SelectRecent(ctx context.Context, db Queryer, d Dialect, session string, limit int) error {
	query := d.Rebind(`
		SELECT id, session_id, source, country, prefix, weight_kg, zone, zone_code, bracket, price, created_at
		FROM tariff_quotes
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)

	rows, err := db.QueryContext(ctx, query, session, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var q Quote
		if err := q.scan(rows); err != nil {
			return err
		}

		*c = append(*c, q)
	}

	return rows.Err()
}
