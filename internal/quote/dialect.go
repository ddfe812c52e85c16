package quote

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect is the SQL flavour of a driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect returns the dialect of a database/sql driver name.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Driver returns the registered database/sql driver name.
func (d Dialect) Driver() string {
	return string(d)
}

// Rebind rewrites the ? placeholders of query for the dialect.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
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

// schema returns the statements creating the quote log table and its
// session index.
func (d Dialect) schema() []string {
	if d == MySQL {
		return []string{fmt.Sprintf(createQuotes,
			"BIGINT AUTO_INCREMENT PRIMARY KEY",
			",\n\t\t\tINDEX tariff_quotes_session_idx (session_id, created_at)")}
	}

	return []string{
		fmt.Sprintf(createQuotes, "SERIAL PRIMARY KEY", ""),
		`CREATE INDEX IF NOT EXISTS tariff_quotes_session_idx ON tariff_quotes (session_id, created_at)`,
	}
}

const createQuotes = `
		CREATE TABLE IF NOT EXISTS tariff_quotes (
			id %s,
			session_id VARCHAR(64) NOT NULL,
			source VARCHAR(512) NOT NULL,
			country VARCHAR(128) NOT NULL,
			prefix VARCHAR(16) NOT NULL,
			weight_kg DOUBLE PRECISION NOT NULL,
			zone INTEGER NOT NULL,
			zone_code VARCHAR(8) NOT NULL,
			bracket VARCHAR(256) NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL%s
		)`
