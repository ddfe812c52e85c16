package quote

import (
	"context"
	"database/sql"
)

type Execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

type Queryer interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

// Scanner is the interface that wraps the Scan method.
//
// Scan scans a database query result and stores it into the fields
// provided.
type Scanner interface {
	Scan(...any) error
}
