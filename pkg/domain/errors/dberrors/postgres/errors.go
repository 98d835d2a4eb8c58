package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// requested record is found too much.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s more than %d times",
		t.Identity, t.Table, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return domerr.ErrTooMuch
}

// a statement broke an integrity constraint.
type Conflict struct {
	Table  string
	Detail string
}

var _ error = Conflict{}

func (c Conflict) Error() string {
	return fmt.Sprintf("integrity violation on %s: %s", c.Table, c.Detail)
}

func (c Conflict) Unwrap() error {
	return domerr.ErrConflict
}

// AsConflict converts a postgres integrity-constraint error into Conflict.
//
// Unique, foreign-key, check and not-null violations qualify. Other errors
// are returned as they are.
func AsConflict(err error) error {
	pgErr := new(pgconn.PgError)
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation,
		pgerrcode.ForeignKeyViolation,
		pgerrcode.CheckViolation,
		pgerrcode.NotNullViolation:
		return Conflict{Table: pgErr.TableName, Detail: pgErr.Detail}
	default:
		return err
	}
}
