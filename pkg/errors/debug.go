package errors

import (
	"errors"
	"fmt"

	pgconnv1 "github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-friendly view of an error chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump flattens err for logging. Postgres diagnostics are lifted from pgx v5,
// the older pgconn, or lib/pq, whichever sits in the chain.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.fillPostgres(err)
	return d
}

func (d *ErrorDump) fillPostgres(err error) {
	var (
		pgxErr    *pgconn.PgError
		legacyErr *pgconnv1.PgError
		pqErr     *pq.Error
	)
	switch {
	case errors.As(err, &pgxErr):
		d.setPG(pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message)
	case errors.As(err, &legacyErr):
		d.setPG(legacyErr.Code, legacyErr.ConstraintName, legacyErr.TableName, legacyErr.ColumnName, legacyErr.Detail, legacyErr.Message)
	case errors.As(err, &pqErr):
		d.setPG(string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail, pqErr.Message)
	}
}

func (d *ErrorDump) setPG(code, constraint, table, column, detail, message string) {
	d.PGCode = code
	d.PGConstraint = constraint
	d.PGTable = table
	d.PGColumn = column
	d.PGDetail = detail
	d.PGMessage = message
}
