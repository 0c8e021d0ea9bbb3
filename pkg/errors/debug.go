package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain and any Postgres diagnostics for logging.
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

// SQLSTATE class 23 codes the schema relies on (order_no, worker_id and
// user_accounts constraints).
var constraintKinds = map[string]string{
	"23502": "not_null",
	"23503": "foreign_key",
	"23505": "unique",
	"23514": "check",
}

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

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}
	return d
}

// ConstraintKind names the violated constraint class, or "" when the error
// is not an integrity violation.
func (d ErrorDump) ConstraintKind() string {
	return constraintKinds[d.PGCode]
}

// LogFields returns the populated fields only, keyed for the request logger.
func (d ErrorDump) LogFields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	for key, value := range map[string]string{
		"pg_code":         d.PGCode,
		"pg_constraint":   d.PGConstraint,
		"pg_table":        d.PGTable,
		"pg_column":       d.PGColumn,
		"pg_detail":       d.PGDetail,
		"pg_message":      d.PGMessage,
		"constraint_kind": d.ConstraintKind(),
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
