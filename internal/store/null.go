package store

import (
	"database/sql"
	"time"

	"github.com/dukerupert/wg/internal/model"
)

type scanner interface{ Scan(...any) error }

// nullDate converts an optional day into a bind argument.
func nullDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func datePtr(n sql.Null[model.Date]) *model.Date {
	if !n.Valid {
		return nil
	}
	d := n.V
	return &d
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

// deletedFilter is appended to a WHERE clause on table alias a.
func deletedFilter(alias string, includeDeleted bool) string {
	if includeDeleted {
		return ""
	}
	if alias != "" {
		alias += "."
	}
	return ` AND ` + alias + `deleted_at IS NULL`
}
