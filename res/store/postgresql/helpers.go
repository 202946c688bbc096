package postgresql

import (
	"time"

	"gorm.io/gorm"
)

// equalDateClause adds a NULL-safe equality clause for an optional
// timestamp column, used by change-record dedup (I6) where old/new dates
// may legitimately be absent (e.g. a cancellation has no new_* dates).
func equalDateClause(query *gorm.DB, column string, value *time.Time) *gorm.DB {
	if value == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *value)
}

func equalStringClause(query *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *value)
}
