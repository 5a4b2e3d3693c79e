package persistence

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func asDatePtr(v pgtype.Date) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
