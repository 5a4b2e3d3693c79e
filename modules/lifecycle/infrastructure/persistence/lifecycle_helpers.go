package persistence

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func asTimePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
