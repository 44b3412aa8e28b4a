package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// Querier is the part of *db.Pool the loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads the active roster once. Later changes to the table need a restart.
func LoadPostgres(ctx context.Context, q Querier) (*Static, error) {
	rows, err := q.Query(ctx, `
		SELECT id::text, name, COALESCE(specialty, ''), COALESCE(color, '')
		FROM providers
		WHERE is_active
		ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	var out []model.Provider
	for rows.Next() {
		var p model.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.Color); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("providers table has no active rows")
	}
	return NewStatic(out)
}
