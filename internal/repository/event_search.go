package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/event-seat-reservation/internal/model"
)

// Search returns one page of events matching q, earliest first, and the total
// number of matches. Name and location match case-insensitively as
// substrings.
func (r *EventRepo) Search(ctx context.Context, q model.EventQuery) ([]model.Event, int64, error) {
	where := []string{"starts_at >= ?"}
	args := []any{q.From.UTC()}

	if !q.To.IsZero() {
		where = append(where, "starts_at < ?")
		args = append(args, q.To.UTC())
	}
	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, likePattern(q.Name))
	}
	if q.Location != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, likePattern(q.Location))
	}
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	events := []model.Event{}
	if total == 0 {
		return events, 0, nil
	}
	dataSQL := `SELECT ` + eventColumns + ` FROM events WHERE ` + cond + `
		ORDER BY starts_at, id
		LIMIT ? OFFSET ?`
	dataArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	if err := r.db.SelectContext(ctx, &events, dataSQL, dataArgs...); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
