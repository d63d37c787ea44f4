package repository

import (
	"context"
	"strings"
)

// NoteSearchQuery defines the filter & pagination for listing an owner's
// notes. Page is zero-based. A blank Term returns every note the owner has.
type NoteSearchQuery struct {
	OwnerID  uint64
	Term     string
	Page     int
	PageSize int
}

// Search returns one page of the owner's notes plus the total match count.
// A non-blank term filters case-insensitively on a title OR content
// substring; results are always ordered most-recently-updated first.
func (r *NoteRepo) Search(ctx context.Context, q NoteSearchQuery) ([]Note, int64, error) {
	where := []string{"owner_id = ?"}
	args := []any{q.OwnerID}

	term := strings.TrimSpace(q.Term)
	if term != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)")
		pat := "%" + strings.ToLower(term) + "%"
		args = append(args, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := q.Page * q.PageSize

	dataSQL := "SELECT " + noteColumns + " FROM notes WHERE " + cond +
		" ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Note, 0, limit)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Tags, &n.IsPrivate,
			&n.Password, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
