package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/iliyamo/note-keeper/internal/utils"
)

// Note mirrors the 'notes' table. Content, Tags and Password are nullable;
// Tags holds the raw JSON-encoded form of the tag list. The password column
// is stored exactly as supplied by the client, without hashing, so it
// provides no real confidentiality.
type Note struct {
	ID        uint64
	Title     string
	Content   *string
	Tags      *string
	IsPrivate bool
	Password  *string
	OwnerID   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteInput carries the mutable fields of a note. Create and Update both
// consume the full set: updates are full-replace, so a field absent from the
// request ends up empty/NULL rather than keeping its previous value.
type NoteInput struct {
	Title     string
	Content   *string
	Tags      []string
	IsPrivate bool
	Password  *string
}

type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

const noteColumns = "id,title,content,tags,is_private,password,owner_id,created_at,updated_at"

func scanNote(row *sql.Row) (Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Tags, &n.IsPrivate, &n.Password,
		&n.OwnerID, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// Create inserts a note for the owner and returns the stored row.
func (r *NoteRepo) Create(ctx context.Context, ownerID uint64, in NoteInput) (Note, error) {
	tags, err := utils.EncodeTags(in.Tags)
	if err != nil {
		return Note{}, err
	}
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notes (title, content, tags, is_private, password, owner_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		in.Title, in.Content, tags, in.IsPrivate, in.Password, ownerID, now, now)
	if err != nil {
		return Note{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Note{}, err
	}
	return r.GetByID(ctx, uint64(id), ownerID)
}

// GetByID loads a note through the (id AND owner) predicate. A missing note
// and a note owned by someone else both return ErrNoteNotFound.
func (r *NoteRepo) GetByID(ctx context.Context, id, ownerID uint64) (Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id=? AND owner_id=? LIMIT 1",
		id, ownerID))
	if err == sql.ErrNoRows {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

// Update replaces every mutable field of the note in a single conditional
// statement, refreshing updated_at and leaving created_at untouched. Zero
// rows matched means the note is absent or foreign-owned.
func (r *NoteRepo) Update(ctx context.Context, id, ownerID uint64, in NoteInput) (Note, error) {
	tags, err := utils.EncodeTags(in.Tags)
	if err != nil {
		return Note{}, err
	}
	now := time.Now().UTC()
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE notes SET title=?, content=?, tags=?, is_private=?, password=?, updated_at=? WHERE id=? AND owner_id=?",
		in.Title, in.Content, tags, in.IsPrivate, in.Password, now, id, ownerID); err != nil {
		return Note{}, err
	}
	// MySQL reports zero affected rows both for a missing note and for an
	// update that left every column unchanged, so existence is settled by
	// re-reading under the same (id AND owner) predicate.
	return r.GetByID(ctx, id, ownerID)
}

// Delete removes the note if it exists and belongs to the owner. Existence
// and ownership are checked atomically relative to the delete itself.
func (r *NoteRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM notes WHERE id=? AND owner_id=?", id, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DistinctTags returns the union of every tag across the owner's notes,
// deduplicated and sorted. Flattening happens Go-side: each row's JSON form
// is decoded and merged into a set.
func (r *NoteRepo) DistinctTags(ctx context.Context, ownerID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT tags FROM notes WHERE owner_id=? AND tags IS NOT NULL", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var raw *string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, t := range utils.DecodeTags(raw) {
			seen[t] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}
