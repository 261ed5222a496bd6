package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/feed"
)

// NoteRepository implements domain.NoteRepository using SQLite. Every
// successful write publishes a change event to the note feed.
type NoteRepository struct {
	db   *sql.DB
	feed *feed.Broker[domain.Note]
}

const noteColumns = `id, user_id, title, content, category_id, priority, created_at, reminder_date, attachments`

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	note.Priority = domain.ParsePriority(string(note.Priority))

	attachments, err := json.Marshal(note.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.Title, note.Content, note.CategoryID,
		string(note.Priority), note.CreatedAt, note.ReminderDate, string(attachments),
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}

	r.feed.Publish(note.UserID, domain.Change[domain.Note]{Kind: domain.ChangeAdded, Entity: *note})
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query note by id: %w", err)
	}
	return note, nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Note, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
}

func (r *NoteRepository) ListByCategory(ctx context.Context, userID, categoryID string) ([]domain.Note, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = ? AND category_id = ? ORDER BY created_at DESC, id ASC`,
		userID, categoryID)
}

func (r *NoteRepository) ListByPriority(ctx context.Context, userID string, priority domain.Priority) ([]domain.Note, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = ? AND priority = ? ORDER BY created_at DESC, id ASC`,
		userID, string(priority))
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	note.Priority = domain.ParsePriority(string(note.Priority))

	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, category_id = ?, priority = ?, reminder_date = ?
		 WHERE id = ?`,
		note.Title, note.Content, note.CategoryID, string(note.Priority), note.ReminderDate, note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	r.feed.Publish(note.UserID, domain.Change[domain.Note]{Kind: domain.ChangeModified, Entity: *note})
	return nil
}

// Delete removes a note by id. Deleting an id that does not exist is a
// success and publishes nothing.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	r.feed.Publish(existing.UserID, domain.Change[domain.Note]{Kind: domain.ChangeRemoved, Entity: *existing})
	return nil
}

func (r *NoteRepository) CountByCategory(ctx context.Context, userID, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE user_id = ? AND category_id = ?`,
		userID, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notes by category: %w", err)
	}
	return count, nil
}

func (r *NoteRepository) list(ctx context.Context, query string, args ...any) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*domain.Note, error) {
	note := &domain.Note{}
	var priority string
	var reminder sql.NullString
	var attachments string

	err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Content,
		&note.CategoryID, &priority, &note.CreatedAt, &reminder, &attachments)
	if err != nil {
		return nil, err
	}

	// Malformed priority strings coerce to MEDIUM, never fail.
	note.Priority = domain.ParsePriority(priority)
	if reminder.Valid {
		note.ReminderDate = &reminder.String
	}
	if attachments != "" {
		if err := json.Unmarshal([]byte(attachments), &note.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshal attachments: %w", err)
		}
	}
	return note, nil
}
