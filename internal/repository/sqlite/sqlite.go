// Package sqlite implements the backing document store: SQLite
// persistence for users, notes, and categories, plus the per-user
// change feeds that drive real-time sync.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/feed"
	"github.com/msomdec/notemap/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB aggregates the SQLite connection, the per-collection change
// brokers, and the repository accessors.
type DB struct {
	SqlDB      *sql.DB
	notes      *feed.Broker[domain.Note]
	categories *feed.Broker[domain.Category]
}

// New opens a SQLite database at the given path and configures it for
// use. It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Set a reasonable connection pool for SQLite.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{
		SqlDB:      db,
		notes:      feed.NewBroker[domain.Note](),
		categories: feed.NewBroker[domain.Category](),
	}, nil
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

// Close terminates all active change subscriptions and closes the
// database connection.
func (db *DB) Close() error {
	db.notes.Close()
	db.categories.Close()
	return db.SqlDB.Close()
}

// Users returns the user repository.
func (db *DB) Users() *UserRepository { return &UserRepository{db: db.SqlDB} }

// Notes returns the note repository.
func (db *DB) Notes() *NoteRepository {
	return &NoteRepository{db: db.SqlDB, feed: db.notes}
}

// Categories returns the category repository.
func (db *DB) Categories() *CategoryRepository {
	return &CategoryRepository{db: db.SqlDB, feed: db.categories}
}

// SubscribeNotes opens a change stream over userID's notes. The
// current collection contents are replayed as ADDED events before live
// changes. An empty userID yields an immediately closed, empty stream.
func (db *DB) SubscribeNotes(ctx context.Context, userID string) domain.Stream[domain.Note] {
	if userID == "" {
		return feed.Closed[domain.Note]()
	}
	repo := db.Notes()
	return db.notes.Subscribe(ctx, userID, func() ([]domain.Note, error) {
		return repo.ListByUser(ctx, userID)
	})
}

// SubscribeCategories opens a change stream over userID's categories
// with the same replay semantics as SubscribeNotes.
func (db *DB) SubscribeCategories(ctx context.Context, userID string) domain.Stream[domain.Category] {
	if userID == "" {
		return feed.Closed[domain.Category]()
	}
	repo := db.Categories()
	return db.categories.Subscribe(ctx, userID, func() ([]domain.Category, error) {
		return repo.ListByUser(ctx, userID)
	})
}

// isUniqueConstraintError checks if the error is a SQLite unique
// constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) &&
		containsString(err.Error(), "UNIQUE constraint")
}

func containsString(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
