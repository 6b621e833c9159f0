package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gkorolev/telemate/internal/logger"
)

// SQLiteStore SQLite storage implementation
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return store, nil
}

// initTables initializes database tables
func (s *SQLiteStore) initTables() error {
	queries := []string{
		// Dialog context (short-term memory)
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			task_type TEXT,
			created_at DATETIME NOT NULL
		)`,
		// Notes (long-term memory)
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		// Pending reminders; AUTOINCREMENT keeps ids sequential across restarts
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			fire_at DATETIME NOT NULL,
			kind TEXT NOT NULL
		)`,
		// Per-chat preferences
		`CREATE TABLE IF NOT EXISTS preferences (
			chat_id INTEGER PRIMARY KEY,
			provider TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_chat_id ON notes(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_fire_at ON reminders(fire_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	return nil
}

// AppendMessage saves a dialog message
func (s *SQLiteStore) AppendMessage(msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	result, err := s.db.Exec(
		"INSERT INTO messages (chat_id, role, content, task_type, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ChatID, msg.Role, msg.Content, msg.TaskType, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		msg.ID = id
	}

	return nil
}

// MessagesSince gets dialog messages for a chat not older than since,
// in chronological order. Rows that fail to scan are dropped rather than
// turning the whole read into a failure.
func (s *SQLiteStore) MessagesSince(chatID int64, since time.Time) ([]*Message, error) {
	rows, err := s.db.Query(
		`SELECT id, chat_id, role, content, task_type, created_at
		 FROM messages
		 WHERE chat_id = ? AND created_at >= ?
		 ORDER BY created_at ASC, id ASC`,
		chatID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var taskType sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &taskType, &msg.CreatedAt); err != nil {
			logger.Warn("dropping unreadable message row for chat %d: %v", chatID, err)
			continue
		}
		if taskType.Valid {
			msg.TaskType = taskType.String
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// TrimMessages keeps only the newest keep messages for a chat
func (s *SQLiteStore) TrimMessages(chatID int64, keep int) error {
	_, err := s.db.Exec(
		`DELETE FROM messages
		 WHERE chat_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?
		 )`,
		chatID, chatID, keep,
	)
	if err != nil {
		return fmt.Errorf("failed to trim messages: %w", err)
	}
	return nil
}

// ClearMessages removes all dialog messages for a chat
func (s *SQLiteStore) ClearMessages(chatID int64) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

// AddNote saves a note
func (s *SQLiteStore) AddNote(chatID int64, content string) error {
	_, err := s.db.Exec(
		"INSERT INTO notes (chat_id, content, created_at) VALUES (?, ?, ?)",
		chatID, content, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// Notes gets all notes for a chat in creation order
func (s *SQLiteStore) Notes(chatID int64) ([]*Note, error) {
	rows, err := s.db.Query(
		"SELECT id, chat_id, content, created_at FROM notes WHERE chat_id = ? ORDER BY id ASC",
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.ChatID, &note.Content, &note.CreatedAt); err != nil {
			logger.Warn("dropping unreadable note row for chat %d: %v", chatID, err)
			continue
		}
		notes = append(notes, &note)
	}

	return notes, rows.Err()
}

// NoteExists checks for a note with exactly this content
func (s *SQLiteStore) NoteExists(chatID int64, content string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM notes WHERE chat_id = ? AND content = ?",
		chatID, content,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check note: %w", err)
	}
	return count > 0, nil
}

// DeleteNote removes the note with exactly this content.
// Returns false when no such note exists.
func (s *SQLiteStore) DeleteNote(chatID int64, content string) (bool, error) {
	result, err := s.db.Exec(
		"DELETE FROM notes WHERE chat_id = ? AND content = ?",
		chatID, content,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateNote rewrites the first note whose content equals oldContent.
// Returns false when no such note exists.
func (s *SQLiteStore) UpdateNote(chatID int64, oldContent, newContent string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE notes SET content = ?
		 WHERE id = (SELECT id FROM notes WHERE chat_id = ? AND content = ? ORDER BY id ASC LIMIT 1)`,
		newContent, chatID, oldContent,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteAllNotes removes every note of a chat
func (s *SQLiteStore) DeleteAllNotes(chatID int64) error {
	_, err := s.db.Exec("DELETE FROM notes WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	return nil
}

// AddReminder saves a reminder and fills in its id
func (s *SQLiteStore) AddReminder(r *Reminder) error {
	result, err := s.db.Exec(
		"INSERT INTO reminders (chat_id, text, fire_at, kind) VALUES (?, ?, ?, ?)",
		r.ChatID, r.Text, r.FireAt, r.Kind,
	)
	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		r.ID = id
	}

	return nil
}

// Reminders gets all pending reminders ordered by fire time
func (s *SQLiteStore) Reminders() ([]*Reminder, error) {
	rows, err := s.db.Query(
		"SELECT id, chat_id, text, fire_at, kind FROM reminders ORDER BY fire_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.ChatID, &r.Text, &r.FireAt, &r.Kind); err != nil {
			logger.Warn("dropping unreadable reminder row: %v", err)
			continue
		}
		reminders = append(reminders, &r)
	}

	return reminders, rows.Err()
}

// DeleteReminder removes a reminder by id
func (s *SQLiteStore) DeleteReminder(id int64) error {
	_, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// PreferredProvider gets the LLM provider a chat prefers, empty when unset
func (s *SQLiteStore) PreferredProvider(chatID int64) (string, error) {
	var provider string
	err := s.db.QueryRow(
		"SELECT provider FROM preferences WHERE chat_id = ?",
		chatID,
	).Scan(&provider)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference: %w", err)
	}

	return provider, nil
}

// SetPreferredProvider stores the LLM provider a chat prefers
func (s *SQLiteStore) SetPreferredProvider(chatID int64, name string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (chat_id, provider) VALUES (?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET provider = excluded.provider`,
		chatID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
