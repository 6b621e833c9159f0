package storage

import (
	"time"
)

// Store durable per-chat storage
type Store interface {
	// Dialog context
	AppendMessage(msg *Message) error
	MessagesSince(chatID int64, since time.Time) ([]*Message, error)
	TrimMessages(chatID int64, keep int) error
	ClearMessages(chatID int64) error

	// Notes (long-term memory)
	AddNote(chatID int64, content string) error
	Notes(chatID int64) ([]*Note, error)
	NoteExists(chatID int64, content string) (bool, error)
	DeleteNote(chatID int64, content string) (bool, error)
	UpdateNote(chatID int64, oldContent, newContent string) (bool, error)
	DeleteAllNotes(chatID int64) error

	// Reminders
	AddReminder(r *Reminder) error
	Reminders() ([]*Reminder, error)
	DeleteReminder(id int64) error

	// Per-chat preferences
	PreferredProvider(chatID int64) (string, error)
	SetPreferredProvider(chatID int64, name string) error

	// Close connection
	Close() error
}

// Message a dialog context entry
type Message struct {
	ID        int64
	ChatID    int64
	Role      string // "user" | "assistant" | "system"
	Content   string
	TaskType  string // classification label of the turn, may be empty
	CreatedAt time.Time
}

// Note a long-term memory record
type Note struct {
	ID        int64
	ChatID    int64
	Content   string
	CreatedAt time.Time
}

// Reminder a pending scheduled notification
type Reminder struct {
	ID     int64
	ChatID int64
	Text   string
	FireAt time.Time
	Kind   string // "one-time" | "constant"
}
