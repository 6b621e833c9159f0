package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gkorolev/telemate/internal/logger"
)

func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	tmpDir, err := os.MkdirTemp("", "telemate-storage-test")
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatal(err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestAppendAndGetMessages(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	msgs := []*Message{
		{ChatID: 1, Role: "user", Content: "Привет", CreatedAt: now.Add(-2 * time.Minute)},
		{ChatID: 1, Role: "assistant", Content: "Привет!", CreatedAt: now.Add(-1 * time.Minute)},
		{ChatID: 2, Role: "user", Content: "другой чат", CreatedAt: now},
	}
	for _, msg := range msgs {
		if err := store.AppendMessage(msg); err != nil {
			t.Fatalf("Failed to append message: %v", err)
		}
		if msg.ID == 0 {
			t.Error("AppendMessage should fill in the id")
		}
	}

	retrieved, err := store.MessagesSince(1, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(retrieved) != 2 {
		t.Fatalf("Expected 2 messages for chat 1, got %d", len(retrieved))
	}
	if retrieved[0].Content != "Привет" || retrieved[1].Content != "Привет!" {
		t.Error("Messages should come back in chronological order")
	}
}

func TestMessagesSince_TimeFilter(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	old := &Message{ChatID: 1, Role: "user", Content: "старое", CreatedAt: now.Add(-2 * time.Hour)}
	fresh := &Message{ChatID: 1, Role: "user", Content: "свежее", CreatedAt: now.Add(-10 * time.Minute)}
	for _, msg := range []*Message{old, fresh} {
		if err := store.AppendMessage(msg); err != nil {
			t.Fatal(err)
		}
	}

	retrieved, err := store.MessagesSince(1, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(retrieved) != 1 {
		t.Fatalf("Expected 1 message inside the window, got %d", len(retrieved))
	}
	if retrieved[0].Content != "свежее" {
		t.Errorf("Expected the fresh message, got %q", retrieved[0].Content)
	}
}

func TestMessagesSince_DropsCorruptRowsAndWarns(t *testing.T) {
	logDir, err := os.MkdirTemp("", "telemate-logger-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(logDir)
	if err := logger.Init(logger.Config{LogDir: logDir, Level: logger.WARN}); err != nil {
		t.Fatal(err)
	}

	store, cleanup := setupTestDB(t)
	defer cleanup()

	good := &Message{ChatID: 1, Role: "user", Content: "нормальное сообщение"}
	if err := store.AppendMessage(good); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}
	bad := &Message{ChatID: 1, Role: "user", Content: "битое сообщение"}
	if err := store.AppendMessage(bad); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	// Garbage that still sorts after any timestamp, so the row passes the
	// WHERE filter and fails at scan time.
	if _, err := store.db.Exec("UPDATE messages SET created_at = 'zzzz-corrupt' WHERE id = ?", bad.ID); err != nil {
		t.Fatalf("Failed to corrupt row: %v", err)
	}

	msgs, err := store.MessagesSince(1, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("MessagesSince should survive a corrupt row: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "нормальное сообщение" {
		t.Fatalf("Expected only the readable message, got %d", len(msgs))
	}

	files, err := filepath.Glob(filepath.Join(logDir, "telemate-*.log"))
	if err != nil || len(files) == 0 {
		t.Fatalf("Expected a log file in %s, glob err: %v", logDir, err)
	}
	content, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "dropping unreadable message row") {
		t.Errorf("Expected a warning about the dropped row, log was: %s", content)
	}
}

func TestTrimMessages(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 6; i++ {
		msg := &Message{ChatID: 1, Role: "user", Content: string(rune('a' + i)), CreatedAt: time.Now()}
		if err := store.AppendMessage(msg); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.TrimMessages(1, 5); err != nil {
		t.Fatalf("Failed to trim: %v", err)
	}

	retrieved, err := store.MessagesSince(1, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(retrieved) != 5 {
		t.Fatalf("Expected 5 messages after trim, got %d", len(retrieved))
	}
	// The oldest one was dropped
	if retrieved[0].Content != "b" {
		t.Errorf("Expected oldest message to be evicted, first is %q", retrieved[0].Content)
	}
}

func TestClearMessages(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	store.AppendMessage(&Message{ChatID: 1, Role: "user", Content: "x"})
	store.AppendMessage(&Message{ChatID: 2, Role: "user", Content: "y"})

	if err := store.ClearMessages(1); err != nil {
		t.Fatal(err)
	}

	retrieved, _ := store.MessagesSince(1, time.Time{})
	if len(retrieved) != 0 {
		t.Error("Chat 1 should have no messages after clear")
	}
	other, _ := store.MessagesSince(2, time.Time{})
	if len(other) != 1 {
		t.Error("Clear must not touch other chats")
	}
}

func TestNotes_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.AddNote(42, "Понравилось вино Кагор"); err != nil {
		t.Fatalf("Failed to add note: %v", err)
	}

	exists, err := store.NoteExists(42, "Понравилось вино Кагор")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("Note should exist")
	}

	exists, _ = store.NoteExists(42, "другая заметка")
	if exists {
		t.Error("Non-existent note reported as existing")
	}

	updated, err := store.UpdateNote(42, "Понравилось вино Кагор", "Понравилось вино Кагор и сыр")
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Error("UpdateNote should report success on exact match")
	}

	updated, _ = store.UpdateNote(42, "нет такой", "x")
	if updated {
		t.Error("UpdateNote must not touch anything without an exact match")
	}

	deleted, err := store.DeleteNote(42, "Понравилось вино Кагор и сыр")
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Error("DeleteNote should report success on exact match")
	}

	notes, _ := store.Notes(42)
	if len(notes) != 0 {
		t.Errorf("Expected no notes left, got %d", len(notes))
	}
}

func TestDeleteAllNotes(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	store.AddNote(1, "a")
	store.AddNote(1, "b")
	store.AddNote(2, "c")

	if err := store.DeleteAllNotes(1); err != nil {
		t.Fatal(err)
	}

	notes, _ := store.Notes(1)
	if len(notes) != 0 {
		t.Error("Chat 1 should have no notes")
	}
	other, _ := store.Notes(2)
	if len(other) != 1 {
		t.Error("DeleteAllNotes must not touch other chats")
	}
}

func TestReminders_RoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	fireAt := time.Now().Add(time.Hour).Truncate(time.Second)
	r := &Reminder{ChatID: 1, Text: "Купить хлеб", FireAt: fireAt, Kind: "one-time"}
	if err := store.AddReminder(r); err != nil {
		t.Fatalf("Failed to add reminder: %v", err)
	}
	if r.ID == 0 {
		t.Error("AddReminder should fill in the id")
	}

	second := &Reminder{ChatID: 1, Text: "Зарядка", FireAt: fireAt.Add(time.Hour), Kind: "constant"}
	if err := store.AddReminder(second); err != nil {
		t.Fatal(err)
	}
	if second.ID <= r.ID {
		t.Error("Reminder ids should be sequential")
	}

	reminders, err := store.Reminders()
	if err != nil {
		t.Fatal(err)
	}
	if len(reminders) != 2 {
		t.Fatalf("Expected 2 reminders, got %d", len(reminders))
	}
	if !reminders[0].FireAt.Equal(fireAt) {
		t.Errorf("Expected fire time %v, got %v", fireAt, reminders[0].FireAt)
	}

	if err := store.DeleteReminder(r.ID); err != nil {
		t.Fatal(err)
	}
	reminders, _ = store.Reminders()
	if len(reminders) != 1 || reminders[0].Text != "Зарядка" {
		t.Error("Only the second reminder should remain")
	}
}

func TestPreferences(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	provider, err := store.PreferredProvider(1)
	if err != nil {
		t.Fatal(err)
	}
	if provider != "" {
		t.Error("Unset preference should be empty")
	}

	if err := store.SetPreferredProvider(1, "deepseek"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetPreferredProvider(1, "openai"); err != nil {
		t.Fatalf("Upsert should not fail: %v", err)
	}

	provider, _ = store.PreferredProvider(1)
	if provider != "openai" {
		t.Errorf("Expected openai, got %q", provider)
	}
}
