// Package dialog maintains the short-term conversation history fed to the
// LLM for continuity. The history is bounded two ways: at most maxMessages
// entries are kept per chat (oldest evicted first), and retrieval only
// returns entries inside the recency window. Older rows stay stored but are
// excluded from prompts; the window bounds prompt size, it is not an
// archival policy.
package dialog

import (
	"fmt"
	"time"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/storage"
)

// Manager per-chat dialog context manager
type Manager struct {
	store       storage.Store
	maxMessages int
	window      time.Duration
}

// NewManager creates a dialog context manager
func NewManager(store storage.Store, maxMessages, windowHours int) *Manager {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	if windowHours <= 0 {
		windowHours = 24
	}
	return &Manager{
		store:       store,
		maxMessages: maxMessages,
		window:      time.Duration(windowHours) * time.Hour,
	}
}

// Append adds a message to the chat's context and persists it before
// returning. The oldest entries beyond the bound are evicted.
// Callers serialize per chat id; see guide.
func (m *Manager) Append(chatID int64, role, content, taskType string) error {
	msg := &storage.Message{
		ChatID:   chatID,
		Role:     role,
		Content:  content,
		TaskType: taskType,
	}
	if err := m.store.AppendMessage(msg); err != nil {
		return fmt.Errorf("failed to append to dialog context: %w", err)
	}
	if err := m.store.TrimMessages(chatID, m.maxMessages); err != nil {
		return fmt.Errorf("failed to trim dialog context: %w", err)
	}
	return nil
}

// Window returns the chat's messages inside the recency window,
// oldest first
func (m *Manager) Window(chatID int64) ([]*storage.Message, error) {
	since := time.Now().Add(-m.window)
	return m.store.MessagesSince(chatID, since)
}

// History returns the windowed context converted for an LLM call
func (m *Manager) History(chatID int64) ([]llm.Message, error) {
	msgs, err := m.Window(chatID)
	if err != nil {
		return nil, err
	}
	history := make([]llm.Message, 0, len(msgs))
	for _, msg := range msgs {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return history, nil
}

// Clear drops the chat's entire context
func (m *Manager) Clear(chatID int64) error {
	return m.store.ClearMessages(chatID)
}
