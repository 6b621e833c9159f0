// Package notes implements long-term memory: short free-text notes saved per
// chat. Storage is literal, intelligence lives in the resolution step: every
// lookup, delete and edit dumps the chat's notes to the LLM and asks it to
// pick or rewrite the matching one. Mutations then apply by exact text match
// only, so a hallucinated note silently matches nothing instead of corrupting
// real data.
package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
	"github.com/gkorolev/telemate/internal/storage"
)

// Canned user-facing replies. Every operation answers with one of these,
// infrastructure failures are logged and reported in the same voice.
const (
	replyAdded        = "Запомнил: %s"
	replyDuplicate    = "Такая заметка уже существует."
	replyExtractFail  = "Не удалось извлечь информацию для заметки."
	replyFound        = "Заметка: %s"
	replyNotFound     = "Не нашел заметок по вашему запросу."
	replyDeleted      = "Удалил заметку: %s"
	replyDeleteMiss   = "Не нашел заметок для удаления."
	replyDeleteFail   = "Не удалось удалить заметку."
	replyChanged      = "Заметка обновлена: %s"
	replyChangeFail   = "Не удалось изменить заметку."
	replyAllDeleted   = "Все заметки были удалены."
	replyNothingSaved = "Нет заметок для отображения."
)

// noteRef is the JSON contract the resolution prompts ask the model to fill.
type noteRef struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Service long-term note service
type Service struct {
	store storage.Store
	gw    llm.Completer
	log   *logger.Logger
}

// NewService creates a note service on top of a store and an LLM gateway
func NewService(store storage.Store, gw llm.Completer, log *logger.Logger) *Service {
	return &Service{store: store, gw: gw, log: log}
}

// Add extracts the fact to remember from the message and saves it.
// Extraction is idempotent on the note text: saving the same fact twice
// reports a duplicate instead of storing it again.
func (s *Service) Add(ctx context.Context, chatID int64, userName, text string) string {
	extracted, err := s.gw.Complete(ctx, llm.Request{
		ChatID: chatID,
		Messages: []llm.Message{
			llm.System(extractPrompt),
			llm.User(userName + ": " + text),
		},
		MaxTokens:   2000,
		Temperature: 0.5,
	})
	if err != nil || strings.TrimSpace(extracted) == "" {
		s.log.Error("Note extraction failed for chat %d: %v", chatID, err)
		return replyExtractFail
	}
	noteText := strings.TrimSpace(extracted)

	exists, err := s.store.NoteExists(chatID, noteText)
	if err != nil {
		s.log.Error("Note duplicate check failed for chat %d: %v", chatID, err)
		return replyExtractFail
	}
	if exists {
		return replyDuplicate
	}

	if err := s.store.AddNote(chatID, noteText); err != nil {
		s.log.Error("Failed to save note for chat %d: %v", chatID, err)
		return replyExtractFail
	}
	s.log.Info("Saved note for chat %d: %s", chatID, noteText)
	return fmt.Sprintf(replyAdded, noteText)
}

// Recall finds the note matching the request and returns its text
func (s *Service) Recall(ctx context.Context, chatID int64, userName, text string) string {
	reply, err := s.resolve(ctx, chatID, searchPrompt, userName, text)
	if err != nil || reply == "" {
		return replyNotFound
	}
	return fmt.Sprintf(replyFound, reply)
}

// Delete resolves the note the user wants removed and deletes it by exact
// text match. A resolution that names a note not actually in the store is a
// miss, not an error.
func (s *Service) Delete(ctx context.Context, chatID int64, userName, text string) string {
	reply, err := s.resolve(ctx, chatID, deletePrompt, userName, text)
	if err != nil {
		return replyDeleteFail
	}

	var ref noteRef
	if err := llm.ExtractObject(reply, &ref); err != nil {
		s.log.Warn("Unparseable delete resolution for chat %d: %v", chatID, err)
		return replyDeleteFail
	}

	deleted, err := s.store.DeleteNote(chatID, ref.Text)
	if err != nil {
		s.log.Error("Failed to delete note for chat %d: %v", chatID, err)
		return replyDeleteFail
	}
	if !deleted {
		return replyDeleteMiss
	}
	return fmt.Sprintf(replyDeleted, ref.Text)
}

// Change resolves the note to edit and its rewritten text, then updates the
// stored note by exact match on the original text.
func (s *Service) Change(ctx context.Context, chatID int64, userName, text string) string {
	reply, err := s.resolve(ctx, chatID, changePrompt, userName, text)
	if err != nil {
		return replyChangeFail
	}

	var refs []noteRef
	if err := llm.ExtractArray(reply, &refs); err != nil || len(refs) < 2 {
		s.log.Warn("Unparseable change resolution for chat %d: %v", chatID, err)
		return replyChangeFail
	}
	original, updated := refs[0].Text, refs[1].Text

	changed, err := s.store.UpdateNote(chatID, original, updated)
	if err != nil {
		s.log.Error("Failed to update note for chat %d: %v", chatID, err)
		return replyChangeFail
	}
	if !changed {
		return replyChangeFail
	}
	return fmt.Sprintf(replyChanged, updated)
}

// DeleteAll drops every note of the chat
func (s *Service) DeleteAll(chatID int64) string {
	if err := s.store.DeleteAllNotes(chatID); err != nil {
		s.log.Error("Failed to delete all notes for chat %d: %v", chatID, err)
		return replyDeleteFail
	}
	return replyAllDeleted
}

// ListAll returns the chat's notes one per line
func (s *Service) ListAll(chatID int64) string {
	list, err := s.store.Notes(chatID)
	if err != nil {
		s.log.Error("Failed to list notes for chat %d: %v", chatID, err)
		return replyNothingSaved
	}
	if len(list) == 0 {
		return replyNothingSaved
	}

	lines := make([]string, 0, len(list))
	for _, note := range list {
		lines = append(lines, note.Content)
	}
	return strings.Join(lines, "\n")
}

// resolve runs a resolution prompt with the chat's full note list attached
// as context and returns the trimmed completion.
func (s *Service) resolve(ctx context.Context, chatID int64, prompt, userName, text string) (string, error) {
	dump, err := s.dumpNotes(chatID)
	if err != nil {
		s.log.Error("Failed to load notes for chat %d: %v", chatID, err)
		return "", err
	}

	reply, err := s.gw.Complete(ctx, llm.Request{
		ChatID: chatID,
		Messages: []llm.Message{
			llm.System(prompt),
			llm.System(dump),
			llm.User(userName + ": " + text),
		},
		MaxTokens:   2000,
		Temperature: 0.5,
	})
	if err != nil {
		s.log.Error("Note resolution failed for chat %d: %v", chatID, err)
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// dumpNotes serializes the chat's notes in the shape the resolution prompts
// describe, a JSON array of {"chat_id", "text"} objects.
func (s *Service) dumpNotes(chatID int64) (string, error) {
	list, err := s.store.Notes(chatID)
	if err != nil {
		return "", err
	}
	refs := make([]noteRef, 0, len(list))
	for _, note := range list {
		refs = append(refs, noteRef{ChatID: note.ChatID, Text: note.Content})
	}
	payload, err := json.Marshal(refs)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
