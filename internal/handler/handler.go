// Package handler contains the per-task-type response generators. Each
// handler owns its own system prompt and generation parameters; free-form
// conversation handlers differ only in prompt and verbosity, while the
// reminder and day-plan handlers ask the model for structured JSON and turn
// it into side effects for the orchestrator.
package handler

import (
	"context"
	"time"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/router"
)

// Request a classified user message ready for response generation
type Request struct {
	ChatID   int64
	UserName string
	Text     string
	History  []llm.Message
	Now      time.Time
}

// ReminderDraft a parsed reminder ready for scheduling
type ReminderDraft struct {
	Text   string
	FireAt time.Time
	Kind   string
}

// Response handler output. Reminder is set only by the reminder handler and
// only when the draft parsed cleanly; the orchestrator schedules it and
// composes the confirmation.
type Response struct {
	Text     string
	Reminder *ReminderDraft
}

// Handler generates a response for one task type
type Handler interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

// Registry maps task types to their handlers
type Registry struct {
	handlers map[router.TaskType]Handler
}

// NewRegistry creates an empty handler registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[router.TaskType]Handler)}
}

// Register binds a handler to a task type, replacing any previous binding
func (r *Registry) Register(task router.TaskType, h Handler) {
	r.handlers[task] = h
}

// Get returns the handler for a task type
func (r *Registry) Get(task router.TaskType) (Handler, bool) {
	h, ok := r.handlers[task]
	return h, ok
}
