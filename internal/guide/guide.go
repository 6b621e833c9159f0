// Package guide is the orchestrator behind every transport. It takes one
// inbound message through classify, dispatch and respond, serialized per
// chat so two messages from the same conversation never interleave their
// context mutations. No error escapes: every failure path ends in the
// configured apology so the transport loop only ever sees a reply.
package guide

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gkorolev/telemate/internal/config"
	"github.com/gkorolev/telemate/internal/dialog"
	"github.com/gkorolev/telemate/internal/handler"
	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
	"github.com/gkorolev/telemate/internal/notes"
	"github.com/gkorolev/telemate/internal/reminder"
	"github.com/gkorolev/telemate/internal/router"
)

const (
	replyScheduled   = "Напоминание '%s' установлено на %s."
	replyUnsupported = "Извините, я не могу обработать это сообщение."
)

// Inbound one user message entering the pipeline
type Inbound struct {
	ChatID   int64
	UserName string
	Text     string
	Voice    bool
}

// Outbound the reply plus its desired delivery format
type Outbound struct {
	Text   string
	Output router.OutputType
}

// Guide message orchestrator
type Guide struct {
	router   *router.Router
	handlers *handler.Registry
	notes    *notes.Service
	dialog   *dialog.Manager
	sched    *reminder.Scheduler
	prompts  *config.PromptConfig
	log      *logger.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewGuide wires the orchestrator
func NewGuide(rt *router.Router, handlers *handler.Registry, noteSvc *notes.Service, dlg *dialog.Manager, sched *reminder.Scheduler, prompts *config.PromptConfig, log *logger.Logger) *Guide {
	return &Guide{
		router:   rt,
		handlers: handlers,
		notes:    noteSvc,
		dialog:   dlg,
		sched:    sched,
		prompts:  prompts,
		log:      log,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// chatLock returns the mutex serializing one chat's processing.
func (g *Guide) chatLock(chatID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[chatID] = lock
	}
	return lock
}

// Process runs one message through the full pipeline and always returns a
// reply. The trace id ties the per-message log lines together.
func (g *Guide) Process(ctx context.Context, in Inbound) Outbound {
	trace := uuid.NewString()

	lock := g.chatLock(in.ChatID)
	lock.Lock()
	defer lock.Unlock()

	g.log.Info("[%s] RECEIVED chat=%d voice=%v", trace, in.ChatID, in.Voice)

	history, err := g.dialog.History(in.ChatID)
	if err != nil {
		g.log.Error("[%s] Failed to load dialog context: %v", trace, err)
		history = nil
	}

	taskType := g.router.DetectTaskType(ctx, in.ChatID, in.Text, history)
	outputType := g.router.DetectOutputType(ctx, in.ChatID, in.Text)
	g.log.Info("[%s] CLASSIFIED task=%s output=%s", trace, taskType, outputType)

	text, scheduled, err := g.dispatch(ctx, trace, taskType, in, history)
	if err != nil {
		g.log.Error("[%s] FAILED task=%s: %v", trace, taskType, err)
		return Outbound{Text: g.prompts.GetApology(), Output: outputType}
	}

	g.remember(trace, in, taskType, text)

	if scheduled {
		g.log.Info("[%s] SCHEDULED chat=%d", trace, in.ChatID)
	} else {
		g.log.Info("[%s] RESPONDED chat=%d", trace, in.ChatID)
	}
	return Outbound{Text: text, Output: outputType}
}

// dispatch routes the classified message. The bool result marks replies
// that scheduled a reminder rather than answered directly.
func (g *Guide) dispatch(ctx context.Context, trace string, taskType router.TaskType, in Inbound, history []llm.Message) (string, bool, error) {
	g.log.Info("[%s] DISPATCHED task=%s", trace, taskType)

	switch taskType {
	case router.TaskAddMemory:
		return g.notes.Add(ctx, in.ChatID, in.UserName, in.Text), false, nil
	case router.TaskRecallMemory:
		return g.notes.Recall(ctx, in.ChatID, in.UserName, in.Text), false, nil
	case router.TaskDeleteMemory:
		return g.notes.Delete(ctx, in.ChatID, in.UserName, in.Text), false, nil
	case router.TaskDeleteAllMemories:
		return g.notes.DeleteAll(in.ChatID), false, nil
	case router.TaskChangeMemory:
		return g.notes.Change(ctx, in.ChatID, in.UserName, in.Text), false, nil
	case router.TaskViewMemories:
		return g.notes.ListAll(in.ChatID), false, nil
	case router.TaskReminder:
		return g.scheduleReminder(ctx, in, history)
	}

	h, ok := g.handlers.Get(taskType)
	if !ok {
		g.log.Warn("[%s] No handler for task type %s", trace, taskType)
		return replyUnsupported, false, nil
	}

	resp, err := h.Handle(ctx, handler.Request{
		ChatID:   in.ChatID,
		UserName: in.UserName,
		Text:     in.Text,
		History:  history,
		Now:      time.Now(),
	})
	if err != nil {
		return "", false, err
	}
	return resp.Text, false, nil
}

// scheduleReminder runs the reminder handler and arms the draft it returns.
func (g *Guide) scheduleReminder(ctx context.Context, in Inbound, history []llm.Message) (string, bool, error) {
	h, ok := g.handlers.Get(router.TaskReminder)
	if !ok {
		return replyUnsupported, false, nil
	}

	resp, err := h.Handle(ctx, handler.Request{
		ChatID:   in.ChatID,
		UserName: in.UserName,
		Text:     in.Text,
		History:  history,
		Now:      time.Now(),
	})
	if err != nil {
		return "", false, err
	}
	if resp.Reminder == nil {
		// Draft did not parse, the handler already composed the reply
		return resp.Text, false, nil
	}

	rem, err := g.sched.Add(ctx, in.ChatID, resp.Reminder.Text, resp.Reminder.FireAt, resp.Reminder.Kind)
	if err != nil {
		return "", false, err
	}
	confirmation := fmt.Sprintf(replyScheduled, rem.Text, rem.FireAt.Format("2006-01-02 15:04:05"))
	return confirmation, true, nil
}

// remember appends the exchange to the dialog context. Context writes are
// best effort, a failed write loses continuity but not the reply.
func (g *Guide) remember(trace string, in Inbound, taskType router.TaskType, replyText string) {
	if err := g.dialog.Append(in.ChatID, llm.RoleUser, in.Text, taskType.String()); err != nil {
		g.log.Error("[%s] Failed to store user message: %v", trace, err)
		return
	}
	if err := g.dialog.Append(in.ChatID, llm.RoleAssistant, replyText, taskType.String()); err != nil {
		g.log.Error("[%s] Failed to store assistant message: %v", trace, err)
	}
}

// ClearContext drops the chat's dialog context, used by transport commands
func (g *Guide) ClearContext(chatID int64) error {
	return g.dialog.Clear(chatID)
}
