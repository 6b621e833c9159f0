// Package router classifies incoming messages. Two independent dimensions
// are detected per message: the task type (what the user wants done) and the
// output type (how the answer should be delivered). Both classifications are
// LLM calls whose replies are matched against known labels; an unrecognized
// reply falls back to a safe default rather than failing the turn.
package router

import (
	"context"
	"strings"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
)

// TaskType classified intent of a user message
type TaskType string

const (
	TaskSmallTalk         TaskType = "SMALL_TALK"
	TaskComplexDialog     TaskType = "COMPLEX_DIALOG"
	TaskFunctional        TaskType = "FUNCTIONAL"
	TaskInformation       TaskType = "INFORMATION"
	TaskReminder          TaskType = "REMINDER"
	TaskAddMemory         TaskType = "ADD_MEMORY"
	TaskRecallMemory      TaskType = "RECALL_MEMORY"
	TaskDeleteMemory      TaskType = "DELETE_MEMORY"
	TaskDeleteAllMemories TaskType = "DELETE_ALL_MEMORIES"
	TaskChangeMemory      TaskType = "CHANGE_MEMORY"
	TaskViewMemories      TaskType = "VIEW_MEMORIES"
	TaskTodo              TaskType = "TODO"
)

func (t TaskType) String() string {
	return string(t)
}

// OutputType desired delivery format of the reply
type OutputType string

const (
	OutputText    OutputType = "TEXT"
	OutputAudio   OutputType = "AUDIO"
	OutputMulti   OutputType = "MULTI"
	OutputDefault OutputType = "DEFAULT"
)

func (o OutputType) String() string {
	return string(o)
}

// taskOrder is the match priority for the classifier reply scan. A reply
// that mentions several labels resolves to the earliest entry, so read
// operations rank above their destructive counterparts.
var taskOrder = []TaskType{
	TaskSmallTalk,
	TaskComplexDialog,
	TaskFunctional,
	TaskInformation,
	TaskReminder,
	TaskRecallMemory,
	TaskAddMemory,
	TaskDeleteAllMemories,
	TaskDeleteMemory,
	TaskChangeMemory,
	TaskViewMemories,
	TaskTodo,
}

var outputOrder = []OutputType{
	OutputText,
	OutputAudio,
	OutputMulti,
	OutputDefault,
}

// Router LLM-backed message classifier
type Router struct {
	gw  llm.Completer
	log *logger.Logger
}

// NewRouter creates a message classifier on top of an LLM gateway
func NewRouter(gw llm.Completer, log *logger.Logger) *Router {
	return &Router{gw: gw, log: log}
}

// DetectTaskType classifies what the user wants done. The dialog history is
// passed to the classifier so context references ("повтори", "а что я
// говорил?") are not mistaken for note lookups. Never fails: unrecognized
// or errored classifications fall back to COMPLEX_DIALOG.
func (r *Router) DetectTaskType(ctx context.Context, chatID int64, message string, history []llm.Message) TaskType {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.System(taskPrompt))
	messages = append(messages, history...)
	messages = append(messages, llm.User(message))

	reply, err := r.gw.Complete(ctx, llm.Request{
		ChatID:      chatID,
		Messages:    messages,
		MaxTokens:   2000,
		Temperature: 0.5,
	})
	if err != nil {
		r.log.Warn("Task classification failed, falling back to COMPLEX_DIALOG: %v", err)
		return TaskComplexDialog
	}

	upper := strings.ToUpper(reply)
	for _, task := range taskOrder {
		if strings.Contains(upper, string(task)) {
			r.log.Info("Classified task type %s for chat %d", task, chatID)
			return task
		}
	}

	r.log.Warn("Unrecognized task classification %q, falling back to COMPLEX_DIALOG", reply)
	return TaskComplexDialog
}

// DetectOutputType classifies how the reply should be delivered. The dialog
// history is not needed here, the request alone carries the format wish.
// Falls back to TEXT.
func (r *Router) DetectOutputType(ctx context.Context, chatID int64, message string) OutputType {
	reply, err := r.gw.Complete(ctx, llm.Request{
		ChatID: chatID,
		Messages: []llm.Message{
			llm.System(outputPrompt),
			llm.User(message),
		},
		MaxTokens:   2000,
		Temperature: 0.5,
	})
	if err != nil {
		r.log.Warn("Output classification failed, falling back to TEXT: %v", err)
		return OutputText
	}

	upper := strings.ToUpper(reply)
	for _, output := range outputOrder {
		if strings.Contains(upper, string(output)) {
			return output
		}
	}

	r.log.Warn("Unrecognized output classification %q, falling back to TEXT", reply)
	return OutputText
}
