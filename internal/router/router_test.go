package router

import (
	"context"
	"errors"
	"testing"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
)

type fakeCompleter struct {
	reply string
	err   error
	last  llm.Request
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestRouter(t *testing.T, gw llm.Completer) *Router {
	t.Helper()

	log, err := logger.NewLogger(logger.Config{LogDir: t.TempDir(), Level: logger.ERROR})
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	return NewRouter(gw, log)
}

func TestDetectTaskType(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected TaskType
	}{
		{"bare label", "REMINDER", TaskReminder},
		{"lowercase label", "add_memory", TaskAddMemory},
		{"label inside prose", "Тип запроса: VIEW_MEMORIES.", TaskViewMemories},
		{"recall over add", "RECALL_MEMORY", TaskRecallMemory},
		{"delete all over delete one", "DELETE_ALL_MEMORIES", TaskDeleteAllMemories},
		{"single delete", "DELETE_MEMORY", TaskDeleteMemory},
		{"todo", "TODO", TaskTodo},
		{"gibberish falls back", "не знаю, что это", TaskComplexDialog},
		{"empty falls back", "", TaskComplexDialog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeCompleter{reply: tt.reply}
			r := newTestRouter(t, gw)

			got := r.DetectTaskType(context.Background(), 1, "сообщение", nil)
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDetectTaskTypeGatewayError(t *testing.T) {
	gw := &fakeCompleter{err: errors.New("gateway down")}
	r := newTestRouter(t, gw)

	got := r.DetectTaskType(context.Background(), 1, "привет", nil)
	if got != TaskComplexDialog {
		t.Errorf("Expected COMPLEX_DIALOG fallback on gateway error, got %s", got)
	}
}

func TestDetectTaskTypePassesHistory(t *testing.T) {
	gw := &fakeCompleter{reply: "SMALL_TALK"}
	r := newTestRouter(t, gw)

	history := []llm.Message{
		llm.User("меня зовут Глеб"),
		llm.Assistant("Приятно познакомиться!"),
	}
	r.DetectTaskType(context.Background(), 7, "повтори", history)

	// system prompt + 2 history messages + user message
	if len(gw.last.Messages) != 4 {
		t.Fatalf("Expected 4 messages in classification request, got %d", len(gw.last.Messages))
	}
	if gw.last.Messages[0].Role != llm.RoleSystem {
		t.Errorf("Expected system prompt first, got role %s", gw.last.Messages[0].Role)
	}
	if gw.last.Messages[3].Content != "повтори" {
		t.Errorf("Expected user message last, got %q", gw.last.Messages[3].Content)
	}
	if gw.last.ChatID != 7 {
		t.Errorf("Expected chat id 7 on request, got %d", gw.last.ChatID)
	}
}

func TestDetectOutputType(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected OutputType
	}{
		{"text", "TEXT", OutputText},
		{"audio", "AUDIO", OutputAudio},
		{"multi", "MULTI", OutputMulti},
		{"default", "DEFAULT", OutputDefault},
		{"prose wrapped", "Думаю, здесь подойдет AUDIO", OutputAudio},
		{"gibberish falls back", "???", OutputText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeCompleter{reply: tt.reply}
			r := newTestRouter(t, gw)

			got := r.DetectOutputType(context.Background(), 1, "сообщение")
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDetectOutputTypeGatewayError(t *testing.T) {
	gw := &fakeCompleter{err: errors.New("gateway down")}
	r := newTestRouter(t, gw)

	got := r.DetectOutputType(context.Background(), 1, "ответь голосовым")
	if got != OutputText {
		t.Errorf("Expected TEXT fallback on gateway error, got %s", got)
	}
}
