package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
)

const reminderPrompt = `Ты помощник, который создает напоминания.
Всегда отвечай ТОЛЬКО в JSON формате с полями:
{
    "text": "текст напоминания",
    "time": "время напоминания в ISO формате",
    "type": "one-time или constant"
}
Примеры:
1. Напомнить купить хлеб -> {"text": "Купить хлеб", "time": "2026-02-27T18:00:00", "type": "one-time"}
2. Ежедневная зарядка -> {"text": "Зарядка", "time": "2026-02-27T07:00:00", "type": "constant"}`

const replyReminderParseFail = "Не удалось распознать детали напоминания."

// KindOneTime fires once, KindConstant re-arms daily after each fire.
const (
	KindOneTime  = "one-time"
	KindConstant = "constant"
)

// reminderJSON is the contract the reminder prompt asks the model to fill.
type reminderJSON struct {
	Text string `json:"text"`
	Time string `json:"time"`
	Type string `json:"type"`
}

// ReminderHandler extracts a reminder draft from the message. The current
// time is injected into the prompt so relative phrases ("через час",
// "завтра в 9") resolve against it.
type ReminderHandler struct {
	gw  llm.Completer
	log *logger.Logger
}

// NewReminderHandler creates a reminder extraction handler
func NewReminderHandler(gw llm.Completer, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{gw: gw, log: log}
}

// Handle extracts the reminder draft. A completion that fails validation
// produces a user-facing failure reply with no draft attached; only gateway
// failures return an error.
func (h *ReminderHandler) Handle(ctx context.Context, req Request) (Response, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	timePrompt := fmt.Sprintf("Текущая дата и время: %s", now.Format("2006-01-02T15:04:05"))

	messages := make([]llm.Message, 0, len(req.History)+3)
	messages = append(messages, llm.System(reminderPrompt))
	messages = append(messages, llm.System(timePrompt))
	messages = append(messages, req.History...)
	messages = append(messages, llm.User(req.UserName+": "+req.Text))

	reply, err := h.gw.Complete(ctx, llm.Request{
		ChatID:      req.ChatID,
		Messages:    messages,
		MaxTokens:   2000,
		Temperature: 0.2,
	})
	if err != nil {
		return Response{}, err
	}

	draft, err := parseReminder(reply)
	if err != nil {
		h.log.Warn("Unparseable reminder draft for chat %d: %v", req.ChatID, err)
		return Response{Text: replyReminderParseFail}, nil
	}
	return Response{Reminder: draft}, nil
}

// parseReminder validates the completion against the reminder contract.
func parseReminder(reply string) (*ReminderDraft, error) {
	var raw reminderJSON
	if err := llm.ExtractObject(reply, &raw); err != nil {
		return nil, err
	}
	if raw.Text == "" || raw.Time == "" || raw.Type == "" {
		return nil, fmt.Errorf("incomplete reminder: %+v", raw)
	}

	kind := strings.TrimSpace(raw.Type)
	if kind != KindOneTime && kind != KindConstant {
		return nil, fmt.Errorf("unknown reminder type %q", raw.Type)
	}

	fireAt, err := parseISOTime(raw.Time)
	if err != nil {
		return nil, fmt.Errorf("bad reminder time %q: %w", raw.Time, err)
	}

	return &ReminderDraft{Text: raw.Text, FireAt: fireAt, Kind: kind}, nil
}

// parseISOTime accepts RFC 3339 with or without the zone offset; zoneless
// timestamps are read in local time, matching how the prompt phrases them.
func parseISOTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, time.Local)
}
