package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
)

// chatPrompts per-task-type system prompts for free-form conversation.
const (
	smallTalkPrompt = `Ты дружелюбный ассистент.
Общайся в неформальном стиле,
кратко и позитивно.`

	complexDialogPrompt = `Ты профессиональный ассистент для глубоких,
содержательных диалогов. Отвечай развернуто,
структурированно, с анализом контекста.
Используй профессиональный язык.`

	informationPrompt = `Ты информационный справочник.
Предоставляй точную, проверенную информацию.
Структурируй ответ для легкого восприятия.
При необходимости используй списки и подзаголовки.`

	functionalPrompt = `Ты помощник для выполнения конкретных задач.
Четко и лаконично объясняй алгоритм действий.
Давай пошаговые инструкции.`
)

// ChatHandler free-form conversation handler. The persona is shared across
// all chat task types, the role prompt and generation parameters vary.
type ChatHandler struct {
	gw          llm.Completer
	persona     string
	rolePrompt  string
	maxTokens   int
	temperature float32
	fallback    string
	log         *logger.Logger
}

// NewChatHandler creates a conversation handler with explicit parameters
func NewChatHandler(gw llm.Completer, persona, rolePrompt string, maxTokens int, temperature float32, fallback string, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		gw:          gw,
		persona:     persona,
		rolePrompt:  rolePrompt,
		maxTokens:   maxTokens,
		temperature: temperature,
		fallback:    fallback,
		log:         log,
	}
}

// NewSmallTalkHandler short casual replies
func NewSmallTalkHandler(gw llm.Completer, persona string, log *logger.Logger) *ChatHandler {
	return NewChatHandler(gw, persona, smallTalkPrompt, 100, 0.7,
		"Извините, не могу сформулировать ответ.", log)
}

// NewComplexDialogHandler longer analytical replies
func NewComplexDialogHandler(gw llm.Completer, persona string, log *logger.Logger) *ChatHandler {
	return NewChatHandler(gw, persona, complexDialogPrompt, 300, 0.6,
		"Извините, не могу сформулировать развернутый ответ.", log)
}

// NewInformationHandler reference answers
func NewInformationHandler(gw llm.Completer, persona string, log *logger.Logger) *ChatHandler {
	return NewChatHandler(gw, persona, informationPrompt, 250, 0.5,
		"Извините, не удалось найти информацию по вашему запросу.", log)
}

// NewFunctionalHandler step-by-step instructions
func NewFunctionalHandler(gw llm.Completer, persona string, log *logger.Logger) *ChatHandler {
	return NewChatHandler(gw, persona, functionalPrompt, 200, 0.4,
		"Извините, не могу помочь с выполнением этой задачи.", log)
}

// Handle generates a reply grounded in the dialog history. An empty
// completion is answered with the handler's canned fallback; provider
// failures propagate so the orchestrator can apologize.
func (h *ChatHandler) Handle(ctx context.Context, req Request) (Response, error) {
	systemPrompt := h.rolePrompt
	if h.persona != "" {
		systemPrompt = h.persona + "\n\n" + h.rolePrompt
	}

	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.System(systemPrompt))
	messages = append(messages, req.History...)
	messages = append(messages, llm.User(req.Text))

	reply, err := h.gw.Complete(ctx, llm.Request{
		ChatID:      req.ChatID,
		Messages:    messages,
		MaxTokens:   h.maxTokens,
		Temperature: h.temperature,
	})
	if errors.Is(err, llm.ErrEmptyCompletion) {
		h.log.Warn("Empty completion for chat %d, using fallback reply", req.ChatID)
		return Response{Text: h.fallback}, nil
	}
	if err != nil {
		return Response{}, err
	}
	return Response{Text: strings.TrimSpace(reply)}, nil
}
