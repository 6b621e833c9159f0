package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gkorolev/telemate/internal/calendar"
	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
)

const todoPrompt = `Ты - ассистент по управлению задачами. Твоя задача - извлекать из сообщений пользователя задачи
и возвращать их в формате JSON. Каждая задача должна содержать следующие поля:
- title: название задачи
- description: описание задачи
- start_time: время начала в формате ISO 8601
- end_time: время окончания в формате ISO 8601

Если время не указано, используй текущую дату и предполагаемую длительность 1 час.

Пример правильного ответа:
[
    {
        "title": "Встреча с клиентом",
        "description": "Обсуждение проекта",
        "start_time": "2026-03-08T15:00:00",
        "end_time": "2026-03-08T16:00:00"
    }
]
Задача без времени должна быть в конце списка.
Обязательно заполни все поля!
Если задача не имеет описания, например "С 10 до 11 я буду занят уборкой", в поле description запиши
"Описание отсутствует".
Все поля должны быть заполнены!
Не меняй название полей, записывай их в таком же порядке, как написано в примере выше!`

const (
	replyTodoExtractFail = "Извините, не удалось извлечь задачи из вашего сообщения."
	replyTodoAllAdded    = "Отлично! Я добавил %d задач в ваш календарь."
	replyTodoPartial     = "Я добавил %d из %d задач в ваш календарь. Некоторые задачи не удалось добавить."
)

// taskJSON is the contract the day-plan prompt asks the model to fill.
type taskJSON struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// TodoHandler extracts a day plan from the message and inserts each task
// into the calendar. Tasks missing a start time are skipped; the summary
// reports how many of the extracted tasks actually landed.
type TodoHandler struct {
	gw       llm.Completer
	calendar calendar.Service
	log      *logger.Logger
}

// NewTodoHandler creates a day-plan handler
func NewTodoHandler(gw llm.Completer, cal calendar.Service, log *logger.Logger) *TodoHandler {
	return &TodoHandler{gw: gw, calendar: cal, log: log}
}

func (h *TodoHandler) Handle(ctx context.Context, req Request) (Response, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	timePrompt := fmt.Sprintf("Текущая дата и время: %s", now.Format("2006-01-02T15:04:05"))

	messages := make([]llm.Message, 0, len(req.History)+3)
	messages = append(messages, llm.System(todoPrompt))
	messages = append(messages, llm.System(timePrompt))
	messages = append(messages, req.History...)
	messages = append(messages, llm.User(req.UserName+": "+req.Text))

	reply, err := h.gw.Complete(ctx, llm.Request{
		ChatID:      req.ChatID,
		Messages:    messages,
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		return Response{}, err
	}

	var raw []taskJSON
	if err := llm.ExtractArray(reply, &raw); err != nil {
		h.log.Warn("Unparseable day plan for chat %d: %v", req.ChatID, err)
		return Response{Text: replyTodoExtractFail}, nil
	}

	tasks := make([]calendar.Event, 0, len(raw))
	for _, task := range raw {
		if task.StartTime == "" {
			h.log.Warn("Skipping task without start time: %q", task.Title)
			continue
		}
		if task.EndTime == "" {
			task.EndTime = task.StartTime
		}
		if task.Description == "" {
			task.Description = "Описание отсутствует"
		}
		tasks = append(tasks, calendar.Event{
			Title:       task.Title,
			Description: task.Description,
			StartTime:   task.StartTime,
			EndTime:     task.EndTime,
		})
	}
	if len(tasks) == 0 {
		return Response{Text: replyTodoExtractFail}, nil
	}

	added := 0
	for _, event := range tasks {
		if err := h.calendar.AddEvent(ctx, event); err != nil {
			h.log.Error("Failed to add calendar event %q: %v", event.Title, err)
			continue
		}
		added++
	}

	if added == len(tasks) {
		return Response{Text: fmt.Sprintf(replyTodoAllAdded, added)}, nil
	}
	return Response{Text: fmt.Sprintf(replyTodoPartial, added, len(tasks))}, nil
}
