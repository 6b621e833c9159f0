// Package cli provides the local chat REPL. It drives the same orchestrator
// as the Telegram transport, so notes, reminders and classification behave
// identically; only delivery differs, replies and fired reminders print to
// the terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/gkorolev/telemate/internal/guide"
	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/notes"
	"github.com/gkorolev/telemate/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// localChatID is the fixed conversation id of the terminal session. All REPL
// state (context, notes, reminders) lives under it.
const localChatID int64 = 1

// REPL local terminal chat
type REPL struct {
	guide   *guide.Guide
	notes   *notes.Service
	store   storage.Store
	gateway *llm.Failover
}

// NewREPL creates the terminal chat interface
func NewREPL(g *guide.Guide, noteSvc *notes.Service, store storage.Store, gateway *llm.Failover) *REPL {
	return &REPL{guide: g, notes: noteSvc, store: store, gateway: gateway}
}

// StdoutNotifier prints fired reminders to the terminal
type StdoutNotifier struct{}

func (StdoutNotifier) Notify(_ int64, text string) error {
	fmt.Printf("\n%s🔔 %s%s\n", colorYellow, text, colorReset)
	return nil
}

func historyFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	historyDir := filepath.Join(homeDir, ".telemate")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return ""
	}
	return filepath.Join(historyDir, "history")
}

// Run starts the interactive loop and blocks until /exit or EOF
func (r *REPL) Run(ctx context.Context) error {
	printWelcome(r.gateway.Preferred(localChatID))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            fmt.Sprintf("%sYou: %s", colorGreen, colorReset),
		HistoryFile:       historyFilePath(),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n%sПока! 👋%s\n", colorCyan, colorReset)
		cancel()
		rl.Close()
		os.Exit(0)
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("%sНажмите Ctrl+C еще раз или введите /exit для выхода%s\n", colorYellow, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Printf("%sПока! 👋%s\n", colorCyan, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if r.handleCommand(ctx, input) {
				continue
			}
			return nil
		}

		out := r.guide.Process(ctx, guide.Inbound{
			ChatID:   localChatID,
			UserName: "local",
			Text:     input,
		})
		fmt.Printf("\n%sTeleMate: %s%s\n\n", colorBlue, colorReset, out.Text)
	}
}

// handleCommand handles built-in commands, returns false on /exit
func (r *REPL) handleCommand(ctx context.Context, cmd string) bool {
	switch strings.ToLower(strings.Fields(cmd)[0]) {
	case "/help":
		printHelp()
	case "/notes":
		fmt.Println(r.notes.ListAll(localChatID))
	case "/reminders":
		r.printReminders()
	case "/clear":
		if err := r.guide.ClearContext(localChatID); err != nil {
			fmt.Printf("%s❌ Не удалось очистить контекст: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Printf("%s✅ Контекст диалога очищен%s\n", colorGreen, colorReset)
		}
	case "/model":
		r.switchModel()
	case "/balance":
		r.checkBalance(ctx)
	case "/exit", "/quit", "/q":
		fmt.Printf("%sПока! 👋%s\n", colorCyan, colorReset)
		return false
	default:
		fmt.Printf("%s❓ Неизвестная команда: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Println("Введите /help для списка команд")
	}
	return true
}

func (r *REPL) printReminders() {
	reminders, err := r.store.Reminders()
	if err != nil {
		fmt.Printf("%s❌ Не удалось загрузить напоминания: %v%s\n", colorRed, err, colorReset)
		return
	}

	shown := 0
	for _, rem := range reminders {
		if rem.ChatID != localChatID {
			continue
		}
		fmt.Printf("  %d. %s — %s (%s)\n", rem.ID, rem.Text, rem.FireAt.Format("2006-01-02 15:04"), rem.Kind)
		shown++
	}
	if shown == 0 {
		fmt.Println("Нет активных напоминаний.")
	}
}

func (r *REPL) switchModel() {
	current := r.gateway.Preferred(localChatID)
	for _, name := range r.gateway.Providers() {
		if name == current {
			continue
		}
		if err := r.gateway.SetPreferred(localChatID, name); err != nil {
			fmt.Printf("%s❌ Не удалось переключить модель: %v%s\n", colorRed, err, colorReset)
			return
		}
		fmt.Printf("%s✅ Переключено на модель: %s%s\n", colorGreen, name, colorReset)
		return
	}
	fmt.Printf("%s❌ Нет другой настроенной модели%s\n", colorRed, colorReset)
}

func (r *REPL) checkBalance(ctx context.Context) {
	provider := r.gateway.Preferred(localChatID)
	balance, err := r.gateway.Balance(ctx, localChatID)
	if err != nil {
		fmt.Printf("%s❌ %s: Проблемы с ключом%s\n", colorRed, provider, colorReset)
		return
	}
	fmt.Printf("%s💰 %s: %s%s\n", colorGreen, provider, balance, colorReset)
}

func printWelcome(model string) {
	fmt.Printf("\n%s🤖 TeleMate%s — персональный ассистент (модель: %s)\n", colorCyan, colorReset, model)
	fmt.Printf("%sВведите /help для справки, /exit для выхода%s\n\n", colorGray, colorReset)
}

func printHelp() {
	fmt.Printf(`
%s📚 Команды%s

  /help       - Показать эту справку
  /notes      - Показать все заметки
  /reminders  - Показать активные напоминания
  /clear      - Очистить контекст диалога
  /model      - Переключить LLM-модель
  /balance    - Показать баланс текущей модели
  /exit       - Выйти

%sПримеры%s

  "Запомни, мне нравится шоколад Alpen Gold"
  "Напомни мне, какой шоколад мне понравился?"
  "Напомни сегодня в 16 часов встретить жену"
  "Составь план на сегодня: в 8 отвезти дочь, в 11 к маме"

`, colorYellow, colorReset, colorYellow, colorReset)
}
