package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gkorolev/telemate/internal/calendar"
	"github.com/gkorolev/telemate/internal/cli"
	"github.com/gkorolev/telemate/internal/config"
	"github.com/gkorolev/telemate/internal/dialog"
	"github.com/gkorolev/telemate/internal/guide"
	"github.com/gkorolev/telemate/internal/handler"
	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
	"github.com/gkorolev/telemate/internal/notes"
	"github.com/gkorolev/telemate/internal/reminder"
	"github.com/gkorolev/telemate/internal/router"
	"github.com/gkorolev/telemate/internal/speech"
	"github.com/gkorolev/telemate/internal/storage"
	"github.com/gkorolev/telemate/internal/telegram"
)

var (
	version = "0.1.0"
)

// app holds the wired components shared by the bot and the local REPL.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *storage.SQLiteStore
	gateway *llm.Failover
	guide   *guide.Guide
	notes   *notes.Service
	sched   *reminder.Scheduler
}

// buildApp loads config and wires the pipeline. The scheduler is created
// without a notifier; the caller attaches its transport before Start.
func buildApp(needTelegram bool, notifier reminder.Notifier) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateCredentials(needTelegram); err != nil {
		return nil, err
	}

	// Init rather than NewLogger: the storage layer reports dropped
	// corrupt rows through the package-level default logger.
	if err := logger.Init(logger.Config{
		LogDir:     config.LogDir(),
		Level:      logger.INFO,
		ConsoleOut: false,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Default()

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	registry := llm.NewRegistry()
	if cfg.IsProviderConfigured("openai") {
		p := llm.NewProvider("openai", cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL, cfg.LLM.OpenAI.Model)
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if cfg.IsProviderConfigured("deepseek") {
		p := llm.NewProvider("deepseek", cfg.LLM.DeepSeek.APIKey, cfg.LLM.DeepSeek.BaseURL, cfg.LLM.DeepSeek.Model)
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	primary := cfg.LLM.DefaultProvider
	if !cfg.IsProviderConfigured(primary) {
		// Fall back to whichever provider has a key
		primary = registry.Names()[0]
		log.Warn("Default provider not configured, using %s", primary)
	}
	gateway := llm.NewFailover(registry, store, primary, log)

	prompts, err := config.LoadPromptConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	persona := prompts.GetPersona()

	var cal calendar.Service = calendar.Disabled{}
	if cfg.Calendar.URL != "" {
		cal = calendar.NewHTTPService(cfg.Calendar.URL, cfg.Calendar.Timezone, 0)
	}

	handlers := handler.NewRegistry()
	handlers.Register(router.TaskSmallTalk, handler.NewSmallTalkHandler(gateway, persona, log))
	handlers.Register(router.TaskComplexDialog, handler.NewComplexDialogHandler(gateway, persona, log))
	handlers.Register(router.TaskInformation, handler.NewInformationHandler(gateway, persona, log))
	handlers.Register(router.TaskFunctional, handler.NewFunctionalHandler(gateway, persona, log))
	handlers.Register(router.TaskReminder, handler.NewReminderHandler(gateway, log))
	handlers.Register(router.TaskTodo, handler.NewTodoHandler(gateway, cal, log))

	noteSvc := notes.NewService(store, gateway, log)
	sched := reminder.NewScheduler(store, notifier, cfg.Reminders.SweepSeconds, log)

	g := guide.NewGuide(
		router.NewRouter(gateway, log),
		handlers,
		noteSvc,
		dialog.NewManager(store, cfg.Dialog.MaxMessages, cfg.Dialog.WindowHours),
		sched,
		prompts,
		log,
	)

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		gateway: gateway,
		guide:   g,
		notes:   noteSvc,
		sched:   sched,
	}, nil
}

func (a *app) close() {
	a.store.Close()
	a.log.Close()
}

// runBot starts the Telegram transport and the reminder scheduler
func runBot() error {
	// The bot needs the app wired and the app's scheduler needs the bot
	// as notifier; a relay breaks the cycle.
	relay := &notifierRelay{}

	a, err := buildApp(true, relay)
	if err != nil {
		return err
	}
	defer a.close()

	var synthesizer speech.Synthesizer
	var transcriber speech.Transcriber
	if a.cfg.IsProviderConfigured("openai") {
		sp := speech.NewOpenAISpeech(a.cfg.LLM.OpenAI.APIKey, a.cfg.LLM.OpenAI.BaseURL)
		synthesizer = sp
		transcriber = sp
	}

	bot, err := telegram.NewBot(a.cfg.Telegram.Token, a.guide, a.gateway, transcriber, synthesizer, a.log)
	if err != nil {
		return err
	}
	relay.target = bot

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.log.Info("Shutting down")
		cancel()
	}()

	go a.sched.Start(ctx)

	if err := bot.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// notifierRelay forwards reminder deliveries to the transport once it exists
type notifierRelay struct {
	target reminder.Notifier
}

func (r *notifierRelay) Notify(chatID int64, text string) error {
	if r.target == nil {
		return fmt.Errorf("transport not ready")
	}
	return r.target.Notify(chatID, text)
}

// runChat starts the local terminal REPL
func runChat() error {
	a, err := buildApp(false, cli.StdoutNotifier{})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.sched.Start(ctx)

	repl := cli.NewREPL(a.guide, a.notes, a.store, a.gateway)
	return repl.Run(ctx)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "telemate",
		Short: "TeleMate - personal assistant in Telegram",
		Long: `TeleMate is a personal conversational assistant living in Telegram.

It can:
  • Have natural language conversations (text or voice)
  • Remember notes and recall them on request
  • Schedule one-time and daily reminders
  • Build a day plan and push it to your calendar`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot()
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("TeleMate v%s\n", version)
		},
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
