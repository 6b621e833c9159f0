// Package telegram is the bot transport. It runs the long-poll loop, hands
// every message to the orchestrator and delivers the reply in the format the
// classifier picked: text, a synthesized voice clip, or both. Voice messages
// are transcribed before processing; a voice question gets a voice answer
// unless the user asked for text.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gkorolev/telemate/internal/guide"
	"github.com/gkorolev/telemate/internal/llm"
	"github.com/gkorolev/telemate/internal/logger"
	"github.com/gkorolev/telemate/internal/router"
	"github.com/gkorolev/telemate/internal/speech"
)

const welcomeText = `👋 Привет! Я твой умный ассистент.

Я могу:
✉️ Общаться на разные темы
🔍 Искать информацию
📝 Запоминать заметки
📅 Создавать напоминания
🔊 Принимать голосовые сообщения

Отправь голосовое или текстовое сообщение для общения!`

const (
	replySwitched    = "✅ Переключено на модель: %s"
	replySwitchFail  = "❌ Не удалось переключиться на другую модель."
	replyVoiceFail   = "Не удалось обработать голосовое сообщение."
	replyBalance     = "💰 %s: %s"
	replyBalanceFail = "❌ %s: Проблемы с ключом"
)

// Bot Telegram transport
type Bot struct {
	api         *tgbotapi.BotAPI
	guide       *guide.Guide
	gateway     *llm.Failover
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	client      *http.Client
	log         *logger.Logger
}

// NewBot connects to the Telegram API
func NewBot(token string, g *guide.Guide, gateway *llm.Failover, transcriber speech.Transcriber, synthesizer speech.Synthesizer, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	log.Info("Authorized as @%s", api.Self.UserName)

	return &Bot{
		api:         api,
		guide:       g,
		gateway:     gateway,
		transcriber: transcriber,
		synthesizer: synthesizer,
		client:      &http.Client{Timeout: 60 * time.Second},
		log:         log,
	}, nil
}

// Run polls for updates until the context is cancelled. Messages from
// different chats are handled concurrently; the orchestrator serializes
// per chat.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("Telegram bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// Notify implements reminder delivery
func (b *Bot) Notify(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Panic handling message from chat %d: %v", msg.Chat.ID, r)
		}
	}()

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Voice != nil {
		b.handleVoice(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	out := b.guide.Process(ctx, guide.Inbound{
		ChatID:   msg.Chat.ID,
		UserName: userName(msg),
		Text:     msg.Text,
	})
	b.deliver(ctx, msg.Chat.ID, out, false)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, welcomeText)
	case "model":
		b.switchModel(chatID)
	case "balance", "check_balance":
		b.checkBalance(ctx, chatID)
	case "clear":
		if err := b.guide.ClearContext(chatID); err != nil {
			b.log.Error("Failed to clear context for chat %d: %v", chatID, err)
			b.reply(chatID, "Не удалось очистить контекст.")
			return
		}
		b.reply(chatID, "Контекст диалога очищен.")
	default:
		b.reply(chatID, "Неизвестная команда. Доступны: /start, /model, /balance, /clear")
	}
}

// checkBalance reports the remaining balance of the chat's current provider.
func (b *Bot) checkBalance(ctx context.Context, chatID int64) {
	provider := b.gateway.Preferred(chatID)
	balance, err := b.gateway.Balance(ctx, chatID)
	if err != nil {
		b.log.Warn("Balance check failed for chat %d on %s: %v", chatID, provider, err)
		b.reply(chatID, fmt.Sprintf(replyBalanceFail, provider))
		return
	}
	b.reply(chatID, fmt.Sprintf(replyBalance, provider, balance))
}

// switchModel toggles the chat's preferred provider to the next registered one.
func (b *Bot) switchModel(chatID int64) {
	current := b.gateway.Preferred(chatID)
	next := ""
	for _, name := range b.gateway.Providers() {
		if name != current {
			next = name
			break
		}
	}
	if next == "" {
		b.reply(chatID, replySwitchFail)
		return
	}
	if err := b.gateway.SetPreferred(chatID, next); err != nil {
		b.log.Error("Failed to switch provider for chat %d: %v", chatID, err)
		b.reply(chatID, replySwitchFail)
		return
	}
	b.reply(chatID, fmt.Sprintf(replySwitched, next))
}

func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	audio, err := b.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		b.log.Error("Failed to download voice from chat %d: %v", chatID, err)
		b.reply(chatID, replyVoiceFail)
		return
	}

	text, err := b.transcriber.Transcribe(ctx, bytes.NewReader(audio), "voice.ogg")
	if err != nil {
		b.log.Error("Failed to transcribe voice from chat %d: %v", chatID, err)
		b.reply(chatID, replyVoiceFail)
		return
	}
	b.log.Info("Transcribed voice from chat %d: %s", chatID, text)

	out := b.guide.Process(ctx, guide.Inbound{
		ChatID:   chatID,
		UserName: userName(msg),
		Text:     text,
		Voice:    true,
	})
	b.deliver(ctx, chatID, out, true)
}

func (b *Bot) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve voice file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// deliveryPlan decides the reply formats. DEFAULT follows the incoming
// modality, MULTI sends both text and voice.
func deliveryPlan(output router.OutputType, voiceIn bool) (wantText, wantVoice bool) {
	switch output {
	case router.OutputAudio:
		return false, true
	case router.OutputMulti:
		return true, true
	case router.OutputDefault:
		if voiceIn {
			return false, true
		}
	}
	return true, false
}

func (b *Bot) deliver(ctx context.Context, chatID int64, out guide.Outbound, voiceIn bool) {
	wantText, wantVoice := deliveryPlan(out.Output, voiceIn)

	if wantText {
		b.reply(chatID, out.Text)
	}
	if wantVoice {
		b.replyVoice(ctx, chatID, out.Text, !wantText)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("Failed to send message to chat %d: %v", chatID, err)
	}
}

// replyVoice synthesizes and sends the reply as a voice message. When the
// voice was the only planned delivery, synthesis failure degrades to text.
func (b *Bot) replyVoice(ctx context.Context, chatID int64, text string, textFallback bool) {
	if b.synthesizer == nil {
		if textFallback {
			b.reply(chatID, text)
		}
		return
	}

	audio, err := b.synthesizer.Synthesize(ctx, text)
	if err != nil {
		b.log.Error("Failed to synthesize reply for chat %d: %v", chatID, err)
		if textFallback {
			b.reply(chatID, text)
		}
		return
	}

	voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "voice.ogg", Bytes: audio})
	if _, err := b.api.Send(voice); err != nil {
		b.log.Error("Failed to send voice to chat %d: %v", chatID, err)
		if textFallback {
			b.reply(chatID, text)
		}
	}
}

func userName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return "user"
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
}
