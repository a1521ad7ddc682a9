// Package telegram adapts the Telegram Bot API long-polling transport to
// the dialogue controller. The transport is deliberately thin: all
// conversation logic lives in internal/dialog.
package telegram

import (
	"context"
	"fmt"

	"github.com/Samandar0813/darsbot/internal/dialog"
	"github.com/Samandar0813/darsbot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Config holds transport configuration
type Config struct {
	Token       string
	PollTimeout int // seconds
}

// Bot is the long-polling Telegram transport.
type Bot struct {
	api        *tgbotapi.BotAPI
	controller *dialog.Controller
	timeout    int
	logger     zerolog.Logger
}

// New connects to the Telegram Bot API.
func New(cfg Config, controller *dialog.Controller, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	log := logger.With().Str("component", "telegram").Logger()
	log.Info().Str("username", api.Self.UserName).Msg("Connected to Telegram")

	return &Bot{
		api:        api,
		controller: controller,
		timeout:    timeout,
		logger:     log,
	}, nil
}

// Run polls for updates until the context is canceled. One update is
// processed to completion before the next is read, matching the
// single-turn conversation model.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.timeout

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
		return
	}
	metrics.UpdatesTotal.WithLabelValues("message").Inc()

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	replies := b.controller.Handle(ctx, userID, update.Message.Text)
	for _, reply := range replies {
		if err := b.send(chatID, reply); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
		}
	}
}

func (b *Bot) send(chatID int64, reply dialog.Reply) error {
	if reply.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  reply.Document.Name,
			Bytes: reply.Document.Data,
		})
		doc.Caption = reply.Caption
		_, err := b.api.Send(doc)
		return err
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	switch {
	case len(reply.Keyboard) > 0:
		msg.ReplyMarkup = replyKeyboard(reply.Keyboard)
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	_, err := b.api.Send(msg)
	return err
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboardRows := make([][]tgbotapi.KeyboardButton, len(rows))
	for i, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, len(row))
		for j, label := range row {
			buttons[j] = tgbotapi.NewKeyboardButton(label)
		}
		keyboardRows[i] = buttons
	}
	return tgbotapi.NewReplyKeyboard(keyboardRows...)
}
