package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/abelzeko/riverflow/internal/entities"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// messageSender is the part of tgbotapi.BotAPI used to reply
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramConversation turns one Telegram chat into a LineReader and io.Writer.
// Written text is buffered and sent as a single message whenever input is needed.
type TelegramConversation struct {
	sender  messageSender
	chatID  int64
	updates <-chan tgbotapi.Update
	pending strings.Builder
	logger  *slog.Logger
}

// NewTelegramConversation creates a conversation bound to chatID
func NewTelegramConversation(sender messageSender, chatID int64, updates <-chan tgbotapi.Update, logger *slog.Logger) *TelegramConversation {
	return &TelegramConversation{
		sender:  sender,
		chatID:  chatID,
		updates: updates,
		logger:  logger,
	}
}

// Write buffers output until the next Flush or ReadLine
func (c *TelegramConversation) Write(p []byte) (int, error) {
	return c.pending.Write(p)
}

// Flush sends buffered output as one message
func (c *TelegramConversation) Flush() error {
	text := strings.TrimSpace(c.pending.String())
	c.pending.Reset()
	if text == "" {
		return nil
	}
	if _, err := c.sender.Send(tgbotapi.NewMessage(c.chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// ReadLine flushes pending output and waits for the next text message from the chat.
// Messages from other chats are ignored.
func (c *TelegramConversation) ReadLine(ctx context.Context) (string, error) {
	if err := c.Flush(); err != nil {
		return "", err
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case update, ok := <-c.updates:
			if !ok {
				return "", io.EOF
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			if update.Message.Chat.ID != c.chatID {
				c.logger.Warn("ignoring message from unexpected chat", "chat_id", update.Message.Chat.ID)
				continue
			}
			c.logger.Info("received message", "chat_id", c.chatID, "text", update.Message.Text)
			return update.Message.Text, nil
		}
	}
}

// TelegramBot serves interactive sessions to a single Telegram chat
type TelegramBot struct {
	conversation *TelegramConversation
	service      FlowService
	stations     []entities.Station
	logger       *slog.Logger
}

// NewTelegramBot creates a bot that runs sessions over conversation
func NewTelegramBot(conversation *TelegramConversation, service FlowService, stations []entities.Station, logger *slog.Logger) *TelegramBot {
	return &TelegramBot{
		conversation: conversation,
		service:      service,
		stations:     stations,
		logger:       logger,
	}
}

// Start runs sessions back to back until the updates channel closes, ctx is
// cancelled or a fatal error occurs. After a session ends the next message
// starts a new one.
func (t *TelegramBot) Start(ctx context.Context) error {
	c := t.conversation
	for {
		session := NewSession(t.service, t.stations, c, c, t.logger)
		err := session.Run(ctx)
		if ctx.Err() != nil {
			t.logger.Info("telegram bot stopped", "err", ctx.Err())
			return nil
		}
		if err != nil {
			fmt.Fprintf(c, "Error: %v", err)
		} else {
			fmt.Fprint(c, "Send any message to start a new search.")
		}
		if flushErr := c.Flush(); flushErr != nil {
			t.logger.Error("failed to send reply", "err", flushErr)
		}
		if err != nil {
			return err
		}

		if _, err := c.ReadLine(ctx); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
