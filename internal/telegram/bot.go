package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/entity"
)

const (
	msgWelcome = "Hi! Send me a question and I will look it up in the knowledge base."
	msgHelp    = "Send any question as a plain message.\n\n" +
		"/start - show the welcome message\n" +
		"/help - show this help"
	msgNoMatch = "I could not find a confident answer to that. Try rephrasing the question."
	msgError   = "Something went wrong, please try again."
)

// ChatUsecase is the slice of the query resolver the relay needs.
type ChatUsecase interface {
	Resolve(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error)
}

// Bot relays Telegram messages to the query resolver and replies with the
// matched answer.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.TelegramConfig
	chatUC   ChatUsecase
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewBot creates and authorizes the relay bot.
func NewBot(cfg *config.TelegramConfig, chatUC ChatUsecase, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return &Bot{
		api:      api,
		cfg:      cfg,
		chatUC:   chatUC,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins polling for updates. It returns immediately; processing runs
// in the background until Stop is called or the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx, updates)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully, waiting for in-flight handlers.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(30 * time.Second):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed")
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if message.Text == "" {
		b.send(ctx, message.Chat.ID, "I can only answer text questions.")
		return
	}

	ctxzap.Info(ctx, "question received",
		zap.Int64("user_id", message.From.ID),
		zap.Int("length", len(message.Text)),
	)

	result, err := b.chatUC.Resolve(ctx, &entity.QueryRequest{Question: message.Text})
	if err != nil {
		ctxzap.Error(ctx, "failed to resolve question",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
		)
		b.send(ctx, message.Chat.ID, msgError)
		return
	}

	if !result.Matched {
		b.send(ctx, message.Chat.ID, msgNoMatch)
		return
	}

	b.send(ctx, message.Chat.ID, result.Answer)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("user_id", message.From.ID),
	)

	switch command {
	case "start":
		b.send(ctx, message.Chat.ID, msgWelcome)
	case "help":
		b.send(ctx, message.Chat.ID, msgHelp)
	default:
		b.send(ctx, message.Chat.ID, "Unknown command. Use /help")
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
