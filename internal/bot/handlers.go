package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleUpdate processes a single Telegram update.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	}
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.sendText(message.Chat.ID, "Something went wrong")
		}
	}()

	chatID := message.Chat.ID
	ctx := context.Background()

	if !message.IsCommand() {
		// Free text only means something when a question is outstanding.
		// Taking the answer removes it, so it fires exactly once; text
		// with no pending answer is ignored.
		answer, ok := b.store.TakePendingAnswer(chatID)
		if !ok {
			return
		}
		b.dispatchAnswer(ctx, chatID, answer, message.Text)
		return
	}

	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "login":
		b.handleLogin(message)
	case "balance":
		b.handleBalance(ctx, message)
	case "buy":
		b.handleBuy(ctx, message)
	case "orders":
		b.handleOrders(ctx, message)
	case "sell":
		b.handleSell(ctx, message)
	case "cancel":
		b.handleCancel(ctx, message)
	}
}
