package bot

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near"
)

func (b *Bot) send(c tgbotapi.Chattable) {
	if b.sendHook != nil {
		b.sendHook(c)
		return
	}
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// sendMarkdown sends a Markdown-formatted message, typically one carrying
// a wallet or explorer link.
func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) sendKeyboard(chatID int64, text string, rows [][]tgbotapi.InlineKeyboardButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

// requireSession resolves the chat's wallet session. When the chat has not
// logged in it sends the login prompt and reports false; the caller aborts
// its action without queueing it.
func (b *Bot) requireSession(chatID int64) (models.Session, bool) {
	session, ok := b.store.GetSession(chatID)
	if !ok {
		b.sendMarkdown(chatID, fmt.Sprintf("Please [login](%s) first", b.near.LoginURL(chatID)))
		return models.Session{}, false
	}
	return session, true
}

// sendTransaction builds a wallet sign URL for the call and offers it to
// the chat. A failed build produces a generic failure message and no URL.
func (b *Bot) sendTransaction(
	ctx context.Context,
	session models.Session,
	contract, method string,
	args any,
	deposits []models.DepositRequirement,
	attachedDeposit string,
	note string,
) {
	url, err := b.near.SignURL(ctx, session, contract, method, args, deposits, attachedDeposit, near.DefaultGas)
	if err != nil {
		b.logger.Error("Failed to build sign URL",
			zap.Int64("chat_id", session.ChatID),
			zap.String("contract", contract),
			zap.String("method", method),
			zap.Error(err),
		)
		b.sendText(session.ChatID, "Something went wrong")
		return
	}

	text := fmt.Sprintf("[Click to send transaction](%s)", url)
	if note != "" {
		text = note + "\n\n" + text
	}
	b.sendMarkdown(session.ChatID, text)
}

// orderIDArg embeds an order id into JSON arguments. Order ids arrive as
// opaque tokens from callback payloads or user input; a token that is
// itself valid JSON (the contract's id tuple form) is passed through raw,
// anything else is sent as a JSON string.
func orderIDArg(id string) json.RawMessage {
	if json.Valid([]byte(id)) {
		return json.RawMessage(id)
	}
	quoted, _ := json.Marshal(id)
	return quoted
}

// getOrder fetches a single order from the exchange contract.
func (b *Bot) getOrder(ctx context.Context, orderID string) (models.Order, error) {
	raw, err := b.near.ContractQuery(ctx, b.cfg.Contract, "get_order", map[string]any{
		"order_id": orderIDArg(orderID),
	})
	if err != nil {
		return models.Order{}, err
	}
	if string(raw) == "null" {
		return models.Order{}, fmt.Errorf("order %s not found", orderID)
	}
	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return models.Order{}, fmt.Errorf("malformed order %s: %w", orderID, err)
	}
	return order, nil
}
