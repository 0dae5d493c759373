package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near"
)

// handleCallbackQuery processes inline keyboard button clicks. Payloads
// are "<action> <arg>" with a single-space separator.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.Data == "" || query.Message == nil {
		b.logger.Debug("Callback query without data or message")
		return
	}

	// Answer the callback query to remove loading state
	if b.api != nil {
		b.api.Request(tgbotapi.NewCallback(query.ID, ""))
	}

	chatID := query.Message.Chat.ID
	ctx := context.Background()
	action, arg, _ := strings.Cut(query.Data, " ")

	switch action {
	case "orders":
		b.handleOrdersAction(ctx, chatID, arg)
	case "match":
		b.handleMatchAction(ctx, chatID, arg)
	case "sell":
		b.handleSellAction(chatID, arg)
	case "on_sell_max_amount":
		b.handleSellMaxAction(chatID, arg)
	}
}

// handleOrdersAction resolves a pair handle and lists its open orders.
func (b *Bot) handleOrdersAction(ctx context.Context, chatID int64, handle string) {
	pair, ok := b.store.ResolvePair(handle)
	if !ok {
		b.logger.Warn("Unknown pair handle", zap.String("handle", handle))
		b.sendText(chatID, "Something went wrong")
		return
	}
	sellToken, buyToken, _ := strings.Cut(pair, "#")

	raw, err := b.near.ContractQuery(ctx, b.cfg.Contract, "get_orders", map[string]string{
		"sell_token": sellToken,
		"buy_token":  buyToken,
	})
	if err != nil {
		b.logger.Error("Failed to fetch orders", zap.String("pair", pair), zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}

	var orders []models.OrderView
	if string(raw) != "null" {
		if err := json.Unmarshal(raw, &orders); err != nil {
			b.logger.Error("Malformed get_orders result", zap.Error(err))
			b.sendText(chatID, "Something went wrong")
			return
		}
	}
	if len(orders) == 0 {
		b.sendText(chatID, "No orders")
		return
	}

	rows, err := b.orderListKeyboard(ctx, orders)
	if err != nil {
		b.logger.Error("Failed to render order list", zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}
	b.sendKeyboard(chatID, "Orders:", rows)
}

// orderListKeyboard renders one row per order, keyed by order id.
func (b *Bot) orderListKeyboard(ctx context.Context, orders []models.OrderView) ([][]tgbotapi.InlineKeyboardButton, error) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, view := range orders {
		order := view.Order

		sellAmount, err := b.near.ToHuman(ctx, order.SellAmount, order.SellToken, 6)
		if err != nil {
			return nil, err
		}
		buyAmount, err := b.near.ToHuman(ctx, order.BuyAmount, order.BuyToken, 6)
		if err != nil {
			return nil, err
		}
		sellMeta, err := b.near.TokenMeta(ctx, order.SellToken)
		if err != nil {
			return nil, err
		}
		buyMeta, err := b.near.TokenMeta(ctx, order.BuyToken)
		if err != nil {
			return nil, err
		}

		label := fmt.Sprintf("Buy %s %s for %s %s", sellAmount, sellMeta.Symbol, buyAmount, buyMeta.Symbol)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "match "+compactID(view.OrderID)),
		))
	}
	return rows, nil
}

// compactID strips whitespace from an order id's JSON form so it survives
// the single-space callback payload format.
func compactID(id json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, id); err != nil {
		return strings.Join(strings.Fields(string(id)), "")
	}
	return buf.String()
}

// handleMatchAction builds the transfer-with-callback transaction that
// matches an order: it pays the order's buy amount to the exchange
// contract with a message naming the order id, prepending storage
// registrations for the contract, the buyer and the maker as needed.
func (b *Bot) handleMatchAction(ctx context.Context, chatID int64, orderID string) {
	session, ok := b.requireSession(chatID)
	if !ok {
		return
	}

	order, err := b.getOrder(ctx, orderID)
	if err != nil {
		b.logger.Error("Failed to fetch order", zap.String("order_id", orderID), zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}

	msg, err := json.Marshal(map[string]any{"order_id": orderIDArg(orderID)})
	if err != nil {
		b.logger.Error("Failed to encode match message", zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}

	b.sendTransaction(ctx, session, order.BuyToken, "ft_transfer_call",
		map[string]string{
			"receiver_id": b.cfg.Contract,
			"amount":      order.BuyAmount,
			"msg":         string(msg),
		},
		[]models.DepositRequirement{
			{Contract: order.BuyToken, Account: b.cfg.Contract},
			{Contract: order.SellToken, Account: session.AccountID},
			{Contract: order.BuyToken, Account: order.Maker},
		},
		near.OneYocto, "")
}

// handleSellAction asks for the amount to sell and installs the pending
// answer that continues the flow on the next free-text message.
func (b *Bot) handleSellAction(chatID int64, draftID string) {
	draft, ok := b.store.GetSellDraft(chatID, draftID)
	if !ok {
		b.logger.Warn("Unknown sell draft", zap.Int64("chat_id", chatID), zap.String("draft_id", draftID))
		b.sendText(chatID, "Something went wrong")
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Type amount of %s to sell, max is:%s", draft.Symbol, draft.Balance))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Use max amount", "on_sell_max_amount "+draftID),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel"),
		),
	)
	b.send(msg)

	b.store.SetPendingAnswer(chatID, models.PendingAnswer{
		Kind:    models.AwaitSellAmount,
		DraftID: draftID,
	})
}

// handleSellMaxAction starts the sale with the draft's full balance,
// skipping the amount question.
func (b *Bot) handleSellMaxAction(chatID int64, draftID string) {
	draft, ok := b.store.GetSellDraft(chatID, draftID)
	if !ok {
		b.logger.Warn("Unknown sell draft", zap.Int64("chat_id", chatID), zap.String("draft_id", draftID))
		b.sendText(chatID, "Something went wrong")
		return
	}
	b.askSellPrice(chatID, draft.TokenAccID, draft.Symbol, draft.Balance)
}
