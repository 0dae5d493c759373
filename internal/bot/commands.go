package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near"
)

const sellUsage = "/sell [sell_amount] [sell_token_address] for [buy_amount] [buy_token_address]"

var sellArgsRe = regexp.MustCompile(`^([\d.]+) ([a-z0-9._\-]+) for ([\d.]+) ([a-z0-9._\-]+)$`)

// handleStart shows the welcome message and the wallet login link.
func (b *Bot) handleStart(message *tgbotapi.Message) {
	b.sendText(message.Chat.ID, "Welcome")
	b.handleLogin(message)
}

func (b *Bot) handleLogin(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	b.sendMarkdown(chatID, fmt.Sprintf("Please follow the [Login URL](%s)", b.near.LoginURL(chatID)))
}

func (b *Bot) handleBalance(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	session, ok := b.requireSession(chatID)
	if !ok {
		return
	}
	b.viewBalances(ctx, session.AccountID, chatID)
}

// viewBalances renders the wallet's token balances, one row per token with
// a SELL button keyed by a fresh sell draft.
func (b *Bot) viewBalances(ctx context.Context, accountID string, chatID int64) {
	balances, err := b.near.FTBalances(ctx, accountID)
	if err != nil {
		b.logger.Error("Failed to fetch balances", zap.String("account", accountID), zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}
	if len(balances) == 0 {
		b.sendText(chatID, "No token balances")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, balance := range balances {
		draftID := uuid.NewString()
		b.store.SetSellDraft(chatID, draftID, models.SellDraft{
			TokenAccID: balance.TokenAccID,
			Balance:    balance.Balance,
			Symbol:     balance.Symbol,
		})
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(balance.Symbol, "cancel"),
			tgbotapi.NewInlineKeyboardButtonData(balance.Balance, "cancel"),
			tgbotapi.NewInlineKeyboardButtonData("BUY 🔼", "cancel"),
			tgbotapi.NewInlineKeyboardButtonData("SELL 🔽", "sell "+draftID),
		))
	}
	b.sendKeyboard(chatID, "Wallet balances", rows)
}

// handleBuy lists tokens tradable against the quote token.
func (b *Bot) handleBuy(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	pairs, err := b.getPairs(ctx)
	if err != nil {
		b.logger.Error("Failed to fetch pairs", zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, pair := range pairs {
		sellToken, buyToken, ok := strings.Cut(pair, "#")
		if !ok || buyToken != b.cfg.QuoteToken {
			continue
		}
		meta, err := b.near.TokenMeta(ctx, sellToken)
		if err != nil {
			b.logger.Error("Failed to fetch token meta", zap.String("token", sellToken), zap.Error(err))
			b.sendText(chatID, "Something went wrong")
			return
		}
		handle := b.store.RegisterPair(pair)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(meta.Symbol, "orders "+handle),
		))
	}
	if len(rows) == 0 {
		b.sendText(chatID, "No tokens available")
		return
	}
	b.sendKeyboard(chatID, "Available tokens", rows)
}

// handleOrders lists every traded pair, regardless of quote token.
func (b *Bot) handleOrders(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	pairs, err := b.getPairs(ctx)
	if err != nil {
		b.logger.Error("Failed to fetch pairs", zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}
	if len(pairs) == 0 {
		b.sendText(chatID, "No proposals")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, pair := range pairs {
		label, err := b.pairLabel(ctx, pair)
		if err != nil {
			b.logger.Error("Failed to label pair", zap.String("pair", pair), zap.Error(err))
			b.sendText(chatID, "Something went wrong")
			return
		}
		handle := b.store.RegisterPair(pair)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "orders "+handle),
		))
	}
	b.sendKeyboard(chatID, "Proposals:", rows)
}

func (b *Bot) getPairs(ctx context.Context) ([]string, error) {
	raw, err := b.near.ContractQuery(ctx, b.cfg.Contract, "get_pairs", nil)
	if err != nil {
		return nil, err
	}
	var pairs []string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("malformed get_pairs result: %w", err)
	}
	return pairs, nil
}

func (b *Bot) pairLabel(ctx context.Context, pair string) (string, error) {
	sellToken, buyToken, ok := strings.Cut(pair, "#")
	if !ok {
		return pair, nil
	}
	sellMeta, err := b.near.TokenMeta(ctx, sellToken)
	if err != nil {
		return "", err
	}
	buyMeta, err := b.near.TokenMeta(ctx, buyToken)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s / %s", sellMeta.Symbol, buyMeta.Symbol), nil
}

// handleSell handles both the direct order form and the bare usage form.
// Arguments that match neither shape are ignored.
func (b *Bot) handleSell(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	if args == "" {
		b.sendText(chatID, sellUsage)
		return
	}

	m := sellArgsRe.FindStringSubmatch(args)
	if m == nil {
		return
	}
	sellAmount, sellToken, buyAmount, buyToken := m[1], m[2], m[3], m[4]

	session, ok := b.requireSession(chatID)
	if !ok {
		return
	}

	order, err := b.newOrderArgs(ctx, sellAmount, sellToken, buyAmount, buyToken)
	if err != nil {
		b.logger.Error("Failed to build order args", zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}

	b.sendTransaction(ctx, session, sellToken, "ft_transfer_call", order,
		[]models.DepositRequirement{{Contract: sellToken, Account: b.cfg.Contract}},
		near.OneYocto, "")
}

// newOrderArgs converts both amounts to base units and assembles the
// ft_transfer_call arguments carrying a new-order message.
func (b *Bot) newOrderArgs(ctx context.Context, sellAmount, sellToken, buyAmount, buyToken string) (map[string]string, error) {
	sellBase, err := b.near.ToBase(ctx, sellAmount, sellToken)
	if err != nil {
		return nil, err
	}
	buyBase, err := b.near.ToBase(ctx, buyAmount, buyToken)
	if err != nil {
		return nil, err
	}

	msg, err := json.Marshal(map[string]string{
		"sell_token":  sellToken,
		"sell_amount": sellBase,
		"buy_token":   buyToken,
		"buy_amount":  buyBase,
	})
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"receiver_id": b.cfg.Contract,
		"amount":      sellBase,
		"msg":         string(msg),
	}, nil
}

// handleCancel removes an order, registering the maker's storage on the
// sell-token contract first when needed.
func (b *Bot) handleCancel(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	orderID := strings.TrimSpace(message.CommandArguments())
	if orderID == "" || strings.ContainsAny(orderID, " \t") {
		return
	}

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

	b.sendTransaction(ctx, session, b.cfg.Contract, "remove_order",
		map[string]any{
			"sell_token": order.SellToken,
			"buy_token":  order.BuyToken,
			"order_id":   orderIDArg(orderID),
		},
		[]models.DepositRequirement{{Contract: order.SellToken, Account: order.Maker}},
		"0", "")
}
