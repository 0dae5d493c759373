package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near"
)

// dispatchAnswer interprets a consumed pending answer against the free-text
// message that resolved it. The answer has already been removed from the
// store, so it cannot fire twice.
func (b *Bot) dispatchAnswer(ctx context.Context, chatID int64, answer models.PendingAnswer, text string) {
	switch answer.Kind {
	case models.AwaitSellAmount:
		b.onSellAmount(chatID, answer.DraftID, strings.TrimSpace(text))
	case models.AwaitSellPrice:
		b.onSellPrice(ctx, chatID, answer, strings.TrimSpace(text))
	default:
		b.logger.Warn("Unknown pending answer kind", zap.String("kind", answer.Kind))
	}
}

// onSellAmount resolves the typed sell amount against its draft and moves
// the flow on to the price question.
func (b *Bot) onSellAmount(chatID int64, draftID, amount string) {
	draft, ok := b.store.GetSellDraft(chatID, draftID)
	if !ok {
		b.logger.Warn("Sell draft disappeared", zap.Int64("chat_id", chatID), zap.String("draft_id", draftID))
		b.sendText(chatID, "Something went wrong")
		return
	}
	if _, err := decimal.NewFromString(amount); err != nil {
		b.sendText(chatID, fmt.Sprintf("Invalid amount %q", amount))
		return
	}
	b.askSellPrice(chatID, draft.TokenAccID, draft.Symbol, amount)
}

// askSellPrice asks for the unit price in the quote token and installs the
// continuation that builds the sell transaction.
func (b *Bot) askSellPrice(chatID int64, tokenAccID, symbol, amount string) {
	b.sendText(chatID, "Type price in USDT")
	b.store.SetPendingAnswer(chatID, models.PendingAnswer{
		Kind:       models.AwaitSellPrice,
		TokenAccID: tokenAccID,
		Symbol:     symbol,
		Amount:     amount,
	})
}

// onSellPrice computes the buy amount from the typed unit price, converts
// both sides to base units and offers the sell transaction.
func (b *Bot) onSellPrice(ctx context.Context, chatID int64, answer models.PendingAnswer, price string) {
	sellAmount, err := decimal.NewFromString(answer.Amount)
	if err != nil {
		b.logger.Error("Invalid stored sell amount", zap.String("amount", answer.Amount), zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}
	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("Invalid price %q", price))
		return
	}

	session, ok := b.requireSession(chatID)
	if !ok {
		return
	}

	buyAmount := sellAmount.Mul(unitPrice).String()
	order, err := b.newOrderArgs(ctx, answer.Amount, answer.TokenAccID, buyAmount, b.cfg.QuoteToken)
	if err != nil {
		b.logger.Error("Failed to build order args", zap.Error(err))
		b.sendText(chatID, "Something went wrong")
		return
	}

	note := fmt.Sprintf(
		"You are selling *%s* %s for *%s* USDT per *1* token\n\nyou will receive *%s* USDT",
		answer.Amount, answer.Symbol, price, buyAmount,
	)
	b.sendTransaction(ctx, session, answer.TokenAccID, "ft_transfer_call", order,
		[]models.DepositRequirement{{Contract: answer.TokenAccID, Account: b.cfg.Contract}},
		near.OneYocto, note)
}
