package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/config"
	"github.com/uncle-T0ny/nearmarket/internal/near"
	"github.com/uncle-T0ny/nearmarket/internal/storage"
)

// Bot interprets chat commands and inline-keyboard callbacks, resolves the
// chat's wallet session and renders query results and wallet URLs back to
// the chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	near   *near.Client
	store  storage.Storage
	cfg    *config.Config
	logger *zap.Logger

	// sendHook captures outgoing messages instead of the Telegram API. For testing
	sendHook func(tgbotapi.Chattable)
}
