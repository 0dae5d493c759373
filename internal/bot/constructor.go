package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/config"
	"github.com/uncle-T0ny/nearmarket/internal/near"
	"github.com/uncle-T0ny/nearmarket/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(cfg *config.Config, nearClient *near.Client, store storage.Storage, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return &Bot{
		api:    api,
		near:   nearClient,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}, nil
}
