package bot

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// CallbackServer receives the web wallet's browser redirects and routes
// them back to the originating chat. Every response is a 302 to the bot's
// deep link; the browser never renders a body.
type CallbackServer struct {
	bot *Bot
}

// NewCallbackServer creates the wallet-callback HTTP handler.
func NewCallbackServer(bot *Bot) *CallbackServer {
	return &CallbackServer{bot: bot}
}

// RegisterRoutes registers the wallet redirect routes on the provided mux.
func (s *CallbackServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleWalletRedirect)
}

// handleWalletRedirect handles GET /<chatId>/<outcome> wallet redirects.
func (s *CallbackServer) handleWalletRedirect(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch parts[1] {
	case "login":
		s.handleLoginRedirect(r, chatID)
	case "transaction":
		s.handleTransactionRedirect(r, chatID)
	default:
		s.bot.sendText(chatID, "Something went wrong")
	}

	http.Redirect(w, r, s.bot.cfg.DeepLink(), http.StatusFound)
}

// handleLoginRedirect binds the chat to the wallet identity the user just
// authorized, greets them and proactively shows their balances.
func (s *CallbackServer) handleLoginRedirect(r *http.Request, chatID int64) {
	query := r.URL.Query()
	accountID := query.Get("account_id")
	allKeys := query.Get("all_keys")
	firstKey, _, _ := strings.Cut(allKeys, ",")

	key, err := models.PublicKeyFromString(firstKey)
	if accountID == "" || err != nil {
		s.bot.logger.Warn("Malformed login redirect",
			zap.Int64("chat_id", chatID),
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		s.bot.sendText(chatID, "Something went wrong")
		return
	}

	s.bot.store.SetSession(chatID, models.Session{
		ChatID:    chatID,
		AccountID: accountID,
		PublicKey: key,
	})
	s.bot.logger.Info("Wallet logged in",
		zap.Int64("chat_id", chatID),
		zap.String("account_id", accountID),
	)

	s.bot.sendMarkdown(chatID, fmt.Sprintf("Hello [%s](%s/accounts/%s)", accountID, s.bot.cfg.ExplorerURL, accountID))
	s.bot.viewBalances(r.Context(), accountID, chatID)
}

// handleTransactionRedirect confirms every broadcast transaction hash to
// the chat.
func (s *CallbackServer) handleTransactionRedirect(r *http.Request, chatID int64) {
	hashes := r.URL.Query().Get("transactionHashes")
	if hashes == "" {
		s.bot.sendText(chatID, "Something went wrong")
		return
	}
	for _, hash := range strings.Split(hashes, ",") {
		s.bot.sendMarkdown(chatID, fmt.Sprintf("Success [%s](%s/transactions/%s)", hash, s.bot.cfg.ExplorerURL, hash))
	}
}
