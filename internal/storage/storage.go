package storage

import (
	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// Storage defines the interface for the bot's volatile state.
// All state lives for the process lifetime only; there is no persistence
// and no eviction. Every operation is a single atomic get/set/take so the
// Telegram polling loop and the wallet-callback HTTP listener can share
// the store without read-modify-write races.
type Storage interface {
	// Session operations. A chat has at most one session; a later login
	// overwrites an earlier one. Lookups fail closed: callers must treat
	// a missing session as unauthenticated.
	SetSession(chatID int64, session models.Session)
	GetSession(chatID int64) (models.Session, bool)

	// PendingAnswer operations. TakePendingAnswer removes the answer as it
	// reads it, so a continuation fires exactly once.
	SetPendingAnswer(chatID int64, answer models.PendingAnswer)
	TakePendingAnswer(chatID int64) (models.PendingAnswer, bool)

	// SellDraft operations, keyed by (chat, draft id). Drafts accumulate
	// for the process lifetime; they are never garbage-collected.
	SetSellDraft(chatID int64, draftID string, draft models.SellDraft)
	GetSellDraft(chatID int64, draftID string) (models.SellDraft, bool)

	// Pair-handle operations. RegisterPair derives a short deterministic
	// handle for a "sellToken#buyToken" string so it fits in a callback
	// payload; registering the same pair again yields the same handle.
	RegisterPair(pair string) string
	ResolvePair(handle string) (string, bool)

	// Token metadata cache. Entries are immutable once set and are never
	// invalidated. Failed lookups must not be cached.
	TokenMeta(tokenAccID string) (models.TokenMeta, bool)
	SetTokenMeta(tokenAccID string, meta models.TokenMeta)
}
