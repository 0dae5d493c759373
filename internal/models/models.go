package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// PublicKey is an ed25519 access key in NEAR wire form.
type PublicKey struct {
	KeyType uint8
	Data    [32]byte
}

// PublicKeyFromString parses a key in the wallet's "ed25519:<base58>" form.
func PublicKeyFromString(s string) (PublicKey, error) {
	curve, data, ok := strings.Cut(s, ":")
	if !ok {
		return PublicKey{}, fmt.Errorf("invalid public key %q: missing curve prefix", s)
	}
	if curve != "ed25519" {
		return PublicKey{}, fmt.Errorf("unsupported key type %q", curve)
	}
	raw, err := base58.Decode(data)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key %q: %w", s, err)
	}
	if len(raw) != 32 {
		return PublicKey{}, fmt.Errorf("invalid public key %q: got %d bytes, want 32", s, len(raw))
	}
	key := PublicKey{KeyType: 0}
	copy(key.Data[:], raw)
	return key, nil
}

// String renders the key back in "ed25519:<base58>" form.
func (k PublicKey) String() string {
	return "ed25519:" + base58.Encode(k.Data[:])
}

// Session binds a chat to the wallet identity that logged in from it.
// A later login from the same chat replaces the earlier session.
type Session struct {
	ChatID    int64
	AccountID string
	PublicKey PublicKey
}

// TokenMeta is a fungible token's ft_metadata, cached after first fetch.
type TokenMeta struct {
	Decimals int32  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// TokenBalance is one row of a wallet balance view, in human units.
type TokenBalance struct {
	Symbol     string
	Balance    string
	TokenAccID string
}

// SellDraft is the ephemeral state behind a SELL button on a balance row.
type SellDraft struct {
	TokenAccID string
	Balance    string
	Symbol     string
}

// Order is a standing offer on the exchange contract.
// Amounts are base-unit integers encoded as decimal strings.
type Order struct {
	Maker      string `json:"maker"`
	SellToken  string `json:"sell_token"`
	SellAmount string `json:"sell_amount"`
	BuyToken   string `json:"buy_token"`
	BuyAmount  string `json:"buy_amount"`
}

// OrderView is the get_orders row shape: an order plus its id.
type OrderView struct {
	Order   Order           `json:"order"`
	OrderID json.RawMessage `json:"order_id"`
}

// DepositRequirement names an account that may need storage registration
// on a token contract before it can receive a transfer.
type DepositRequirement struct {
	Contract string
	Account  string
}

// Pending-answer kinds: what the next free-text message from a chat means.
const (
	AwaitSellAmount = "sell_amount"
	AwaitSellPrice  = "sell_price"
)

// PendingAnswer is a one-shot continuation for the next free-text message
// from a chat. At most one is installed per chat; taking it removes it.
type PendingAnswer struct {
	Kind string

	// AwaitSellAmount
	DraftID string

	// AwaitSellPrice
	TokenAccID string
	Symbol     string
	Amount     string
}
