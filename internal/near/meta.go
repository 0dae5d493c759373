package near

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// TokenMeta returns a token's ft_metadata, fetching it once and caching it
// for the process lifetime. A failed fetch is not cached, so the next call
// retries.
func (c *Client) TokenMeta(ctx context.Context, tokenAccID string) (models.TokenMeta, error) {
	if meta, ok := c.store.TokenMeta(tokenAccID); ok {
		return meta, nil
	}

	raw, err := c.ContractQuery(ctx, tokenAccID, "ft_metadata", nil)
	if err != nil {
		return models.TokenMeta{}, fmt.Errorf("failed to fetch metadata for %s: %w", tokenAccID, err)
	}

	var meta models.TokenMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return models.TokenMeta{}, fmt.Errorf("malformed metadata for %s: %w", tokenAccID, err)
	}

	c.store.SetTokenMeta(tokenAccID, meta)
	return meta, nil
}

// ToHuman converts a base-unit integer string to a human-readable decimal
// string, rounded to the given number of digits. Amounts routinely exceed
// 2^53, so this is exact decimal arithmetic, never binary floating point.
func (c *Client) ToHuman(ctx context.Context, raw, tokenAccID string, digits int32) (string, error) {
	meta, err := c.TokenMeta(ctx, tokenAccID)
	if err != nil {
		return "", err
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return v.Shift(-meta.Decimals).Round(digits).String(), nil
}

// ToBase converts a human-readable decimal amount to the token's base-unit
// integer string.
func (c *Client) ToBase(ctx context.Context, value, tokenAccID string) (string, error) {
	meta, err := c.TokenMeta(ctx, tokenAccID)
	if err != nil {
		return "", err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return v.Shift(meta.Decimals).String(), nil
}
