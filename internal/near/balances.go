package near

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// FTBalances enumerates the account's fungible-token balances in human
// units. A token whose balance query fails is dropped from the result so
// the user still sees the rest; rounded-to-zero balances are dropped too.
func (c *Client) FTBalances(ctx context.Context, accountID string) ([]models.TokenBalance, error) {
	tokens, err := c.LikelyTokens(ctx, accountID)
	if err != nil {
		return nil, err
	}

	res := make([]models.TokenBalance, 0, len(tokens))
	for _, token := range tokens {
		balance, err := c.ftBalance(ctx, accountID, token)
		if err != nil {
			c.logger.Debug("skipping token balance",
				zap.String("token", token),
				zap.String("account", accountID),
				zap.Error(err),
			)
			continue
		}
		if balance.Balance == "0" {
			continue
		}
		res = append(res, balance)
	}

	return res, nil
}

func (c *Client) ftBalance(ctx context.Context, accountID, token string) (models.TokenBalance, error) {
	raw, err := c.ContractQuery(ctx, token, "ft_balance_of", map[string]string{
		"account_id": accountID,
	})
	if err != nil {
		return models.TokenBalance{}, err
	}

	var balanceRaw string
	if err := json.Unmarshal(raw, &balanceRaw); err != nil {
		return models.TokenBalance{}, fmt.Errorf("malformed ft_balance_of result from %s: %w", token, err)
	}

	balance, err := c.ToHuman(ctx, balanceRaw, token, 2)
	if err != nil {
		return models.TokenBalance{}, err
	}
	meta, err := c.TokenMeta(ctx, token)
	if err != nil {
		return models.TokenBalance{}, err
	}

	return models.TokenBalance{
		Symbol:     meta.Symbol,
		Balance:    balance,
		TokenAccID: token,
	}, nil
}
