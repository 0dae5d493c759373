package near

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// DefaultGas is the gas budget attached to every function call.
const DefaultGas uint64 = 300_000_000_000_000

// OneYocto is the 1 yoctoNEAR deposit FT transfer methods require.
const OneYocto = "1"

// SignURL builds the web-wallet signing URL for a contract call issued by
// the session's wallet. For every deposit requirement whose account is not
// yet registered on its token contract, a storage_deposit transaction is
// prepended, paying that contract's minimum registration deposit.
// Nonces are assigned strictly increasing from 1 in construction order,
// deposit transactions first, the primary call last; the wallet redirects
// to the chat's transaction callback after signing. Any failed sub-query
// aborts the whole build.
func (c *Client) SignURL(
	ctx context.Context,
	session models.Session,
	contract, method string,
	args any,
	deposits []models.DepositRequirement,
	attachedDeposit string,
	gas uint64,
) (string, error) {
	argBytes, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode args for %s.%s: %w", contract, method, err)
	}
	yocto, err := parseYocto(attachedDeposit)
	if err != nil {
		return "", err
	}

	blockHash, err := c.LatestBlockHash(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch block hash: %w", err)
	}

	var txs []Transaction
	nonce := uint64(1)
	for _, req := range deposits {
		needed, err := c.needsDeposit(ctx, req.Contract, req.Account)
		if err != nil {
			return "", err
		}
		if !needed {
			continue
		}
		minDeposit, err := c.storageMinDeposit(ctx, req.Contract)
		if err != nil {
			return "", err
		}
		depositArgs, err := json.Marshal(map[string]any{
			"registration_only": true,
			"account_id":        req.Account,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode storage_deposit args: %w", err)
		}
		txs = append(txs, newTransaction(session, req.Contract, nonce, blockHash, []Action{
			functionCallAction("storage_deposit", depositArgs, gas, minDeposit),
		}))
		nonce++
	}
	txs = append(txs, newTransaction(session, contract, nonce, blockHash, []Action{
		functionCallAction(method, argBytes, gas, yocto),
	}))

	encoded := make([]string, len(txs))
	for i, tx := range txs {
		data, err := tx.Serialize()
		if err != nil {
			return "", err
		}
		encoded[i] = base64.StdEncoding.EncodeToString(data)
	}

	signURL, err := url.Parse(c.walletURL + "/sign")
	if err != nil {
		return "", fmt.Errorf("invalid wallet URL: %w", err)
	}
	q := signURL.Query()
	q.Set("transactions", strings.Join(encoded, ","))
	q.Set("callbackUrl", fmt.Sprintf("%s/%d/transaction", c.serverURL, session.ChatID))
	signURL.RawQuery = q.Encode()

	return signURL.String(), nil
}

// LoginURL builds the web-wallet login URL whose success and failure
// redirects both route back to the originating chat.
func (c *Client) LoginURL(chatID int64) string {
	loginURL, err := url.Parse(c.walletURL + "/login")
	if err != nil {
		return c.walletURL + "/login"
	}
	q := loginURL.Query()
	q.Set("success_url", fmt.Sprintf("%s/%d/login", c.serverURL, chatID))
	q.Set("failure_url", fmt.Sprintf("%s/%d/fail", c.serverURL, chatID))
	loginURL.RawQuery = q.Encode()
	return loginURL.String()
}

// needsDeposit reports whether the account still has to register storage
// on the token contract. Registration state can change between calls, so
// this is never cached.
func (c *Client) needsDeposit(ctx context.Context, contract, account string) (bool, error) {
	raw, err := c.ContractQuery(ctx, contract, "storage_balance_of", map[string]string{
		"account_id": account,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check storage balance of %s on %s: %w", account, contract, err)
	}
	return string(raw) == "null", nil
}

// storageMinDeposit fetches the contract's minimum storage registration
// deposit in yoctoNEAR.
func (c *Client) storageMinDeposit(ctx context.Context, contract string) (*big.Int, error) {
	raw, err := c.ContractQuery(ctx, contract, "storage_balance_bounds", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storage bounds of %s: %w", contract, err)
	}
	var bounds struct {
		Min string `json:"min"`
	}
	if err := json.Unmarshal(raw, &bounds); err != nil {
		return nil, fmt.Errorf("malformed storage bounds from %s: %w", contract, err)
	}
	return parseYocto(bounds.Min)
}
