package near

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near/neartest"
)

const contractAddr = "market.near"

func testSession(t *testing.T) models.Session {
	t.Helper()
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(0xA0 + i)
	}
	key, err := models.PublicKeyFromString("ed25519:" + base58.Encode(raw[:]))
	require.NoError(t, err)
	return models.Session{ChatID: 42, AccountID: "alice.near", PublicKey: key}
}

func decodeSignURL(t *testing.T, signURL string) ([]Transaction, url.Values) {
	t.Helper()
	u, err := url.Parse(signURL)
	require.NoError(t, err)
	q := u.Query()

	var txs []Transaction
	for _, enc := range strings.Split(q.Get("transactions"), ",") {
		data, err := base64.StdEncoding.DecodeString(enc)
		require.NoError(t, err)
		var tx Transaction
		require.NoError(t, borsh.Deserialize(&tx, data))
		txs = append(txs, tx)
	}
	return txs, q
}

func TestSignURL_MatchScenarioBuildsDepositsThenPrimary(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)
	session := testSession(t)

	minDeposit := "1250000000000000000000"
	for _, token := range []string{"a.tok", "b.tok"} {
		rpc.ConstView(token, "storage_balance_of", nil)
		rpc.ConstView(token, "storage_balance_bounds", map[string]string{"min": minDeposit})
	}

	deposits := []models.DepositRequirement{
		{Contract: "b.tok", Account: contractAddr},
		{Contract: "a.tok", Account: "alice.near"},
		{Contract: "b.tok", Account: "bob.near"},
	}

	signURL, err := client.SignURL(
		context.Background(), session,
		"b.tok", "ft_transfer_call",
		map[string]any{"receiver_id": contractAddr, "amount": "100", "msg": `{"order_id":"1"}`},
		deposits, OneYocto, DefaultGas,
	)
	require.NoError(t, err)

	txs, q := decodeSignURL(t, signURL)
	require.Len(t, txs, 4, "one storage deposit per unregistered account plus the primary call")

	for i, tx := range txs {
		assert.Equal(t, uint64(i+1), tx.Nonce, "nonces are strictly increasing from 1")
		assert.Equal(t, "alice.near", tx.SignerID)
		assert.Equal(t, session.PublicKey, tx.PublicKey)
		assert.Equal(t, rpc.BlockHash, tx.BlockHash, "every transaction anchors on the same final block")
		require.Len(t, tx.Actions, 1)
	}

	// Deposit transactions first, in the order their requirements were
	// supplied; the primary call last.
	assert.Equal(t, []string{"b.tok", "a.tok", "b.tok", "b.tok"}, []string{
		txs[0].ReceiverID, txs[1].ReceiverID, txs[2].ReceiverID, txs[3].ReceiverID,
	})

	wantMin, _ := new(big.Int).SetString(minDeposit, 10)
	for _, tx := range txs[:3] {
		call := tx.Actions[0].FunctionCall
		assert.Equal(t, "storage_deposit", call.MethodName)
		assert.Zero(t, wantMin.Cmp(&call.Deposit), "deposit tx pays the contract minimum")
	}

	primary := txs[3].Actions[0].FunctionCall
	assert.Equal(t, "ft_transfer_call", primary.MethodName)
	assert.Equal(t, DefaultGas, primary.Gas)
	assert.Zero(t, big.NewInt(1).Cmp(&primary.Deposit))
	assert.Contains(t, string(primary.Args), `"amount":"100"`)

	assert.Equal(t, "https://bot.example.com/42/transaction", q.Get("callbackUrl"))
}

func TestSignURL_SkipsAlreadyRegisteredAccounts(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)
	session := testSession(t)

	rpc.View("a.tok", "storage_balance_of", func(args map[string]any) (any, error) {
		if args["account_id"] == "bob.near" {
			return nil, nil // unregistered
		}
		return map[string]string{"total": "1", "available": "0"}, nil
	})
	rpc.ConstView("a.tok", "storage_balance_bounds", map[string]string{"min": "100"})

	deposits := []models.DepositRequirement{
		{Contract: "a.tok", Account: "alice.near"},
		{Contract: "a.tok", Account: "bob.near"},
	}

	signURL, err := client.SignURL(
		context.Background(), session,
		contractAddr, "remove_order", map[string]string{"order_id": "1"},
		deposits, "0", DefaultGas,
	)
	require.NoError(t, err)

	txs, _ := decodeSignURL(t, signURL)
	require.Len(t, txs, 2)
	assert.Equal(t, "storage_deposit", txs[0].Actions[0].FunctionCall.MethodName)
	assert.Contains(t, string(txs[0].Actions[0].FunctionCall.Args), "bob.near")
	assert.Equal(t, uint64(1), txs[0].Nonce)
	assert.Equal(t, uint64(2), txs[1].Nonce)
	assert.Equal(t, contractAddr, txs[1].ReceiverID)
}

func TestSignURL_NoDepositRequirements(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)

	signURL, err := client.SignURL(
		context.Background(), testSession(t),
		contractAddr, "remove_order", map[string]string{"order_id": "1"},
		nil, "0", DefaultGas,
	)
	require.NoError(t, err)

	txs, _ := decodeSignURL(t, signURL)
	require.Len(t, txs, 1)
	assert.Equal(t, uint64(1), txs[0].Nonce)
}

func TestSignURL_FailedDepositCheckAbortsWholeBuild(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)

	rpc.View("a.tok", "storage_balance_of", func(map[string]any) (any, error) {
		return nil, fmt.Errorf("node unavailable")
	})

	_, err := client.SignURL(
		context.Background(), testSession(t),
		contractAddr, "remove_order", map[string]string{"order_id": "1"},
		[]models.DepositRequirement{{Contract: "a.tok", Account: "alice.near"}},
		"0", DefaultGas,
	)
	require.Error(t, err, "no partial URL on a failed deposit check")
}

func TestLoginURL_RoutesBothOutcomesBackToChat(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)

	u, err := url.Parse(client.LoginURL(77))
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, "https://bot.example.com/77/login", u.Query().Get("success_url"))
	assert.Equal(t, "https://bot.example.com/77/fail", u.Query().Get("failure_url"))
}
