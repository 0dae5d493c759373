package near

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/near/neartest"
	"github.com/uncle-T0ny/nearmarket/internal/storage"
)

// newTestClient wires a client against a fake RPC backend and a fresh
// in-memory store.
func newTestClient(rpc *neartest.Server) (*Client, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	client := NewClientWithEndpoints(Endpoints{
		RPC:    rpc.URL(),
		Wallet: "https://wallet.testnet.near.org",
		Server: "https://bot.example.com",
	}, store, zap.NewNop())
	return client, store
}

func TestContractQuery_ReturnsDecodedJSON(t *testing.T) {
	rpc := neartest.NewServer(t)
	rpc.ConstView("market.near", "get_pairs", []string{"a.tok#usdt.near"})
	client, _ := newTestClient(rpc)

	raw, err := client.ContractQuery(context.Background(), "market.near", "get_pairs", nil)
	require.NoError(t, err)

	var pairs []string
	require.NoError(t, json.Unmarshal(raw, &pairs))
	require.Equal(t, []string{"a.tok#usdt.near"}, pairs)
}

func TestContractQuery_PropagatesRPCFailure(t *testing.T) {
	rpc := neartest.NewServer(t)
	rpc.View("market.near", "get_pairs", func(map[string]any) (any, error) {
		return nil, fmt.Errorf("boom")
	})
	client, _ := newTestClient(rpc)

	_, err := client.ContractQuery(context.Background(), "market.near", "get_pairs", nil)
	require.Error(t, err)
}

func TestLatestBlockHash(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)

	hash, err := client.LatestBlockHash(context.Background())
	require.NoError(t, err)
	require.Equal(t, rpc.BlockHash, hash)
}
