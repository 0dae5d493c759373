package near

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near/neartest"
)

func TestFTBalances_DropsOnlyTheFailingToken(t *testing.T) {
	rpc := neartest.NewServer(t)
	helper := neartest.NewHelperServer(t, map[string][]string{
		"alice.near": {"a.tok", "b.tok", "c.tok"},
	})

	rpc.ConstView("a.tok", "ft_metadata", models.TokenMeta{Decimals: 6, Symbol: "A"})
	rpc.ConstView("c.tok", "ft_metadata", models.TokenMeta{Decimals: 6, Symbol: "C"})
	rpc.ConstView("a.tok", "ft_balance_of", "5000000")
	rpc.View("b.tok", "ft_balance_of", func(map[string]any) (any, error) {
		return nil, fmt.Errorf("contract panicked")
	})
	rpc.ConstView("c.tok", "ft_balance_of", "7000000")

	client, _ := newTestClient(rpc)
	client.helperURL = helper.URL

	balances, err := client.FTBalances(context.Background(), "alice.near")
	require.NoError(t, err)

	require.Len(t, balances, 2, "the failing token is dropped, the rest survive")
	assert.Equal(t, "A", balances[0].Symbol)
	assert.Equal(t, "5", balances[0].Balance)
	assert.Equal(t, "a.tok", balances[0].TokenAccID)
	assert.Equal(t, "C", balances[1].Symbol)
	assert.Equal(t, "7", balances[1].Balance)
}

func TestFTBalances_OmitsZeroBalances(t *testing.T) {
	rpc := neartest.NewServer(t)
	helper := neartest.NewHelperServer(t, map[string][]string{
		"alice.near": {"a.tok", "dust.tok"},
	})

	rpc.ConstView("a.tok", "ft_metadata", models.TokenMeta{Decimals: 6, Symbol: "A"})
	rpc.ConstView("dust.tok", "ft_metadata", models.TokenMeta{Decimals: 18, Symbol: "DUST"})
	rpc.ConstView("a.tok", "ft_balance_of", "1500000")
	// Rounds to zero at two digits.
	rpc.ConstView("dust.tok", "ft_balance_of", "1000")

	client, _ := newTestClient(rpc)
	client.helperURL = helper.URL

	balances, err := client.FTBalances(context.Background(), "alice.near")
	require.NoError(t, err)

	require.Len(t, balances, 1)
	assert.Equal(t, "1.5", balances[0].Balance)
}

func TestFTBalances_HelperFailureIsFatal(t *testing.T) {
	rpc := neartest.NewServer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(rpc)
	client.helperURL = srv.URL

	_, err := client.FTBalances(context.Background(), "alice.near")
	require.Error(t, err)
}
