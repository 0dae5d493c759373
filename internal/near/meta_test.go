package near

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncle-T0ny/nearmarket/internal/models"
	"github.com/uncle-T0ny/nearmarket/internal/near/neartest"
)

func TestTokenMeta_FetchedOnceThenCached(t *testing.T) {
	rpc := neartest.NewServer(t)
	rpc.ConstView("wrap.near", "ft_metadata", models.TokenMeta{Decimals: 24, Symbol: "wNEAR", Name: "Wrapped NEAR"})
	client, _ := newTestClient(rpc)
	ctx := context.Background()

	meta, err := client.TokenMeta(ctx, "wrap.near")
	require.NoError(t, err)
	assert.Equal(t, int32(24), meta.Decimals)
	assert.Equal(t, "wNEAR", meta.Symbol)

	_, err = client.TokenMeta(ctx, "wrap.near")
	require.NoError(t, err)
	assert.Equal(t, 1, rpc.Queries["wrap.near/ft_metadata"], "second lookup must hit the cache")
}

func TestTokenMeta_FailureIsNotCached(t *testing.T) {
	rpc := neartest.NewServer(t)
	client, _ := newTestClient(rpc)
	ctx := context.Background()

	broken := true
	rpc.View("wrap.near", "ft_metadata", func(map[string]any) (any, error) {
		if broken {
			return nil, fmt.Errorf("node unavailable")
		}
		return models.TokenMeta{Decimals: 24, Symbol: "wNEAR"}, nil
	})

	_, err := client.TokenMeta(ctx, "wrap.near")
	require.Error(t, err)

	broken = false
	meta, err := client.TokenMeta(ctx, "wrap.near")
	require.NoError(t, err, "a failed lookup must not poison the cache")
	assert.Equal(t, "wNEAR", meta.Symbol)
}

func TestPrecision_RoundTripIsExact(t *testing.T) {
	rpc := neartest.NewServer(t)
	rpc.ConstView("a.tok", "ft_metadata", models.TokenMeta{Decimals: 18, Symbol: "A"})
	client, _ := newTestClient(rpc)
	ctx := context.Background()

	// Amounts above 2^53; float64 would mangle them.
	raw := "7000000000000000000000000"

	human, err := client.ToHuman(ctx, raw, "a.tok", 6)
	require.NoError(t, err)
	assert.Equal(t, "7000000", human)

	back, err := client.ToBase(ctx, human, "a.tok")
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

func TestToHuman_Rounds(t *testing.T) {
	rpc := neartest.NewServer(t)
	rpc.ConstView("a.tok", "ft_metadata", models.TokenMeta{Decimals: 18, Symbol: "A"})
	client, _ := newTestClient(rpc)
	ctx := context.Background()

	human, err := client.ToHuman(ctx, "1234567890123456789", "a.tok", 6)
	require.NoError(t, err)
	assert.Equal(t, "1.234568", human)

	// Dust rounds down to a plain zero.
	human, err = client.ToHuman(ctx, "1000", "a.tok", 2)
	require.NoError(t, err)
	assert.Equal(t, "0", human)
}

func TestToBase_FractionalInput(t *testing.T) {
	rpc := neartest.NewServer(t)
	rpc.ConstView("u.tok", "ft_metadata", models.TokenMeta{Decimals: 6, Symbol: "USDT"})
	client, _ := newTestClient(rpc)

	base, err := client.ToBase(context.Background(), "12.5", "u.tok")
	require.NoError(t, err)
	assert.Equal(t, "12500000", base)
}
