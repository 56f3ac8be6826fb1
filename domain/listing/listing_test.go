package listing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unit-xyz/goapi/domain"
)

func TestPermitHash(t *testing.T) {
	params := &ListItemParams{
		NftContract:  "0x00000000000000000000000000000000000000aa",
		TokenId:      "7",
		PayToken:     domain.EmptyAddress,
		Price:        big.NewInt(100),
		DeadlineSecs: 3600,
	}

	h1, err := params.PermitHash()
	require.NoError(t, err)
	require.Len(t, h1, 32)

	h2, err := params.PermitHash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	// every signed field participates in the hash
	for _, mutate := range []func(*ListItemParams){
		func(p *ListItemParams) { p.NftContract = "0x00000000000000000000000000000000000000ab" },
		func(p *ListItemParams) { p.TokenId = "8" },
		func(p *ListItemParams) { p.Price = big.NewInt(101) },
		func(p *ListItemParams) { p.DeadlineSecs = 3601 },
		func(p *ListItemParams) { p.PayToken = "0x00000000000000000000000000000000000000bb" },
	} {
		mutated := *params
		mutate(&mutated)
		h, err := mutated.PermitHash()
		require.NoError(t, err)
		require.NotEqual(t, h1, h)
	}
}

func TestPermitHashAuctionBitOnlyForTokenListings(t *testing.T) {
	params := ListItemParams{
		NftContract:  "0x00000000000000000000000000000000000000aa",
		TokenId:      "7",
		PayToken:     "0x00000000000000000000000000000000000000bb",
		Price:        big.NewInt(100),
		DeadlineSecs: 3600,
	}

	plain, err := params.PermitHash()
	require.NoError(t, err)

	params.AuctionMode = true
	auction, err := params.PermitHash()
	require.NoError(t, err)
	require.NotEqual(t, plain, auction)

	// native listings carry no auction flag, so the bit is ignored
	native := ListItemParams{
		NftContract:  params.NftContract,
		TokenId:      params.TokenId,
		PayToken:     domain.EmptyAddress,
		Price:        params.Price,
		DeadlineSecs: params.DeadlineSecs,
	}
	h1, err := native.PermitHash()
	require.NoError(t, err)
	native.AuctionMode = true
	h2, err := native.PermitHash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestPermitHashBadTokenId(t *testing.T) {
	params := &ListItemParams{
		NftContract: "0x00000000000000000000000000000000000000aa",
		TokenId:     "not-a-number",
		Price:       big.NewInt(100),
	}
	_, err := params.PermitHash()
	require.Error(t, err)
}
