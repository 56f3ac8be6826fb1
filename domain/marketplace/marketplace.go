package marketplace

import (
	"math/big"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
)

// UseCase is the settlement surface: the two direct-buy paths and offer
// acceptance. All three destroy the listing on success and credit the
// 99/1 earnings/fee split to the ledger.
type UseCase interface {
	BuyItem(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, paidAmount *big.Int) error
	BuyItemWithToken(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, amount *big.Int) error
	AcceptOffer(ctx ctx.Ctx, caller domain.Address, offeror domain.Address, nft domain.Address, tokenId domain.TokenId) error
}

// SplitProceeds applies the marketplace cut: the seller is credited
// amount*(denom-fee)/denom and the platform amount*fee/denom, both
// floored. With the default 1/100 cut a sale of 101 units credits 99
// to the seller and 1 to fees; the remaining dust stays unallocated.
func SplitProceeds(amount *big.Int, feeNumerator, feeDenominator int64) (earnings, fee *big.Int) {
	num := big.NewInt(feeNumerator)
	denom := big.NewInt(feeDenominator)
	earningsNum := new(big.Int).Sub(denom, num)
	earnings = new(big.Int).Mul(amount, earningsNum)
	earnings.Div(earnings, denom)
	fee = new(big.Int).Mul(amount, num)
	fee.Div(fee, denom)
	return earnings, fee
}
