package usecase

import (
	"fmt"
	"math/big"
	"time"

	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/ledger"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	"github.com/unit-xyz/goapi/domain/offer"
	"github.com/unit-xyz/goapi/service/payout"
)

const (
	// platform cut is 1/100, the seller keeps 99/100
	DefaultFeeNumerator   = 1
	DefaultFeeDenominator = 100
)

type MarketplaceUseCaseCfg struct {
	ListingRepo    listing.Repo
	OfferRepo      offer.Repo
	LedgerRepo     ledger.Repo
	Payout         payout.Service
	Emitter        marketplace.Emitter
	KeyLock        *keylock.KeyLock
	FeeNumerator   int64
	FeeDenominator int64
	Now            func() time.Time
}

type impl struct {
	listingRepo    listing.Repo
	offerRepo      offer.Repo
	ledgerRepo     ledger.Repo
	payout         payout.Service
	emitter        marketplace.Emitter
	keyLock        *keylock.KeyLock
	feeNumerator   int64
	feeDenominator int64
	now            func() time.Time
}

func New(cfg *MarketplaceUseCaseCfg) marketplace.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	feeNum := cfg.FeeNumerator
	feeDenom := cfg.FeeDenominator
	if feeDenom == 0 {
		feeNum = DefaultFeeNumerator
		feeDenom = DefaultFeeDenominator
	}
	return &impl{
		listingRepo:    cfg.ListingRepo,
		offerRepo:      cfg.OfferRepo,
		ledgerRepo:     cfg.LedgerRepo,
		payout:         cfg.Payout,
		emitter:        cfg.Emitter,
		keyLock:        cfg.KeyLock,
		feeNumerator:   feeNum,
		feeDenominator: feeDenom,
		now:            now,
	}
}

func itemKey(nft domain.Address, tokenId domain.TokenId) string {
	return fmt.Sprintf("item:%s:%s", nft.ToLowerStr(), tokenId)
}

func (im *impl) BuyItem(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, paidAmount *big.Int) error {
	key := itemKey(nft, tokenId)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	listingId := listing.Id{NftContract: nft, TokenId: tokenId}
	l, err := im.findListing(ctx, listingId)
	if err != nil {
		return err
	}
	if l.AuctionMode {
		return domain.ErrItemInAuction
	}
	if !l.IsNative() {
		return domain.ErrItemPriceInToken
	}
	if paidAmount == nil || paidAmount.Cmp(l.Price) != 0 {
		return domain.ErrInvalidAmount
	}
	now := im.now()
	if l.IsExpired(now) {
		return domain.ErrListingExpired
	}
	if l.Seller.Equals(caller) {
		return domain.ErrCannotBuyOwnNFT
	}

	tid, err := tokenId.ToBigInt()
	if err != nil {
		return domain.ErrBadParamInput
	}
	if err := im.payout.TransferErc721(ctx, nft, l.Seller, caller, tid); err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"nftContract": nft,
			"tokenId":     tokenId,
		}).Error("payout.TransferErc721 failed")
		return domain.ErrTokenTransferFailed
	}

	if err := im.settle(ctx, l, listingId, nil); err != nil {
		return err
	}
	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemBought,
		NftContract: l.NftContract,
		TokenId:     l.TokenId,
		Account:     caller.ToLower(),
		To:          l.Seller,
		PayToken:    l.PayToken,
		Amount:      l.Price.String(),
		Time:        now,
	})
	return nil
}

func (im *impl) BuyItemWithToken(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, amount *big.Int) error {
	key := itemKey(nft, tokenId)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	listingId := listing.Id{NftContract: nft, TokenId: tokenId}
	l, err := im.findListing(ctx, listingId)
	if err != nil {
		return err
	}
	if l.AuctionMode {
		return domain.ErrItemInAuction
	}
	if l.IsNative() {
		return domain.ErrItemPriceInEth
	}
	if !payToken.Equals(l.PayToken) {
		return domain.ErrInvalidItemToken
	}
	if amount == nil || amount.Cmp(l.Price) != 0 {
		return domain.ErrInvalidAmount
	}
	now := im.now()
	if l.IsExpired(now) {
		return domain.ErrListingExpired
	}
	if l.Seller.Equals(caller) {
		return domain.ErrCannotBuyOwnNFT
	}

	tid, err := tokenId.ToBigInt()
	if err != nil {
		return domain.ErrBadParamInput
	}
	if err := im.payout.PullErc20(ctx, l.PayToken, caller, amount); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"payToken": l.PayToken,
			"buyer":    caller,
		}).Error("payout.PullErc20 failed")
		return domain.ErrTokenTransferFailed
	}
	if err := im.payout.TransferErc721(ctx, nft, l.Seller, caller, tid); err != nil {
		ctx.WithField("err", err).Error("payout.TransferErc721 failed")
		// undo the pull so the aborted purchase leaves nothing behind
		if refundErr := im.payout.TransferErc20(ctx, l.PayToken, caller, amount); refundErr != nil {
			ctx.WithField("err", refundErr).Error("payout.TransferErc20 refund failed")
		}
		return domain.ErrTokenTransferFailed
	}

	if err := im.settle(ctx, l, listingId, nil); err != nil {
		return err
	}
	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemBought,
		NftContract: l.NftContract,
		TokenId:     l.TokenId,
		Account:     caller.ToLower(),
		To:          l.Seller,
		PayToken:    l.PayToken,
		Amount:      l.Price.String(),
		Time:        now,
	})
	return nil
}

func (im *impl) AcceptOffer(ctx bCtx.Ctx, caller domain.Address, offeror domain.Address, nft domain.Address, tokenId domain.TokenId) error {
	key := itemKey(nft, tokenId)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	listingId := listing.Id{NftContract: nft, TokenId: tokenId}
	l, err := im.findListing(ctx, listingId)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	offerId := offer.Id{Offeror: offeror, NftContract: nft, TokenId: tokenId}
	o, err := im.offerRepo.FindOne(ctx, offerId)
	if err == domain.ErrNotFound {
		return domain.ErrOfferDoesNotExist
	} else if err != nil {
		ctx.WithField("err", err).Error("offerRepo.FindOne failed")
		return err
	}
	now := im.now()
	if o.IsExpired(now) {
		return domain.ErrOfferExpired
	}

	tid, err := tokenId.ToBigInt()
	if err != nil {
		return domain.ErrBadParamInput
	}
	if err := im.payout.PullErc20(ctx, o.PayToken, o.Offeror, o.Amount); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"payToken": o.PayToken,
			"offeror":  o.Offeror,
		}).Error("payout.PullErc20 failed")
		return domain.ErrTokenTransferFailed
	}
	if err := im.payout.TransferErc721(ctx, nft, l.Seller, o.Offeror, tid); err != nil {
		ctx.WithField("err", err).Error("payout.TransferErc721 failed")
		if refundErr := im.payout.TransferErc20(ctx, o.PayToken, o.Offeror, o.Amount); refundErr != nil {
			ctx.WithField("err", refundErr).Error("payout.TransferErc20 refund failed")
		}
		return domain.ErrTokenTransferFailed
	}

	// proceeds are denominated in the offer's token, not the listing's
	sale := &listing.Listing{
		NftContract: l.NftContract,
		TokenId:     l.TokenId,
		Seller:      l.Seller,
		PayToken:    o.PayToken,
		Price:       o.Amount,
	}
	// the accepted offer is consumed; other pending offers on the item
	// are left in place, individually removable by their owners
	if err := im.settle(ctx, sale, listingId, &offerId); err != nil {
		return err
	}
	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventOfferAccepted,
		NftContract: l.NftContract,
		TokenId:     l.TokenId,
		Account:     l.Seller,
		To:          o.Offeror,
		PayToken:    o.PayToken,
		Amount:      o.Amount.String(),
		Time:        now,
	})
	return nil
}

// settle credits the split to the ledger and destroys the listing (and
// the consumed offer, when settling an acceptance). Runs only after the
// external transfers succeeded; the remaining mutations are in-process
// and cannot partially fail.
func (im *impl) settle(ctx bCtx.Ctx, sale *listing.Listing, listingId listing.Id, consumed *offer.Id) error {
	earnings, fee := marketplace.SplitProceeds(sale.Price, im.feeNumerator, im.feeDenominator)
	if err := im.ledgerRepo.AddEarnings(ctx, ledger.EarningsId{Beneficiary: sale.Seller, PayToken: sale.PayToken}, earnings); err != nil {
		ctx.WithField("err", err).Error("ledgerRepo.AddEarnings failed")
		return err
	}
	if err := im.ledgerRepo.AddFees(ctx, sale.PayToken, fee); err != nil {
		ctx.WithField("err", err).Error("ledgerRepo.AddFees failed")
		return err
	}
	if consumed != nil {
		if err := im.offerRepo.Remove(ctx, *consumed); err != nil {
			ctx.WithField("err", err).Error("offerRepo.Remove failed")
			return err
		}
	}
	if err := im.listingRepo.Remove(ctx, listingId); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Remove failed")
		return err
	}
	return nil
}

func (im *impl) findListing(ctx bCtx.Ctx, id listing.Id) (*listing.Listing, error) {
	l, err := im.listingRepo.FindOne(ctx, id)
	if err == domain.ErrNotFound {
		return nil, domain.ErrItemNotListed
	} else if err != nil {
		ctx.WithField("err", err).Error("listingRepo.FindOne failed")
		return nil, err
	}
	return l, nil
}
