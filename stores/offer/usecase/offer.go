package usecase

import (
	"fmt"
	"math/big"
	"time"

	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	"github.com/unit-xyz/goapi/domain/offer"
	"github.com/unit-xyz/goapi/service/chain/contract"
)

const (
	// DefaultMinOfferDuration is the floor for a nonzero offer deadline.
	DefaultMinOfferDuration = 10 * time.Minute
	// DefaultOfferGraceWindow is added to the listing deadline whenever
	// an offer is created, so an outstanding offer cannot be starved by
	// listing expiry.
	DefaultOfferGraceWindow = time.Hour
)

type OfferUseCaseCfg struct {
	ChainId domain.ChainId
	// Marketplace is the treasury/operator address offerors grant token
	// allowance to
	Marketplace      domain.Address
	ListingRepo      listing.Repo
	OfferRepo        offer.Repo
	Erc20            contract.Erc20Contract
	Emitter          marketplace.Emitter
	KeyLock          *keylock.KeyLock
	MinOfferDuration time.Duration
	OfferGraceWindow time.Duration
	Now              func() time.Time
}

type impl struct {
	chainId          domain.ChainId
	marketplace      domain.Address
	listingRepo      listing.Repo
	offerRepo        offer.Repo
	erc20            contract.Erc20Contract
	emitter          marketplace.Emitter
	keyLock          *keylock.KeyLock
	minOfferDuration time.Duration
	offerGraceWindow time.Duration
	now              func() time.Time
}

func New(cfg *OfferUseCaseCfg) offer.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	minDuration := cfg.MinOfferDuration
	if minDuration == 0 {
		minDuration = DefaultMinOfferDuration
	}
	grace := cfg.OfferGraceWindow
	if grace == 0 {
		grace = DefaultOfferGraceWindow
	}
	return &impl{
		chainId:          cfg.ChainId,
		marketplace:      cfg.Marketplace,
		listingRepo:      cfg.ListingRepo,
		offerRepo:        cfg.OfferRepo,
		erc20:            cfg.Erc20,
		emitter:          cfg.Emitter,
		keyLock:          cfg.KeyLock,
		minOfferDuration: minDuration,
		offerGraceWindow: grace,
		now:              now,
	}
}

func itemKey(nft domain.Address, tokenId domain.TokenId) string {
	return fmt.Sprintf("item:%s:%s", nft.ToLowerStr(), tokenId)
}

func (im *impl) CreateOffer(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, amount *big.Int, deadlineSecs uint64) (*offer.Offer, error) {
	key := itemKey(nft, tokenId)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	listingId := listing.Id{NftContract: nft, TokenId: tokenId}
	l, err := im.listingRepo.FindOne(ctx, listingId)
	if err == domain.ErrNotFound {
		return nil, domain.ErrItemNotListed
	} else if err != nil {
		ctx.WithField("err", err).Error("listingRepo.FindOne failed")
		return nil, err
	}
	// offers are always token denominated, never native
	if payToken.IsEmpty() {
		return nil, domain.ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.ErrInsufficientAmount
	}
	if l.Seller.Equals(caller) {
		return nil, domain.ErrCannotCreateOfferOnOwnItem
	}

	now := im.now()
	offerId := offer.Id{Offeror: caller, NftContract: nft, TokenId: tokenId}
	if existing, err := im.offerRepo.FindOne(ctx, offerId); err == nil {
		if !existing.IsExpired(now) {
			return nil, domain.ErrPendingOffer
		}
	} else if err != domain.ErrNotFound {
		ctx.WithField("err", err).Error("offerRepo.FindOne failed")
		return nil, err
	}

	allowance, err := im.erc20.Allowance(ctx, int32(im.chainId), payToken.ToLowerStr(), caller.ToLowerStr(), im.marketplace.ToLowerStr())
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"payToken": payToken,
			"offeror":  caller,
		}).Error("erc20.Allowance failed")
		return nil, err
	}
	if allowance.Cmp(amount) < 0 {
		return nil, domain.ErrNotApprovedToSpendToken
	}

	// zero deadlineSecs inherits the listing's pre-extension deadline
	var deadline time.Time
	if deadlineSecs == 0 {
		deadline = l.Deadline
	} else {
		d := time.Duration(deadlineSecs) * time.Second
		if d < im.minOfferDuration {
			return nil, domain.ErrDeadlineLessThanMinimum
		}
		deadline = now.Add(d)
	}

	o := &offer.Offer{
		Offeror:     caller.ToLower(),
		NftContract: nft.ToLower(),
		TokenId:     tokenId,
		PayToken:    payToken.ToLower(),
		Amount:      new(big.Int).Set(amount),
		Deadline:    deadline,
	}
	if err := im.offerRepo.Upsert(ctx, o); err != nil {
		ctx.WithField("err", err).Error("offerRepo.Upsert failed")
		return nil, err
	}

	// keep the listing alive past the new offer
	extended := l.Deadline.Add(im.offerGraceWindow)
	if err := im.listingRepo.Update(ctx, listingId, listing.Patchable{Deadline: &extended}); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Update failed")
		if rmErr := im.offerRepo.Remove(ctx, offerId); rmErr != nil {
			ctx.WithField("err", rmErr).Error("offerRepo.Remove rollback failed")
		}
		return nil, err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventOfferCreated,
		NftContract: o.NftContract,
		TokenId:     o.TokenId,
		Account:     o.Offeror,
		To:          l.Seller,
		PayToken:    o.PayToken,
		Amount:      o.Amount.String(),
		NewDeadline: &o.Deadline,
		Time:        now,
	})
	return o, nil
}

func (im *impl) ExtendOfferDeadline(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, extraTime time.Duration) error {
	key := itemKey(nft, tokenId)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	o, err := im.findOffer(ctx, caller, nft, tokenId)
	if err != nil {
		return err
	}
	oldDeadline := o.Deadline
	newDeadline := oldDeadline.Add(extraTime)
	if !newDeadline.After(im.now()) {
		return domain.ErrInvalidDeadline
	}
	if err := im.offerRepo.Update(ctx, o.ToId(), offer.Patchable{Deadline: &newDeadline}); err != nil {
		ctx.WithField("err", err).Error("offerRepo.Update failed")
		return err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventOfferDeadlineExtended,
		NftContract: o.NftContract,
		TokenId:     o.TokenId,
		Account:     o.Offeror,
		PayToken:    o.PayToken,
		Amount:      o.Amount.String(),
		OldDeadline: &oldDeadline,
		NewDeadline: &newDeadline,
		Time:        im.now(),
	})
	return nil
}

func (im *impl) RemoveOffer(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId) error {
	key := itemKey(nft, tokenId)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	o, err := im.findOffer(ctx, caller, nft, tokenId)
	if err != nil {
		return err
	}
	if err := im.offerRepo.Remove(ctx, o.ToId()); err != nil {
		ctx.WithField("err", err).Error("offerRepo.Remove failed")
		return err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventOfferRemoved,
		NftContract: o.NftContract,
		TokenId:     o.TokenId,
		Account:     o.Offeror,
		PayToken:    o.PayToken,
		Amount:      o.Amount.String(),
		Time:        im.now(),
	})
	return nil
}

// findOffer applies the shared existence guards: the item must still be
// listed and the caller must hold an offer on it.
func (im *impl) findOffer(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId) (*offer.Offer, error) {
	if _, err := im.listingRepo.FindOne(ctx, listing.Id{NftContract: nft, TokenId: tokenId}); err == domain.ErrNotFound {
		return nil, domain.ErrItemNotListed
	} else if err != nil {
		ctx.WithField("err", err).Error("listingRepo.FindOne failed")
		return nil, err
	}
	o, err := im.offerRepo.FindOne(ctx, offer.Id{Offeror: caller, NftContract: nft, TokenId: tokenId})
	if err == domain.ErrNotFound {
		return nil, domain.ErrOfferDoesNotExist
	} else if err != nil {
		ctx.WithField("err", err).Error("offerRepo.FindOne failed")
		return nil, err
	}
	return o, nil
}

func (im *impl) GetOffer(ctx bCtx.Ctx, id offer.Id) (*offer.Offer, error) {
	return im.offerRepo.FindOne(ctx, id)
}
