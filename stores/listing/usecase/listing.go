package usecase

import (
	"fmt"
	"math/big"
	"time"

	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/ethereum"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	"github.com/unit-xyz/goapi/service/chain/contract"
)

type ListingUseCaseCfg struct {
	ChainId domain.ChainId
	// Marketplace is the treasury/operator address sellers grant
	// transfer approval to
	Marketplace domain.Address
	ListingRepo listing.Repo
	Erc721      contract.Erc721Contract
	Emitter     marketplace.Emitter
	KeyLock     *keylock.KeyLock
	// Now is swapped out in tests; defaults to time.Now
	Now func() time.Time
}

type impl struct {
	chainId     domain.ChainId
	marketplace domain.Address
	listingRepo listing.Repo
	erc721      contract.Erc721Contract
	emitter     marketplace.Emitter
	keyLock     *keylock.KeyLock
	now         func() time.Time
}

func New(cfg *ListingUseCaseCfg) listing.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &impl{
		chainId:     cfg.ChainId,
		marketplace: cfg.Marketplace,
		listingRepo: cfg.ListingRepo,
		erc721:      cfg.Erc721,
		emitter:     cfg.Emitter,
		keyLock:     cfg.KeyLock,
		now:         now,
	}
}

func itemKey(id listing.Id) string {
	return fmt.Sprintf("item:%s:%s", id.NftContract.ToLowerStr(), id.TokenId)
}

func (im *impl) ListItem(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, price *big.Int, deadlineSecs uint64) (*listing.Listing, error) {
	params := &listing.ListItemParams{
		NftContract:  nft,
		TokenId:      tokenId,
		PayToken:     domain.EmptyAddress,
		Price:        price,
		DeadlineSecs: deadlineSecs,
	}
	return im.listItem(ctx, caller, params)
}

func (im *impl) ListItemWithToken(ctx bCtx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, price *big.Int, auction bool, deadlineSecs uint64) (*listing.Listing, error) {
	if payToken.IsEmpty() {
		return nil, domain.ErrZeroAddress
	}
	params := &listing.ListItemParams{
		NftContract:  nft,
		TokenId:      tokenId,
		PayToken:     payToken,
		Price:        price,
		AuctionMode:  auction,
		DeadlineSecs: deadlineSecs,
	}
	return im.listItem(ctx, caller, params)
}

func (im *impl) ListItemWithPermit(ctx bCtx.Ctx, nft domain.Address, tokenId domain.TokenId, price *big.Int, deadlineSecs uint64, signature string) (*listing.Listing, error) {
	params := &listing.ListItemParams{
		NftContract:  nft,
		TokenId:      tokenId,
		PayToken:     domain.EmptyAddress,
		Price:        price,
		DeadlineSecs: deadlineSecs,
	}
	signer, err := im.recoverPermitSigner(ctx, params, signature)
	if err != nil {
		return nil, err
	}
	return im.listItem(ctx, signer, params)
}

func (im *impl) ListItemWithTokenWithPermit(ctx bCtx.Ctx, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, price *big.Int, auction bool, deadlineSecs uint64, signature string) (*listing.Listing, error) {
	if payToken.IsEmpty() {
		return nil, domain.ErrZeroAddress
	}
	params := &listing.ListItemParams{
		NftContract:  nft,
		TokenId:      tokenId,
		PayToken:     payToken,
		Price:        price,
		AuctionMode:  auction,
		DeadlineSecs: deadlineSecs,
	}
	signer, err := im.recoverPermitSigner(ctx, params, signature)
	if err != nil {
		return nil, err
	}
	return im.listItem(ctx, signer, params)
}

// recoverPermitSigner substitutes the address recovered from the
// signature over the exact parameter tuple for the transaction caller.
func (im *impl) recoverPermitSigner(ctx bCtx.Ctx, params *listing.ListItemParams, signature string) (domain.Address, error) {
	if params.NftContract.IsEmpty() {
		return "", domain.ErrZeroAddress
	}
	hash, err := params.PermitHash()
	if err != nil {
		return "", domain.ErrBadParamInput
	}
	signer, err := ethereum.RecoverHashSigner(hash, signature)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"nftContract": params.NftContract,
			"tokenId":     params.TokenId,
		}).Warn("failed to recover permit signer")
		return "", domain.ErrInvalidSignature
	}
	return domain.Address(signer.Hex()).ToLower(), nil
}

func (im *impl) listItem(ctx bCtx.Ctx, seller domain.Address, params *listing.ListItemParams) (*listing.Listing, error) {
	id := listing.Id{NftContract: params.NftContract, TokenId: params.TokenId}
	key := itemKey(id)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	if err := im.checkOwnershipAndApproval(ctx, seller, params.NftContract, params.TokenId); err != nil {
		return nil, err
	}
	if params.Price == nil || params.Price.Sign() <= 0 {
		return nil, domain.ErrInsufficientAmount
	}
	if _, err := im.listingRepo.FindOne(ctx, id); err == nil {
		return nil, domain.ErrItemListed
	} else if err != domain.ErrNotFound {
		ctx.WithField("err", err).Error("listingRepo.FindOne failed")
		return nil, err
	}

	now := im.now()
	l := &listing.Listing{
		NftContract: params.NftContract.ToLower(),
		TokenId:     params.TokenId,
		Seller:      seller.ToLower(),
		PayToken:    params.PayToken.ToLower(),
		Price:       new(big.Int).Set(params.Price),
		AuctionMode: params.AuctionMode,
		Deadline:    now.Add(time.Duration(params.DeadlineSecs) * time.Second),
	}
	if err := im.listingRepo.Upsert(ctx, l); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Upsert failed")
		return nil, err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemListed,
		NftContract: l.NftContract,
		TokenId:     l.TokenId,
		Account:     l.Seller,
		PayToken:    l.PayToken,
		Amount:      l.Price.String(),
		AuctionMode: &l.AuctionMode,
		NewDeadline: &l.Deadline,
		Time:        now,
	})
	return l, nil
}

func (im *impl) checkOwnershipAndApproval(ctx bCtx.Ctx, seller domain.Address, nft domain.Address, tokenId domain.TokenId) error {
	if nft.IsEmpty() {
		return domain.ErrZeroAddress
	}
	tid, err := tokenId.ToBigInt()
	if err != nil {
		return domain.ErrBadParamInput
	}
	owner, err := im.erc721.OwnerOf(ctx, int32(im.chainId), nft.ToLowerStr(), tid)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"nftContract": nft,
			"tokenId":     tokenId,
		}).Error("erc721.OwnerOf failed")
		return err
	}
	if !domain.Address(owner).Equals(seller) {
		return domain.ErrNotOwner
	}
	approved, err := im.erc721.GetApproved(ctx, int32(im.chainId), nft.ToLowerStr(), tid)
	if err != nil {
		ctx.WithField("err", err).Error("erc721.GetApproved failed")
		return err
	}
	if domain.Address(approved).Equals(im.marketplace) {
		return nil
	}
	approvedForAll, err := im.erc721.IsApprovedForAll(ctx, int32(im.chainId), nft.ToLowerStr(), seller.ToLowerStr(), im.marketplace.ToLowerStr())
	if err != nil {
		ctx.WithField("err", err).Error("erc721.IsApprovedForAll failed")
		return err
	}
	if !approvedForAll {
		return domain.ErrNotApprovedToSpendNFT
	}
	return nil
}

// findOrEmpty treats an absent listing as the zero record, so seller
// checks against it naturally fail with ErrNotOwner.
func (im *impl) findOrEmpty(ctx bCtx.Ctx, id listing.Id) (*listing.Listing, bool, error) {
	l, err := im.listingRepo.FindOne(ctx, id)
	if err == domain.ErrNotFound {
		return &listing.Listing{NftContract: id.NftContract, TokenId: id.TokenId}, false, nil
	}
	if err != nil {
		ctx.WithField("err", err).Error("listingRepo.FindOne failed")
		return nil, false, err
	}
	return l, true, nil
}

func (im *impl) UpdateItemSeller(ctx bCtx.Ctx, caller domain.Address, id listing.Id, newSeller domain.Address) error {
	key := itemKey(id)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	l, listed, err := im.findOrEmpty(ctx, id)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	if !listed {
		return domain.ErrItemNotListed
	}
	tid, err := id.TokenId.ToBigInt()
	if err != nil {
		return domain.ErrBadParamInput
	}
	owner, err := im.erc721.OwnerOf(ctx, int32(im.chainId), id.NftContract.ToLowerStr(), tid)
	if err != nil {
		ctx.WithField("err", err).Error("erc721.OwnerOf failed")
		return err
	}
	if !domain.Address(owner).Equals(newSeller) {
		return domain.ErrNotOwner
	}
	if newSeller.Equals(l.Seller) {
		return domain.ErrNoUpdateRequired
	}
	if err := im.listingRepo.Update(ctx, id, listing.Patchable{Seller: newSeller.ToLowerPtr()}); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Update failed")
		return err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemSellerUpdated,
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
		Account:     l.Seller,
		To:          newSeller.ToLower(),
		PayToken:    l.PayToken,
		Time:        im.now(),
	})
	return nil
}

func (im *impl) UpdateItemPrice(ctx bCtx.Ctx, caller domain.Address, id listing.Id, newPrice *big.Int) error {
	key := itemKey(id)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	l, listed, err := im.findOrEmpty(ctx, id)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	if !listed {
		return domain.ErrItemNotListed
	}
	if newPrice == nil || newPrice.Sign() <= 0 {
		return domain.ErrInsufficientAmount
	}
	if newPrice.Cmp(l.Price) == 0 {
		return domain.ErrNoUpdateRequired
	}
	if err := im.listingRepo.Update(ctx, id, listing.Patchable{Price: newPrice}); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Update failed")
		return err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemPriceUpdated,
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
		Account:     l.Seller,
		PayToken:    l.PayToken,
		Amount:      newPrice.String(),
		Time:        im.now(),
	})
	return nil
}

func (im *impl) ExtendItemDeadline(ctx bCtx.Ctx, caller domain.Address, id listing.Id, extraTime time.Duration) error {
	key := itemKey(id)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	l, listed, err := im.findOrEmpty(ctx, id)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	if !listed {
		return domain.ErrItemNotListed
	}
	oldDeadline := l.Deadline
	newDeadline := oldDeadline.Add(extraTime)
	if !newDeadline.After(im.now()) {
		return domain.ErrInvalidDeadline
	}
	if err := im.listingRepo.Update(ctx, id, listing.Patchable{Deadline: &newDeadline}); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Update failed")
		return err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemDeadlineExtended,
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
		Account:     l.Seller,
		PayToken:    l.PayToken,
		OldDeadline: &oldDeadline,
		NewDeadline: &newDeadline,
		Time:        im.now(),
	})
	return nil
}

func (im *impl) EnableAuction(ctx bCtx.Ctx, caller domain.Address, id listing.Id, newPrice *big.Int) error {
	return im.setAuctionMode(ctx, caller, id, newPrice, true)
}

func (im *impl) DisableAuction(ctx bCtx.Ctx, caller domain.Address, id listing.Id, newPrice *big.Int) error {
	return im.setAuctionMode(ctx, caller, id, newPrice, false)
}

func (im *impl) setAuctionMode(ctx bCtx.Ctx, caller domain.Address, id listing.Id, newPrice *big.Int, auction bool) error {
	key := itemKey(id)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	l, listed, err := im.findOrEmpty(ctx, id)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	if !listed {
		return domain.ErrItemNotListed
	}
	if l.IsNative() {
		return domain.ErrItemPriceInEth
	}
	patch := listing.Patchable{AuctionMode: &auction}
	// zero price keeps the current one
	if newPrice != nil && newPrice.Sign() > 0 && newPrice.Cmp(l.Price) != 0 {
		patch.Price = newPrice
	}
	if err := im.listingRepo.Update(ctx, id, patch); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Update failed")
		return err
	}

	evType := marketplace.EventItemAuctionEnabled
	if !auction {
		evType = marketplace.EventItemAuctionDisabled
	}
	price := l.Price
	if patch.Price != nil {
		price = patch.Price
	}
	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        evType,
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
		Account:     l.Seller,
		PayToken:    l.PayToken,
		Amount:      price.String(),
		AuctionMode: &auction,
		Time:        im.now(),
	})
	return nil
}

func (im *impl) UnlistItem(ctx bCtx.Ctx, caller domain.Address, id listing.Id) error {
	key := itemKey(id)
	im.keyLock.Lock(key)
	defer im.keyLock.Unlock(key)

	l, listed, err := im.findOrEmpty(ctx, id)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	if !listed {
		return domain.ErrItemNotListed
	}
	if err := im.listingRepo.Remove(ctx, id); err != nil {
		ctx.WithField("err", err).Error("listingRepo.Remove failed")
		return err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:        marketplace.EventItemUnlisted,
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
		Account:     l.Seller,
		PayToken:    l.PayToken,
		Time:        im.now(),
	})
	return nil
}

func (im *impl) GetListing(ctx bCtx.Ctx, id listing.Id) (*listing.Listing, error) {
	return im.listingRepo.FindOne(ctx, id)
}
