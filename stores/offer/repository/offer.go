package repository

import (
	"math/big"
	"sync"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/offer"
)

// offerRepoImpl is the authoritative in-memory offer registry, keyed by
// (offeror, nftContract, tokenId).
type offerRepoImpl struct {
	mu     sync.RWMutex
	offers map[offer.Id]*offer.Offer
}

func NewOfferRepo() offer.Repo {
	return &offerRepoImpl{
		offers: map[offer.Id]*offer.Offer{},
	}
}

func (im *offerRepoImpl) FindOne(c ctx.Ctx, id offer.Id) (*offer.Offer, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	o, ok := im.offers[id.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOffer(o), nil
}

func (im *offerRepoImpl) Upsert(c ctx.Ctx, o *offer.Offer) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	stored := cloneOffer(o)
	stored.Offeror = stored.Offeror.ToLower()
	stored.NftContract = stored.NftContract.ToLower()
	stored.PayToken = stored.PayToken.ToLower()
	im.offers[stored.ToId()] = stored
	return nil
}

func (im *offerRepoImpl) Update(c ctx.Ctx, id offer.Id, patchable offer.Patchable) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	o, ok := im.offers[id.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if patchable.Deadline != nil {
		o.Deadline = *patchable.Deadline
	}
	return nil
}

func (im *offerRepoImpl) Remove(c ctx.Ctx, id offer.Id) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := id.ToLower()
	if _, ok := im.offers[key]; !ok {
		return domain.ErrNotFound
	}
	delete(im.offers, key)
	return nil
}

func cloneOffer(o *offer.Offer) *offer.Offer {
	cp := *o
	if o.Amount != nil {
		cp.Amount = new(big.Int).Set(o.Amount)
	}
	return &cp
}
