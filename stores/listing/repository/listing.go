package repository

import (
	"math/big"
	"sync"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/listing"
)

// listingRepoImpl is the authoritative in-memory listing registry. A
// single RWMutex guards the map while usecases serialize whole
// operations per item key.
type listingRepoImpl struct {
	mu       sync.RWMutex
	listings map[listing.Id]*listing.Listing
}

func NewListingRepo() listing.Repo {
	return &listingRepoImpl{
		listings: map[listing.Id]*listing.Listing{},
	}
}

func (im *listingRepoImpl) FindOne(c ctx.Ctx, id listing.Id) (*listing.Listing, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	l, ok := im.listings[id.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneListing(l), nil
}

func (im *listingRepoImpl) Upsert(c ctx.Ctx, l *listing.Listing) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	stored := cloneListing(l)
	stored.NftContract = stored.NftContract.ToLower()
	stored.Seller = stored.Seller.ToLower()
	stored.PayToken = stored.PayToken.ToLower()
	im.listings[stored.ToId()] = stored
	return nil
}

func (im *listingRepoImpl) Update(c ctx.Ctx, id listing.Id, patchable listing.Patchable) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	l, ok := im.listings[id.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if patchable.Seller != nil {
		l.Seller = patchable.Seller.ToLower()
	}
	if patchable.Price != nil {
		l.Price = new(big.Int).Set(patchable.Price)
	}
	if patchable.AuctionMode != nil {
		l.AuctionMode = *patchable.AuctionMode
	}
	if patchable.Deadline != nil {
		l.Deadline = *patchable.Deadline
	}
	return nil
}

func (im *listingRepoImpl) Remove(c ctx.Ctx, id listing.Id) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := id.ToLower()
	if _, ok := im.listings[key]; !ok {
		return domain.ErrNotFound
	}
	delete(im.listings, key)
	return nil
}

func cloneListing(l *listing.Listing) *listing.Listing {
	cp := *l
	if l.Price != nil {
		cp.Price = new(big.Int).Set(l.Price)
	}
	return &cp
}
