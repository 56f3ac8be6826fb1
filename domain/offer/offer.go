package offer

import (
	"math/big"
	"time"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
)

// Id identifies an offer. A buyer holds at most one offer per item.
type Id struct {
	Offeror     domain.Address `json:"offeror" bson:"offeror"`
	NftContract domain.Address `json:"nftContract" bson:"nftContract"`
	TokenId     domain.TokenId `json:"tokenId" bson:"tokenId"`
}

func (id Id) ToLower() Id {
	return Id{
		Offeror:     id.Offeror.ToLower(),
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
	}
}

type Offer struct {
	Offeror     domain.Address `json:"offeror" bson:"offeror"`
	NftContract domain.Address `json:"nftContract" bson:"nftContract"`
	TokenId     domain.TokenId `json:"tokenId" bson:"tokenId"`
	// PayToken is never the native sentinel, offers are always
	// token denominated
	PayToken domain.Address `json:"payToken" bson:"payToken"`
	Amount   *big.Int       `json:"amount" bson:"amount"`
	Deadline time.Time      `json:"deadline" bson:"deadline"`
}

func (o *Offer) ToId() Id {
	return Id{
		Offeror:     o.Offeror,
		NftContract: o.NftContract,
		TokenId:     o.TokenId,
	}
}

func (o *Offer) IsExpired(now time.Time) bool {
	return now.After(o.Deadline)
}

type Patchable struct {
	Deadline *time.Time `json:"deadline" bson:"deadline,omitempty"`
}

// Repo stores offers. FindOne returns domain.ErrNotFound when no offer
// exists for the id.
type Repo interface {
	FindOne(ctx ctx.Ctx, id Id) (*Offer, error)
	Upsert(ctx ctx.Ctx, offer *Offer) error
	Update(ctx ctx.Ctx, id Id, patchable Patchable) error
	Remove(ctx ctx.Ctx, id Id) error
}

type UseCase interface {
	CreateOffer(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, amount *big.Int, deadlineSecs uint64) (*Offer, error)
	ExtendOfferDeadline(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, extraTime time.Duration) error
	RemoveOffer(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId) error
	GetOffer(ctx ctx.Ctx, id Id) (*Offer, error)
}
