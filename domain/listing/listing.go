package listing

import (
	"bytes"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
)

// Id identifies a listing. At most one listing exists per id.
type Id struct {
	NftContract domain.Address `json:"nftContract" bson:"nftContract"`
	TokenId     domain.TokenId `json:"tokenId" bson:"tokenId"`
}

func (id Id) ToLower() Id {
	return Id{
		NftContract: id.NftContract.ToLower(),
		TokenId:     id.TokenId,
	}
}

type Listing struct {
	NftContract domain.Address `json:"nftContract" bson:"nftContract"`
	TokenId     domain.TokenId `json:"tokenId" bson:"tokenId"`
	Seller      domain.Address `json:"seller" bson:"seller"`
	// PayToken is domain.EmptyAddress when the item is priced in native currency
	PayToken    domain.Address `json:"payToken" bson:"payToken"`
	Price       *big.Int       `json:"price" bson:"price"`
	AuctionMode bool           `json:"auctionMode" bson:"auctionMode"`
	Deadline    time.Time      `json:"deadline" bson:"deadline"`
}

func (l *Listing) ToId() Id {
	return Id{
		NftContract: l.NftContract,
		TokenId:     l.TokenId,
	}
}

func (l *Listing) IsNative() bool {
	return l.PayToken.IsNative()
}

func (l *Listing) IsExpired(now time.Time) bool {
	return now.After(l.Deadline)
}

type Patchable struct {
	Seller      *domain.Address `json:"seller" bson:"seller,omitempty"`
	Price       *big.Int        `json:"price" bson:"price,omitempty"`
	AuctionMode *bool           `json:"auctionMode" bson:"auctionMode,omitempty"`
	Deadline    *time.Time      `json:"deadline" bson:"deadline,omitempty"`
}

// ListItemParams is the exact tuple a seller commits to when listing.
// The permit flow signs the hash of this tuple, so field order and
// encoding must stay stable.
type ListItemParams struct {
	NftContract domain.Address `json:"nftContract"`
	TokenId     domain.TokenId `json:"tokenId"`
	// PayToken is domain.EmptyAddress for a native-priced listing
	PayToken     domain.Address `json:"payToken"`
	Price        *big.Int       `json:"price"`
	AuctionMode  bool           `json:"auctionMode"`
	DeadlineSecs uint64         `json:"deadlineSecs"`
}

// PermitHash returns keccak256 over the packed parameter tuple
// (nft, tokenId, price, deadlineSecs) for native listings, with
// (payToken, auction) appended for token listings. Any parameter
// mismatch yields a different hash and invalidates the permit.
func (p *ListItemParams) PermitHash() ([]byte, error) {
	tokenId, err := p.TokenId.ToBigInt()
	if err != nil {
		return nil, err
	}
	price := p.Price
	if price == nil {
		price = big.NewInt(0)
	}
	var buf bytes.Buffer
	buf.Write(common.HexToAddress(string(p.NftContract)).Bytes())
	buf.Write(common.LeftPadBytes(tokenId.Bytes(), 32))
	buf.Write(common.LeftPadBytes(price.Bytes(), 32))
	buf.Write(common.LeftPadBytes(new(big.Int).SetUint64(p.DeadlineSecs).Bytes(), 32))
	if !p.PayToken.IsNative() {
		buf.Write(common.HexToAddress(string(p.PayToken)).Bytes())
		if p.AuctionMode {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return crypto.Keccak256(buf.Bytes()), nil
}

// Repo stores listings. FindOne returns domain.ErrNotFound when no
// listing exists for the id.
type Repo interface {
	FindOne(ctx ctx.Ctx, id Id) (*Listing, error)
	Upsert(ctx ctx.Ctx, listing *Listing) error
	Update(ctx ctx.Ctx, id Id, patchable Patchable) error
	Remove(ctx ctx.Ctx, id Id) error
}

type UseCase interface {
	ListItem(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, price *big.Int, deadlineSecs uint64) (*Listing, error)
	ListItemWithToken(ctx ctx.Ctx, caller domain.Address, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, price *big.Int, auction bool, deadlineSecs uint64) (*Listing, error)
	// The permit variants list on behalf of the address recovered from
	// signature over the packed parameter tuple instead of the direct caller.
	ListItemWithPermit(ctx ctx.Ctx, nft domain.Address, tokenId domain.TokenId, price *big.Int, deadlineSecs uint64, signature string) (*Listing, error)
	ListItemWithTokenWithPermit(ctx ctx.Ctx, nft domain.Address, tokenId domain.TokenId, payToken domain.Address, price *big.Int, auction bool, deadlineSecs uint64, signature string) (*Listing, error)
	UpdateItemSeller(ctx ctx.Ctx, caller domain.Address, id Id, newSeller domain.Address) error
	UpdateItemPrice(ctx ctx.Ctx, caller domain.Address, id Id, newPrice *big.Int) error
	ExtendItemDeadline(ctx ctx.Ctx, caller domain.Address, id Id, extraTime time.Duration) error
	EnableAuction(ctx ctx.Ctx, caller domain.Address, id Id, newPrice *big.Int) error
	DisableAuction(ctx ctx.Ctx, caller domain.Address, id Id, newPrice *big.Int) error
	UnlistItem(ctx ctx.Ctx, caller domain.Address, id Id) error
	GetListing(ctx ctx.Ctx, id Id) (*Listing, error)
}
