package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	mockMarketplace "github.com/unit-xyz/goapi/domain/marketplace/mocks"
	mockContract "github.com/unit-xyz/goapi/service/chain/contract/mocks"
	listingRepository "github.com/unit-xyz/goapi/stores/listing/repository"
)

var mockCtx = ctx.Background()

const (
	chainId     = domain.ChainId(1)
	treasury    = domain.Address("0x00000000000000000000000000000000000000fe")
	seller      = domain.Address("0x0000000000000000000000000000000000000001")
	stranger    = domain.Address("0x0000000000000000000000000000000000000002")
	nftContract = domain.Address("0x00000000000000000000000000000000000000aa")
	payToken    = domain.Address("0x00000000000000000000000000000000000000bb")
	tokenId     = domain.TokenId("7")
)

type listingTestsuite struct {
	suite.Suite
	repo        listing.Repo
	mockErc721  *mockContract.Erc721Contract
	mockEmitter *mockMarketplace.Emitter
	now         time.Time
	subject     listing.UseCase
}

func TestListingUseCase(t *testing.T) {
	suite.Run(t, new(listingTestsuite))
}

func (t *listingTestsuite) SetupTest() {
	t.repo = listingRepository.NewListingRepo()
	t.mockErc721 = &mockContract.Erc721Contract{}
	t.mockEmitter = &mockMarketplace.Emitter{}
	t.mockEmitter.On("Emit", mock.Anything, mock.Anything).Return()
	t.now = time.Unix(1700000000, 0)
	t.subject = New(&ListingUseCaseCfg{
		ChainId:     chainId,
		Marketplace: treasury,
		ListingRepo: t.repo,
		Erc721:      t.mockErc721,
		Emitter:     t.mockEmitter,
		KeyLock:     keylock.New(),
		Now:         func() time.Time { return t.now },
	})
}

func (t *listingTestsuite) ownedAndApproved(owner domain.Address) {
	t.mockErc721.On("OwnerOf", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(owner.ToLowerStr(), nil)
	t.mockErc721.On("GetApproved", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(treasury.ToLowerStr(), nil)
}

func (t *listingTestsuite) TestListItem() {
	t.ownedAndApproved(seller)

	l, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)
	t.Equal(seller, l.Seller)
	t.True(l.IsNative())
	t.False(l.AuctionMode)
	t.Equal(t.now.Add(time.Hour), l.Deadline)

	stored, err := t.repo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
	t.Equal(big.NewInt(100), stored.Price)

	t.mockEmitter.AssertCalled(t.T(), "Emit", mock.Anything, mock.MatchedBy(func(ev *marketplace.Event) bool {
		return ev.Type == marketplace.EventItemListed
	}))
}

func (t *listingTestsuite) TestListItemNotOwner() {
	t.ownedAndApproved(seller)

	_, err := t.subject.ListItem(mockCtx, stranger, nftContract, tokenId, big.NewInt(100), 3600)
	t.ErrorIs(err, domain.ErrNotOwner)
}

func (t *listingTestsuite) TestListItemNotApproved() {
	t.mockErc721.On("OwnerOf", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(seller.ToLowerStr(), nil)
	t.mockErc721.On("GetApproved", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(domain.EmptyAddress.ToLowerStr(), nil)
	t.mockErc721.On("IsApprovedForAll", mock.Anything, int32(chainId), nftContract.ToLowerStr(), seller.ToLowerStr(), treasury.ToLowerStr()).Return(false, nil)

	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.ErrorIs(err, domain.ErrNotApprovedToSpendNFT)
}

func (t *listingTestsuite) TestListItemOperatorApproval() {
	t.mockErc721.On("OwnerOf", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(seller.ToLowerStr(), nil)
	t.mockErc721.On("GetApproved", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(domain.EmptyAddress.ToLowerStr(), nil)
	t.mockErc721.On("IsApprovedForAll", mock.Anything, int32(chainId), nftContract.ToLowerStr(), seller.ToLowerStr(), treasury.ToLowerStr()).Return(true, nil)

	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)
}

func (t *listingTestsuite) TestListItemZeroPrice() {
	t.ownedAndApproved(seller)

	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(0), 3600)
	t.ErrorIs(err, domain.ErrInsufficientAmount)
}

func (t *listingTestsuite) TestListItemTwice() {
	t.ownedAndApproved(seller)

	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)

	_, err = t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(200), 3600)
	t.ErrorIs(err, domain.ErrItemListed)
}

func (t *listingTestsuite) TestListItemWithTokenZeroPayToken() {
	_, err := t.subject.ListItemWithToken(mockCtx, seller, nftContract, tokenId, domain.EmptyAddress, big.NewInt(100), false, 3600)
	t.ErrorIs(err, domain.ErrZeroAddress)
}

func (t *listingTestsuite) TestListItemWithPermit() {
	key, err := crypto.GenerateKey()
	t.NoError(err)
	signer := domain.Address(crypto.PubkeyToAddress(key.PublicKey).Hex()).ToLower()

	t.ownedAndApproved(signer)

	params := &listing.ListItemParams{
		NftContract:  nftContract,
		TokenId:      tokenId,
		PayToken:     domain.EmptyAddress,
		Price:        big.NewInt(100),
		DeadlineSecs: 3600,
	}
	hash, err := params.PermitHash()
	t.NoError(err)
	sig, err := crypto.Sign(accounts.TextHash(hash), key)
	t.NoError(err)

	l, err := t.subject.ListItemWithPermit(mockCtx, nftContract, tokenId, big.NewInt(100), 3600, hexutil.Encode(sig))
	t.NoError(err)
	t.Equal(signer, l.Seller)
}

func (t *listingTestsuite) TestListItemWithPermitTamperedPrice() {
	key, err := crypto.GenerateKey()
	t.NoError(err)
	signer := domain.Address(crypto.PubkeyToAddress(key.PublicKey).Hex()).ToLower()

	// the recovered address no longer matches the owner when any
	// signed parameter differs
	t.ownedAndApproved(signer)

	params := &listing.ListItemParams{
		NftContract:  nftContract,
		TokenId:      tokenId,
		PayToken:     domain.EmptyAddress,
		Price:        big.NewInt(100),
		DeadlineSecs: 3600,
	}
	hash, err := params.PermitHash()
	t.NoError(err)
	sig, err := crypto.Sign(accounts.TextHash(hash), key)
	t.NoError(err)

	_, err = t.subject.ListItemWithPermit(mockCtx, nftContract, tokenId, big.NewInt(99), 3600, hexutil.Encode(sig))
	t.ErrorIs(err, domain.ErrNotOwner)
}

func (t *listingTestsuite) TestUpdateItemPrice() {
	t.ownedAndApproved(seller)
	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)

	id := listing.Id{NftContract: nftContract, TokenId: tokenId}

	t.ErrorIs(t.subject.UpdateItemPrice(mockCtx, stranger, id, big.NewInt(200)), domain.ErrNotOwner)
	t.ErrorIs(t.subject.UpdateItemPrice(mockCtx, seller, id, big.NewInt(100)), domain.ErrNoUpdateRequired)
	t.NoError(t.subject.UpdateItemPrice(mockCtx, seller, id, big.NewInt(200)))

	stored, err := t.repo.FindOne(mockCtx, id)
	t.NoError(err)
	t.Equal(big.NewInt(200), stored.Price)
}

func (t *listingTestsuite) TestUpdateItemPriceAbsentListing() {
	id := listing.Id{NftContract: nftContract, TokenId: tokenId}
	// an absent listing reads as the zero record, so the seller check
	// fires before the listed check
	t.ErrorIs(t.subject.UpdateItemPrice(mockCtx, seller, id, big.NewInt(200)), domain.ErrNotOwner)
}

func (t *listingTestsuite) TestUpdateItemSeller() {
	t.mockErc721.On("OwnerOf", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(seller.ToLowerStr(), nil).Once()
	t.mockErc721.On("GetApproved", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(treasury.ToLowerStr(), nil)
	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)

	// the token moved on chain after listing
	t.mockErc721.On("OwnerOf", mock.Anything, int32(chainId), nftContract.ToLowerStr(), big.NewInt(7)).Return(stranger.ToLowerStr(), nil)

	id := listing.Id{NftContract: nftContract, TokenId: tokenId}
	t.NoError(t.subject.UpdateItemSeller(mockCtx, seller, id, stranger))

	stored, err := t.repo.FindOne(mockCtx, id)
	t.NoError(err)
	t.Equal(stranger, stored.Seller)
}

func (t *listingTestsuite) TestExtendItemDeadline() {
	t.ownedAndApproved(seller)
	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)

	id := listing.Id{NftContract: nftContract, TokenId: tokenId}

	t.ErrorIs(t.subject.ExtendItemDeadline(mockCtx, seller, id, -2*time.Hour), domain.ErrInvalidDeadline)
	t.NoError(t.subject.ExtendItemDeadline(mockCtx, seller, id, time.Hour))

	stored, err := t.repo.FindOne(mockCtx, id)
	t.NoError(err)
	t.Equal(t.now.Add(2*time.Hour), stored.Deadline)
}

func (t *listingTestsuite) TestAuctionModeRequiresTokenListing() {
	t.ownedAndApproved(seller)
	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)

	id := listing.Id{NftContract: nftContract, TokenId: tokenId}
	t.ErrorIs(t.subject.EnableAuction(mockCtx, seller, id, big.NewInt(0)), domain.ErrItemPriceInEth)
}

func (t *listingTestsuite) TestEnableAuctionKeepsPriceOnZero() {
	t.ownedAndApproved(seller)
	_, err := t.subject.ListItemWithToken(mockCtx, seller, nftContract, tokenId, payToken, big.NewInt(100), false, 3600)
	t.NoError(err)

	id := listing.Id{NftContract: nftContract, TokenId: tokenId}
	t.NoError(t.subject.EnableAuction(mockCtx, seller, id, big.NewInt(0)))

	stored, err := t.repo.FindOne(mockCtx, id)
	t.NoError(err)
	t.True(stored.AuctionMode)
	t.Equal(big.NewInt(100), stored.Price)

	t.NoError(t.subject.DisableAuction(mockCtx, seller, id, big.NewInt(250)))

	stored, err = t.repo.FindOne(mockCtx, id)
	t.NoError(err)
	t.False(stored.AuctionMode)
	t.Equal(big.NewInt(250), stored.Price)
}

func (t *listingTestsuite) TestUnlistItem() {
	t.ownedAndApproved(seller)
	_, err := t.subject.ListItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100), 3600)
	t.NoError(err)

	id := listing.Id{NftContract: nftContract, TokenId: tokenId}
	t.ErrorIs(t.subject.UnlistItem(mockCtx, stranger, id), domain.ErrNotOwner)
	t.NoError(t.subject.UnlistItem(mockCtx, seller, id))

	_, err = t.repo.FindOne(mockCtx, id)
	t.ErrorIs(err, domain.ErrNotFound)
}
