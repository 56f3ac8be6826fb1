package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	mockMarketplace "github.com/unit-xyz/goapi/domain/marketplace/mocks"
	"github.com/unit-xyz/goapi/domain/offer"
	mockContract "github.com/unit-xyz/goapi/service/chain/contract/mocks"
	listingRepository "github.com/unit-xyz/goapi/stores/listing/repository"
	offerRepository "github.com/unit-xyz/goapi/stores/offer/repository"
)

var mockCtx = ctx.Background()

const (
	chainId     = domain.ChainId(1)
	treasury    = domain.Address("0x00000000000000000000000000000000000000fe")
	seller      = domain.Address("0x0000000000000000000000000000000000000001")
	offeror     = domain.Address("0x0000000000000000000000000000000000000002")
	nftContract = domain.Address("0x00000000000000000000000000000000000000aa")
	payToken    = domain.Address("0x00000000000000000000000000000000000000bb")
	tokenId     = domain.TokenId("7")
)

type offerTestsuite struct {
	suite.Suite
	listingRepo listing.Repo
	offerRepo   offer.Repo
	mockErc20   *mockContract.Erc20Contract
	mockEmitter *mockMarketplace.Emitter
	now         time.Time
	subject     offer.UseCase
}

func TestOfferUseCase(t *testing.T) {
	suite.Run(t, new(offerTestsuite))
}

func (t *offerTestsuite) SetupTest() {
	t.listingRepo = listingRepository.NewListingRepo()
	t.offerRepo = offerRepository.NewOfferRepo()
	t.mockErc20 = &mockContract.Erc20Contract{}
	t.mockEmitter = &mockMarketplace.Emitter{}
	t.mockEmitter.On("Emit", mock.Anything, mock.Anything).Return()
	t.now = time.Unix(1700000000, 0)
	t.subject = New(&OfferUseCaseCfg{
		ChainId:     chainId,
		Marketplace: treasury,
		ListingRepo: t.listingRepo,
		OfferRepo:   t.offerRepo,
		Erc20:       t.mockErc20,
		Emitter:     t.mockEmitter,
		KeyLock:     keylock.New(),
		Now:         func() time.Time { return t.now },
	})
}

func (t *offerTestsuite) listItem() *listing.Listing {
	l := &listing.Listing{
		NftContract: nftContract,
		TokenId:     tokenId,
		Seller:      seller,
		PayToken:    payToken,
		Price:       big.NewInt(1000),
		Deadline:    t.now.Add(time.Hour),
	}
	t.Require().NoError(t.listingRepo.Upsert(mockCtx, l))
	return l
}

func (t *offerTestsuite) allow(amount int64) {
	t.mockErc20.On("Allowance", mock.Anything, int32(chainId), payToken.ToLowerStr(), offeror.ToLowerStr(), treasury.ToLowerStr()).Return(big.NewInt(amount), nil)
}

func (t *offerTestsuite) TestCreateOffer() {
	t.listItem()
	t.allow(500)

	o, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.NoError(err)
	t.Equal(offeror, o.Offeror)
	t.Equal(t.now.Add(30*time.Minute), o.Deadline)

	// the listing deadline is pushed out by the grace window
	stored, err := t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
	t.Equal(t.now.Add(time.Hour+DefaultOfferGraceWindow), stored.Deadline)

	t.mockEmitter.AssertCalled(t.T(), "Emit", mock.Anything, mock.MatchedBy(func(ev *marketplace.Event) bool {
		return ev.Type == marketplace.EventOfferCreated
	}))
}

func (t *offerTestsuite) TestCreateOfferUnlistedItem() {
	t.allow(500)
	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.ErrorIs(err, domain.ErrItemNotListed)
}

func (t *offerTestsuite) TestCreateOfferNativeToken() {
	t.listItem()
	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, domain.EmptyAddress, big.NewInt(500), 1800)
	t.ErrorIs(err, domain.ErrZeroAddress)
}

func (t *offerTestsuite) TestCreateOfferOnOwnItem() {
	t.listItem()
	_, err := t.subject.CreateOffer(mockCtx, seller, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.ErrorIs(err, domain.ErrCannotCreateOfferOnOwnItem)
}

func (t *offerTestsuite) TestCreateOfferInsufficientAllowance() {
	t.listItem()
	t.allow(499)
	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.ErrorIs(err, domain.ErrNotApprovedToSpendToken)
}

func (t *offerTestsuite) TestCreateOfferBelowMinimumDuration() {
	t.listItem()
	t.allow(500)
	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 59)
	t.ErrorIs(err, domain.ErrDeadlineLessThanMinimum)
}

func (t *offerTestsuite) TestCreateOfferInheritsListingDeadline() {
	l := t.listItem()
	t.allow(500)

	o, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 0)
	t.NoError(err)
	// the offer inherits the deadline the listing had before the grace
	// extension was applied
	t.Equal(l.Deadline, o.Deadline)

	stored, err := t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
	t.Equal(l.Deadline.Add(DefaultOfferGraceWindow), stored.Deadline)
}

func (t *offerTestsuite) TestCreateOfferPending() {
	t.listItem()
	t.allow(2000)

	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.NoError(err)

	_, err = t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(600), 1800)
	t.ErrorIs(err, domain.ErrPendingOffer)
}

func (t *offerTestsuite) TestCreateOfferReplacesExpired() {
	t.listItem()
	t.allow(2000)

	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.NoError(err)

	t.now = t.now.Add(31 * time.Minute)

	o, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(600), 1800)
	t.NoError(err)
	t.Equal(big.NewInt(600), o.Amount)
}

func (t *offerTestsuite) TestExtendOfferDeadline() {
	t.listItem()
	t.allow(500)

	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.NoError(err)

	t.ErrorIs(t.subject.ExtendOfferDeadline(mockCtx, seller, nftContract, tokenId, time.Hour), domain.ErrOfferDoesNotExist)
	t.ErrorIs(t.subject.ExtendOfferDeadline(mockCtx, offeror, nftContract, tokenId, -time.Hour), domain.ErrInvalidDeadline)
	t.NoError(t.subject.ExtendOfferDeadline(mockCtx, offeror, nftContract, tokenId, time.Hour))

	stored, err := t.offerRepo.FindOne(mockCtx, offer.Id{Offeror: offeror, NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
	t.Equal(t.now.Add(30*time.Minute+time.Hour), stored.Deadline)
}

func (t *offerTestsuite) TestRemoveOffer() {
	t.listItem()
	t.allow(500)

	_, err := t.subject.CreateOffer(mockCtx, offeror, nftContract, tokenId, payToken, big.NewInt(500), 1800)
	t.NoError(err)

	t.NoError(t.subject.RemoveOffer(mockCtx, offeror, nftContract, tokenId))

	_, err = t.offerRepo.FindOne(mockCtx, offer.Id{Offeror: offeror, NftContract: nftContract, TokenId: tokenId})
	t.ErrorIs(err, domain.ErrNotFound)

	t.ErrorIs(t.subject.RemoveOffer(mockCtx, offeror, nftContract, tokenId), domain.ErrOfferDoesNotExist)
}
