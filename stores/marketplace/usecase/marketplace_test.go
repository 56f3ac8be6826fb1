package usecase

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/ledger"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	mockMarketplace "github.com/unit-xyz/goapi/domain/marketplace/mocks"
	"github.com/unit-xyz/goapi/domain/offer"
	mockPayout "github.com/unit-xyz/goapi/service/payout/mocks"
	ledgerRepository "github.com/unit-xyz/goapi/stores/ledger/repository"
	listingRepository "github.com/unit-xyz/goapi/stores/listing/repository"
	offerRepository "github.com/unit-xyz/goapi/stores/offer/repository"
)

var mockCtx = ctx.Background()

const (
	seller      = domain.Address("0x0000000000000000000000000000000000000001")
	buyer       = domain.Address("0x0000000000000000000000000000000000000002")
	nftContract = domain.Address("0x00000000000000000000000000000000000000aa")
	payToken    = domain.Address("0x00000000000000000000000000000000000000bb")
	tokenId     = domain.TokenId("7")
)

type settlementTestsuite struct {
	suite.Suite
	listingRepo listing.Repo
	offerRepo   offer.Repo
	ledgerRepo  ledger.Repo
	mockPayout  *mockPayout.Service
	mockEmitter *mockMarketplace.Emitter
	now         time.Time
	subject     marketplace.UseCase
}

func TestSettlementUseCase(t *testing.T) {
	suite.Run(t, new(settlementTestsuite))
}

func (t *settlementTestsuite) SetupTest() {
	t.listingRepo = listingRepository.NewListingRepo()
	t.offerRepo = offerRepository.NewOfferRepo()
	t.ledgerRepo = ledgerRepository.NewLedgerRepo()
	t.mockPayout = &mockPayout.Service{}
	t.mockEmitter = &mockMarketplace.Emitter{}
	t.mockEmitter.On("Emit", mock.Anything, mock.Anything).Return()
	t.now = time.Unix(1700000000, 0)
	t.subject = New(&MarketplaceUseCaseCfg{
		ListingRepo: t.listingRepo,
		OfferRepo:   t.offerRepo,
		LedgerRepo:  t.ledgerRepo,
		Payout:      t.mockPayout,
		Emitter:     t.mockEmitter,
		KeyLock:     keylock.New(),
		Now:         func() time.Time { return t.now },
	})
}

func (t *settlementTestsuite) listNative(price int64) {
	t.Require().NoError(t.listingRepo.Upsert(mockCtx, &listing.Listing{
		NftContract: nftContract,
		TokenId:     tokenId,
		Seller:      seller,
		PayToken:    domain.EmptyAddress,
		Price:       big.NewInt(price),
		Deadline:    t.now.Add(time.Hour),
	}))
}

func (t *settlementTestsuite) listWithToken(price int64, auction bool) {
	t.Require().NoError(t.listingRepo.Upsert(mockCtx, &listing.Listing{
		NftContract: nftContract,
		TokenId:     tokenId,
		Seller:      seller,
		PayToken:    payToken,
		Price:       big.NewInt(price),
		AuctionMode: auction,
		Deadline:    t.now.Add(time.Hour),
	}))
}

func (t *settlementTestsuite) placeOffer(amount int64, deadline time.Time) {
	t.Require().NoError(t.offerRepo.Upsert(mockCtx, &offer.Offer{
		Offeror:     buyer,
		NftContract: nftContract,
		TokenId:     tokenId,
		PayToken:    payToken,
		Amount:      big.NewInt(amount),
		Deadline:    deadline,
	}))
}

func (t *settlementTestsuite) TestBuyItemSplitsProceeds() {
	t.listNative(101)
	t.mockPayout.On("TransferErc721", mock.Anything, nftContract, seller, buyer, big.NewInt(7)).Return(nil)

	t.NoError(t.subject.BuyItem(mockCtx, buyer, nftContract, tokenId, big.NewInt(101)))

	earnings, err := t.ledgerRepo.GetEarnings(mockCtx, ledger.EarningsId{Beneficiary: seller, PayToken: domain.EmptyAddress})
	t.NoError(err)
	t.Equal(big.NewInt(99), earnings)

	fees, err := t.ledgerRepo.GetFees(mockCtx, domain.EmptyAddress)
	t.NoError(err)
	t.Equal(big.NewInt(1), fees)

	_, err = t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.ErrorIs(err, domain.ErrNotFound)

	t.mockEmitter.AssertCalled(t.T(), "Emit", mock.Anything, mock.MatchedBy(func(ev *marketplace.Event) bool {
		return ev.Type == marketplace.EventItemBought && ev.Account == buyer && ev.To == seller
	}))
}

func (t *settlementTestsuite) TestBuyItemValidation() {
	t.ErrorIs(t.subject.BuyItem(mockCtx, buyer, nftContract, tokenId, big.NewInt(100)), domain.ErrItemNotListed)

	t.listNative(100)
	t.ErrorIs(t.subject.BuyItem(mockCtx, buyer, nftContract, tokenId, big.NewInt(99)), domain.ErrInvalidAmount)
	t.ErrorIs(t.subject.BuyItem(mockCtx, seller, nftContract, tokenId, big.NewInt(100)), domain.ErrCannotBuyOwnNFT)

	t.now = t.now.Add(2 * time.Hour)
	t.ErrorIs(t.subject.BuyItem(mockCtx, buyer, nftContract, tokenId, big.NewInt(100)), domain.ErrListingExpired)
}

func (t *settlementTestsuite) TestBuyItemTokenListing() {
	t.listWithToken(100, false)
	t.ErrorIs(t.subject.BuyItem(mockCtx, buyer, nftContract, tokenId, big.NewInt(100)), domain.ErrItemPriceInToken)
}

func (t *settlementTestsuite) TestBuyItemAuctionListing() {
	t.listWithToken(100, true)
	t.ErrorIs(t.subject.BuyItemWithToken(mockCtx, buyer, nftContract, tokenId, payToken, big.NewInt(100)), domain.ErrItemInAuction)
}

func (t *settlementTestsuite) TestBuyItemTransferFailureLeavesListing() {
	t.listNative(100)
	t.mockPayout.On("TransferErc721", mock.Anything, nftContract, seller, buyer, big.NewInt(7)).Return(errors.New("revert"))

	t.ErrorIs(t.subject.BuyItem(mockCtx, buyer, nftContract, tokenId, big.NewInt(100)), domain.ErrTokenTransferFailed)

	_, err := t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)

	earnings, err := t.ledgerRepo.GetEarnings(mockCtx, ledger.EarningsId{Beneficiary: seller, PayToken: domain.EmptyAddress})
	t.NoError(err)
	t.Equal(int64(0), earnings.Int64())
}

func (t *settlementTestsuite) TestBuyItemWithToken() {
	t.listWithToken(200, false)
	t.mockPayout.On("PullErc20", mock.Anything, payToken, buyer, big.NewInt(200)).Return(nil)
	t.mockPayout.On("TransferErc721", mock.Anything, nftContract, seller, buyer, big.NewInt(7)).Return(nil)

	t.ErrorIs(t.subject.BuyItemWithToken(mockCtx, buyer, nftContract, tokenId, domain.Address("0xcc"), big.NewInt(200)), domain.ErrInvalidItemToken)
	t.NoError(t.subject.BuyItemWithToken(mockCtx, buyer, nftContract, tokenId, payToken, big.NewInt(200)))

	earnings, err := t.ledgerRepo.GetEarnings(mockCtx, ledger.EarningsId{Beneficiary: seller, PayToken: payToken})
	t.NoError(err)
	t.Equal(big.NewInt(198), earnings)

	fees, err := t.ledgerRepo.GetFees(mockCtx, payToken)
	t.NoError(err)
	t.Equal(big.NewInt(2), fees)
}

func (t *settlementTestsuite) TestBuyItemWithTokenRefundsOnNftFailure() {
	t.listWithToken(200, false)
	t.mockPayout.On("PullErc20", mock.Anything, payToken, buyer, big.NewInt(200)).Return(nil)
	t.mockPayout.On("TransferErc721", mock.Anything, nftContract, seller, buyer, big.NewInt(7)).Return(errors.New("revert"))
	t.mockPayout.On("TransferErc20", mock.Anything, payToken, buyer, big.NewInt(200)).Return(nil)

	t.ErrorIs(t.subject.BuyItemWithToken(mockCtx, buyer, nftContract, tokenId, payToken, big.NewInt(200)), domain.ErrTokenTransferFailed)

	t.mockPayout.AssertCalled(t.T(), "TransferErc20", mock.Anything, payToken, buyer, big.NewInt(200))

	_, err := t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
}

func (t *settlementTestsuite) TestAcceptOffer() {
	t.listNative(1000)
	t.placeOffer(500, t.now.Add(time.Hour))
	t.mockPayout.On("PullErc20", mock.Anything, payToken, buyer, big.NewInt(500)).Return(nil)
	t.mockPayout.On("TransferErc721", mock.Anything, nftContract, seller, buyer, big.NewInt(7)).Return(nil)

	t.ErrorIs(t.subject.AcceptOffer(mockCtx, buyer, buyer, nftContract, tokenId), domain.ErrNotOwner)
	t.ErrorIs(t.subject.AcceptOffer(mockCtx, seller, seller, nftContract, tokenId), domain.ErrOfferDoesNotExist)
	t.NoError(t.subject.AcceptOffer(mockCtx, seller, buyer, nftContract, tokenId))

	// proceeds are credited in the offer's token
	earnings, err := t.ledgerRepo.GetEarnings(mockCtx, ledger.EarningsId{Beneficiary: seller, PayToken: payToken})
	t.NoError(err)
	t.Equal(big.NewInt(495), earnings)

	fees, err := t.ledgerRepo.GetFees(mockCtx, payToken)
	t.NoError(err)
	t.Equal(big.NewInt(5), fees)

	_, err = t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.ErrorIs(err, domain.ErrNotFound)
	_, err = t.offerRepo.FindOne(mockCtx, offer.Id{Offeror: buyer, NftContract: nftContract, TokenId: tokenId})
	t.ErrorIs(err, domain.ErrNotFound)
}

func (t *settlementTestsuite) TestAcceptExpiredOffer() {
	t.listNative(1000)
	t.placeOffer(500, t.now.Add(-time.Minute))

	t.ErrorIs(t.subject.AcceptOffer(mockCtx, seller, buyer, nftContract, tokenId), domain.ErrOfferExpired)
}

func (t *settlementTestsuite) TestAcceptOfferRefundsOnNftFailure() {
	t.listNative(1000)
	t.placeOffer(500, t.now.Add(time.Hour))
	t.mockPayout.On("PullErc20", mock.Anything, payToken, buyer, big.NewInt(500)).Return(nil)
	t.mockPayout.On("TransferErc721", mock.Anything, nftContract, seller, buyer, big.NewInt(7)).Return(errors.New("revert"))
	t.mockPayout.On("TransferErc20", mock.Anything, payToken, buyer, big.NewInt(500)).Return(nil)

	t.ErrorIs(t.subject.AcceptOffer(mockCtx, seller, buyer, nftContract, tokenId), domain.ErrTokenTransferFailed)

	t.mockPayout.AssertCalled(t.T(), "TransferErc20", mock.Anything, payToken, buyer, big.NewInt(500))

	// both the listing and the offer survive the aborted settlement
	_, err := t.listingRepo.FindOne(mockCtx, listing.Id{NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
	_, err = t.offerRepo.FindOne(mockCtx, offer.Id{Offeror: buyer, NftContract: nftContract, TokenId: tokenId})
	t.NoError(err)
}

func TestSplitProceeds(t *testing.T) {
	for _, tc := range []struct {
		amount   int64
		earnings int64
		fee      int64
	}{
		{100, 99, 1},
		{101, 99, 1},
		{199, 197, 1},
		{1, 0, 0},
		{10000, 9900, 100},
	} {
		earnings, fee := marketplace.SplitProceeds(big.NewInt(tc.amount), 1, 100)
		if earnings.Int64() != tc.earnings || fee.Int64() != tc.fee {
			t.Errorf("split %d: got (%s, %s), want (%d, %d)", tc.amount, earnings, fee, tc.earnings, tc.fee)
		}
	}
}
