package repository

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/ptr"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/listing"
)

type listingRepoTestsuite struct {
	suite.Suite

	repo listing.Repo
}

func TestListingRepoTestsuite(t *testing.T) {
	suite.Run(t, new(listingRepoTestsuite))
}

func (s *listingRepoTestsuite) SetupTest() {
	s.repo = NewListingRepo()
}

var mockCtx = ctx.Background()

func sampleListing() *listing.Listing {
	return &listing.Listing{
		NftContract: domain.Address("0x00000000000000000000000000000000DeadBeef"),
		TokenId:     domain.TokenId("7"),
		Seller:      domain.Address("0x0000000000000000000000000000000000000B01"),
		PayToken:    domain.EmptyAddress,
		Price:       big.NewInt(1000),
		Deadline:    time.Unix(1700000000, 0),
	}
}

func (s *listingRepoTestsuite) TestFindOneAbsent() {
	_, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *listingRepoTestsuite) TestUpsertLowercasesAddresses() {
	s.Require().NoError(s.repo.Upsert(mockCtx, sampleListing()))

	got, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.NoError(err)
	s.Equal(domain.Address("0x00000000000000000000000000000000deadbeef"), got.NftContract)
	s.Equal(domain.Address("0x0000000000000000000000000000000000000b01"), got.Seller)
}

func (s *listingRepoTestsuite) TestFindOneReturnsCopy() {
	s.Require().NoError(s.repo.Upsert(mockCtx, sampleListing()))

	got, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.Require().NoError(err)
	got.Price.SetInt64(1)
	got.Seller = domain.Address("0x0000000000000000000000000000000000000bad")

	again, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.Require().NoError(err)
	s.Equal(big.NewInt(1000), again.Price)
	s.Equal(domain.Address("0x0000000000000000000000000000000000000b01"), again.Seller)
}

func (s *listingRepoTestsuite) TestUpsertIsolatedFromCaller() {
	l := sampleListing()
	s.Require().NoError(s.repo.Upsert(mockCtx, l))
	l.Price.SetInt64(1)

	got, err := s.repo.FindOne(mockCtx, l.ToId())
	s.Require().NoError(err)
	s.Equal(big.NewInt(1000), got.Price)
}

func (s *listingRepoTestsuite) TestUpdatePatchesOnlySetFields() {
	s.Require().NoError(s.repo.Upsert(mockCtx, sampleListing()))

	newDeadline := time.Unix(1700003600, 0)
	err := s.repo.Update(mockCtx, sampleListing().ToId(), listing.Patchable{
		Price:    big.NewInt(2000),
		Deadline: &newDeadline,
	})
	s.NoError(err)

	got, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.Require().NoError(err)
	s.Equal(big.NewInt(2000), got.Price)
	s.True(got.Deadline.Equal(newDeadline))
	s.Equal(domain.Address("0x0000000000000000000000000000000000000b01"), got.Seller)
	s.False(got.AuctionMode)
}

func (s *listingRepoTestsuite) TestUpdateAuctionMode() {
	s.Require().NoError(s.repo.Upsert(mockCtx, sampleListing()))

	err := s.repo.Update(mockCtx, sampleListing().ToId(), listing.Patchable{
		AuctionMode: ptr.Bool(true),
	})
	s.NoError(err)

	got, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.Require().NoError(err)
	s.True(got.AuctionMode)
}

func (s *listingRepoTestsuite) TestUpdateAbsent() {
	err := s.repo.Update(mockCtx, sampleListing().ToId(), listing.Patchable{
		Price: big.NewInt(2000),
	})
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *listingRepoTestsuite) TestRemove() {
	s.Require().NoError(s.repo.Upsert(mockCtx, sampleListing()))
	s.NoError(s.repo.Remove(mockCtx, sampleListing().ToId()))

	_, err := s.repo.FindOne(mockCtx, sampleListing().ToId())
	s.ErrorIs(err, domain.ErrNotFound)

	s.ErrorIs(s.repo.Remove(mockCtx, sampleListing().ToId()), domain.ErrNotFound)
}
