package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/account"
	mockAccount "github.com/unit-xyz/goapi/domain/account/mocks"
)

type accountTestsuite struct {
	suite.Suite

	repo    *mockAccount.Repo
	usecase account.Usecase
}

func TestAccountTestsuite(t *testing.T) {
	suite.Run(t, new(accountTestsuite))
}

func (s *accountTestsuite) SetupTest() {
	s.repo = &mockAccount.Repo{}
	s.usecase = New(&AccountUseCaseCfg{Repo: s.repo})
}

var mockCtx = ctx.Background()

const mixedCaseAddress = domain.Address("0x00000000000000000000000000000000DeadBeef")

func (s *accountTestsuite) TestGet() {
	want := &account.Account{Address: mixedCaseAddress.ToLower(), Nonce: 42}
	s.repo.On("Get", mock.Anything, mixedCaseAddress).Return(want, nil)

	a, err := s.usecase.Get(mockCtx, mixedCaseAddress)
	s.NoError(err)
	s.Equal(want, a)
}

func (s *accountTestsuite) TestGetNotFound() {
	s.repo.On("Get", mock.Anything, mixedCaseAddress).Return(nil, domain.ErrNotFound)

	_, err := s.usecase.Get(mockCtx, mixedCaseAddress)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *accountTestsuite) TestCreateFirstSignIn() {
	s.repo.On("Get", mock.Anything, mixedCaseAddress).Return(nil, domain.ErrNotFound)
	s.repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	a, err := s.usecase.Create(mockCtx, mixedCaseAddress)
	s.NoError(err)
	s.Equal(mixedCaseAddress.ToLower(), a.Address)
	s.True(a.Nonce >= 0 && a.Nonce < nonceRange)
	s.False(a.CreatedAt.IsZero())
	s.repo.AssertCalled(s.T(), "Insert", mock.Anything, a)
}

func (s *accountTestsuite) TestCreateRepeatedSignIn() {
	existing := &account.Account{
		Address:   mixedCaseAddress.ToLower(),
		Nonce:     7,
		CreatedAt: time.Unix(1700000000, 0),
	}
	s.repo.On("Get", mock.Anything, mixedCaseAddress).Return(existing, nil)

	a, err := s.usecase.Create(mockCtx, mixedCaseAddress)
	s.NoError(err)
	s.Equal(existing, a)
	s.repo.AssertNotCalled(s.T(), "Insert", mock.Anything, mock.Anything)
}
