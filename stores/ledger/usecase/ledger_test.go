package usecase

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/ledger"
	mockMarketplace "github.com/unit-xyz/goapi/domain/marketplace/mocks"
	mockPayout "github.com/unit-xyz/goapi/service/payout/mocks"
	ledgerRepository "github.com/unit-xyz/goapi/stores/ledger/repository"
)

var mockCtx = ctx.Background()

const (
	beneficiary = domain.Address("0x0000000000000000000000000000000000000001")
	feeAdmin    = domain.Address("0x0000000000000000000000000000000000000009")
	payToken    = domain.Address("0x00000000000000000000000000000000000000bb")
)

type ledgerTestsuite struct {
	suite.Suite
	repo        ledger.Repo
	mockPayout  *mockPayout.Service
	mockEmitter *mockMarketplace.Emitter
	subject     ledger.UseCase
}

func TestLedgerUseCase(t *testing.T) {
	suite.Run(t, new(ledgerTestsuite))
}

func (t *ledgerTestsuite) SetupTest() {
	t.repo = ledgerRepository.NewLedgerRepo()
	t.mockPayout = &mockPayout.Service{}
	t.mockEmitter = &mockMarketplace.Emitter{}
	t.mockEmitter.On("Emit", mock.Anything, mock.Anything).Return()
	t.subject = New(&LedgerUseCaseCfg{
		LedgerRepo:       t.repo,
		Payout:           t.mockPayout,
		Emitter:          t.mockEmitter,
		FeeAdministrator: feeAdmin,
		Now:              func() time.Time { return time.Unix(1700000000, 0) },
	})
}

func (t *ledgerTestsuite) TestWithdrawEarningsOnce() {
	id := ledger.EarningsId{Beneficiary: beneficiary, PayToken: payToken}
	t.Require().NoError(t.repo.AddEarnings(mockCtx, id, big.NewInt(99)))
	t.mockPayout.On("TransferErc20", mock.Anything, payToken, beneficiary, big.NewInt(99)).Return(nil)

	amount, err := t.subject.WithdrawEarnings(mockCtx, beneficiary, payToken)
	t.NoError(err)
	t.Equal(big.NewInt(99), amount)

	// the balance is zeroed, a second withdrawal has nothing to take
	_, err = t.subject.WithdrawEarnings(mockCtx, beneficiary, payToken)
	t.ErrorIs(err, domain.ErrZeroEarnings)
	t.mockPayout.AssertNumberOfCalls(t.T(), "TransferErc20", 1)
}

func (t *ledgerTestsuite) TestWithdrawEarningsNative() {
	id := ledger.EarningsId{Beneficiary: beneficiary, PayToken: domain.EmptyAddress}
	t.Require().NoError(t.repo.AddEarnings(mockCtx, id, big.NewInt(50)))
	t.mockPayout.On("TransferNative", mock.Anything, beneficiary, big.NewInt(50)).Return(nil)

	amount, err := t.subject.WithdrawEarnings(mockCtx, beneficiary, domain.EmptyAddress)
	t.NoError(err)
	t.Equal(big.NewInt(50), amount)
}

func (t *ledgerTestsuite) TestWithdrawEarningsRestoredOnTransferFailure() {
	id := ledger.EarningsId{Beneficiary: beneficiary, PayToken: payToken}
	t.Require().NoError(t.repo.AddEarnings(mockCtx, id, big.NewInt(99)))
	t.mockPayout.On("TransferErc20", mock.Anything, payToken, beneficiary, big.NewInt(99)).Return(errors.New("revert"))

	_, err := t.subject.WithdrawEarnings(mockCtx, beneficiary, payToken)
	t.ErrorIs(err, domain.ErrTokenTransferFailed)

	balance, err := t.repo.GetEarnings(mockCtx, id)
	t.NoError(err)
	t.Equal(big.NewInt(99), balance)
}

func (t *ledgerTestsuite) TestWithdrawEarningsNativeFailure() {
	id := ledger.EarningsId{Beneficiary: beneficiary, PayToken: domain.EmptyAddress}
	t.Require().NoError(t.repo.AddEarnings(mockCtx, id, big.NewInt(50)))
	t.mockPayout.On("TransferNative", mock.Anything, beneficiary, big.NewInt(50)).Return(errors.New("revert"))

	_, err := t.subject.WithdrawEarnings(mockCtx, beneficiary, domain.EmptyAddress)
	t.ErrorIs(err, domain.ErrNativeTransferFailed)

	balance, err := t.repo.GetEarnings(mockCtx, id)
	t.NoError(err)
	t.Equal(big.NewInt(50), balance)
}

func (t *ledgerTestsuite) TestWithdrawFees() {
	t.Require().NoError(t.repo.AddFees(mockCtx, payToken, big.NewInt(7)))
	t.mockPayout.On("TransferErc20", mock.Anything, payToken, feeAdmin, big.NewInt(7)).Return(nil)

	_, err := t.subject.WithdrawFees(mockCtx, beneficiary, payToken)
	t.ErrorIs(err, domain.ErrNotFeeAdministrator)

	amount, err := t.subject.WithdrawFees(mockCtx, feeAdmin, payToken)
	t.NoError(err)
	t.Equal(big.NewInt(7), amount)

	_, err = t.subject.WithdrawFees(mockCtx, feeAdmin, payToken)
	t.ErrorIs(err, domain.ErrZeroFees)
}
