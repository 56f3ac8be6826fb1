package usecase

import (
	"math/big"
	"time"

	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/ledger"
	"github.com/unit-xyz/goapi/domain/marketplace"
	"github.com/unit-xyz/goapi/service/payout"
)

type LedgerUseCaseCfg struct {
	LedgerRepo ledger.Repo
	Payout     payout.Service
	Emitter    marketplace.Emitter
	// FeeAdministrator is the single identity allowed to withdraw fees
	FeeAdministrator domain.Address
	Now              func() time.Time
}

type impl struct {
	ledgerRepo ledger.Repo
	payout     payout.Service
	emitter    marketplace.Emitter
	feeAdmin   domain.Address
	now        func() time.Time
}

func New(cfg *LedgerUseCaseCfg) ledger.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &impl{
		ledgerRepo: cfg.LedgerRepo,
		payout:     cfg.Payout,
		emitter:    cfg.Emitter,
		feeAdmin:   cfg.FeeAdministrator.ToLower(),
		now:        now,
	}
}

func (im *impl) GetEarnings(ctx bCtx.Ctx, id ledger.EarningsId) (*big.Int, error) {
	return im.ledgerRepo.GetEarnings(ctx, id)
}

func (im *impl) GetFees(ctx bCtx.Ctx, payToken domain.Address) (*big.Int, error) {
	return im.ledgerRepo.GetFees(ctx, payToken)
}

// WithdrawEarnings clears the caller's balance before issuing the
// external transfer, so a concurrent call on the same row observes
// zero. The balance is restored only if the transfer fails.
func (im *impl) WithdrawEarnings(ctx bCtx.Ctx, caller domain.Address, payToken domain.Address) (*big.Int, error) {
	id := ledger.EarningsId{Beneficiary: caller, PayToken: payToken}
	amount, err := im.ledgerRepo.TakeEarnings(ctx, id)
	if err != nil {
		ctx.WithField("err", err).Error("ledgerRepo.TakeEarnings failed")
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, domain.ErrZeroEarnings
	}
	if err := im.transfer(ctx, payToken, caller, amount); err != nil {
		if creditErr := im.ledgerRepo.AddEarnings(ctx, id, amount); creditErr != nil {
			ctx.WithField("err", creditErr).Error("ledgerRepo.AddEarnings restore failed")
		}
		return nil, err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:     marketplace.EventEarningsWithdrawn,
		Account:  caller.ToLower(),
		PayToken: payToken.ToLower(),
		Amount:   amount.String(),
		Time:     im.now(),
	})
	return amount, nil
}

func (im *impl) WithdrawFees(ctx bCtx.Ctx, caller domain.Address, payToken domain.Address) (*big.Int, error) {
	if !caller.Equals(im.feeAdmin) {
		return nil, domain.ErrNotFeeAdministrator
	}
	amount, err := im.ledgerRepo.TakeFees(ctx, payToken)
	if err != nil {
		ctx.WithField("err", err).Error("ledgerRepo.TakeFees failed")
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, domain.ErrZeroFees
	}
	if err := im.transfer(ctx, payToken, im.feeAdmin, amount); err != nil {
		if creditErr := im.ledgerRepo.AddFees(ctx, payToken, amount); creditErr != nil {
			ctx.WithField("err", creditErr).Error("ledgerRepo.AddFees restore failed")
		}
		return nil, err
	}

	im.emitter.Emit(ctx, &marketplace.Event{
		Type:     marketplace.EventFeesWithdrawn,
		Account:  caller.ToLower(),
		PayToken: payToken.ToLower(),
		Amount:   amount.String(),
		Time:     im.now(),
	})
	return amount, nil
}

func (im *impl) transfer(ctx bCtx.Ctx, payToken, to domain.Address, amount *big.Int) error {
	if payToken.IsNative() {
		if err := im.payout.TransferNative(ctx, to, amount); err != nil {
			ctx.WithFields(log.Fields{
				"err":    err,
				"to":     to,
				"amount": amount.String(),
			}).Error("payout.TransferNative failed")
			return domain.ErrNativeTransferFailed
		}
		return nil
	}
	if err := im.payout.TransferErc20(ctx, payToken, to, amount); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"payToken": payToken,
			"to":       to,
			"amount":   amount.String(),
		}).Error("payout.TransferErc20 failed")
		return domain.ErrTokenTransferFailed
	}
	return nil
}
