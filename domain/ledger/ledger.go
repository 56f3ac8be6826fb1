package ledger

import (
	"math/big"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
)

// EarningsId is one pull-payment ledger row.
type EarningsId struct {
	Beneficiary domain.Address `json:"beneficiary" bson:"beneficiary"`
	// PayToken is domain.EmptyAddress for native-currency earnings
	PayToken domain.Address `json:"payToken" bson:"payToken"`
}

func (id EarningsId) ToLower() EarningsId {
	return EarningsId{
		Beneficiary: id.Beneficiary.ToLower(),
		PayToken:    id.PayToken.ToLower(),
	}
}

// Repo keeps the earnings and fee balances. Balances never go negative;
// Take* atomically zeroes a row and returns what it held, so concurrent
// withdrawals of the same row observe zero.
type Repo interface {
	GetEarnings(ctx ctx.Ctx, id EarningsId) (*big.Int, error)
	GetFees(ctx ctx.Ctx, payToken domain.Address) (*big.Int, error)
	AddEarnings(ctx ctx.Ctx, id EarningsId, amount *big.Int) error
	AddFees(ctx ctx.Ctx, payToken domain.Address, amount *big.Int) error
	TakeEarnings(ctx ctx.Ctx, id EarningsId) (*big.Int, error)
	TakeFees(ctx ctx.Ctx, payToken domain.Address) (*big.Int, error)
}

type UseCase interface {
	GetEarnings(ctx ctx.Ctx, id EarningsId) (*big.Int, error)
	GetFees(ctx ctx.Ctx, payToken domain.Address) (*big.Int, error)
	WithdrawEarnings(ctx ctx.Ctx, caller domain.Address, payToken domain.Address) (*big.Int, error)
	// WithdrawFees is restricted to the configured fee administrator.
	WithdrawFees(ctx ctx.Ctx, caller domain.Address, payToken domain.Address) (*big.Int, error)
}
