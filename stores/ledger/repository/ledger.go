package repository

import (
	"math/big"
	"sync"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/ledger"
)

// ledgerRepoImpl keeps the pull-payment balances. A single mutex
// serializes every row mutation; Take* is the atomic
// check-then-clear step the withdrawal path relies on.
type ledgerRepoImpl struct {
	mu       sync.RWMutex
	earnings map[ledger.EarningsId]*big.Int
	fees     map[domain.Address]*big.Int
}

func NewLedgerRepo() ledger.Repo {
	return &ledgerRepoImpl{
		earnings: map[ledger.EarningsId]*big.Int{},
		fees:     map[domain.Address]*big.Int{},
	}
}

func (im *ledgerRepoImpl) GetEarnings(c ctx.Ctx, id ledger.EarningsId) (*big.Int, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	if bal, ok := im.earnings[id.ToLower()]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (im *ledgerRepoImpl) GetFees(c ctx.Ctx, payToken domain.Address) (*big.Int, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	if bal, ok := im.fees[payToken.ToLower()]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (im *ledgerRepoImpl) AddEarnings(c ctx.Ctx, id ledger.EarningsId, amount *big.Int) error {
	if amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	im.mu.Lock()
	defer im.mu.Unlock()

	key := id.ToLower()
	bal, ok := im.earnings[key]
	if !ok {
		bal = big.NewInt(0)
		im.earnings[key] = bal
	}
	bal.Add(bal, amount)
	return nil
}

func (im *ledgerRepoImpl) AddFees(c ctx.Ctx, payToken domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	im.mu.Lock()
	defer im.mu.Unlock()

	key := payToken.ToLower()
	bal, ok := im.fees[key]
	if !ok {
		bal = big.NewInt(0)
		im.fees[key] = bal
	}
	bal.Add(bal, amount)
	return nil
}

func (im *ledgerRepoImpl) TakeEarnings(c ctx.Ctx, id ledger.EarningsId) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := id.ToLower()
	bal, ok := im.earnings[key]
	if !ok {
		return big.NewInt(0), nil
	}
	delete(im.earnings, key)
	return bal, nil
}

func (im *ledgerRepoImpl) TakeFees(c ctx.Ctx, payToken domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := payToken.ToLower()
	bal, ok := im.fees[key]
	if !ok {
		return big.NewInt(0), nil
	}
	delete(im.fees, key)
	return bal, nil
}
