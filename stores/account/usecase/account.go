package usecase

import (
	"math/rand"
	"time"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/account"
)

const nonceRange = int32(9999999)

type AccountUseCaseCfg struct {
	Repo account.Repo
}

type impl struct {
	repo account.Repo
}

// New creates account usecase
func New(cfg *AccountUseCaseCfg) account.Usecase {
	return &impl{
		repo: cfg.Repo,
	}
}

func (im *impl) Get(c ctx.Ctx, address domain.Address) (*account.Account, error) {
	a, err := im.repo.Get(c, address)
	if err != nil {
		if err != domain.ErrNotFound {
			c.WithFields(log.Fields{
				"address": address,
				"err":     err,
			}).Error("repo.Get failed")
		}
		return nil, err
	}
	return a, nil
}

// Create registers the address if unseen, otherwise returns the
// existing record. Signing in twice must not fail.
func (im *impl) Create(c ctx.Ctx, address domain.Address) (*account.Account, error) {
	a, err := im.repo.Get(c, address)
	if err == nil {
		return a, nil
	}
	if err != domain.ErrNotFound {
		c.WithField("err", err).Error("repo.Get failed")
		return nil, err
	}

	now := time.Now()
	a = &account.Account{
		Address:   address.ToLower(),
		Nonce:     rand.Int31n(nonceRange),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := im.repo.Insert(c, a); err != nil {
		c.WithField("err", err).Error("repo.Insert failed")
		return nil, err
	}
	return a, nil
}
