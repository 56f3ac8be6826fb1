package account

import (
	"time"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
)

// Account is a market participant stored in database, created the first
// time an address signs in.
type Account struct {
	Address   domain.Address `bson:"address"`
	Alias     string         `bson:"alias"`
	Nonce     int32          `bson:"nonce"`
	CreatedAt time.Time      `bson:"createdAt,omitempty"`
	UpdatedAt time.Time      `bson:"updatedAt,omitempty"`
}

type Repo interface {
	Get(ctx ctx.Ctx, address domain.Address) (*Account, error)
	Insert(ctx ctx.Ctx, account *Account) error
}

type Usecase interface {
	Get(ctx ctx.Ctx, address domain.Address) (*Account, error)
	Create(ctx ctx.Ctx, address domain.Address) (*Account, error)
}
