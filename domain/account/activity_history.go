package account

import (
	"time"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/marketplace"
)

// ActivityHistory is the journaled form of a marketplace notification
// event: an audit trail of every state change, queryable per item or
// per account.
type ActivityHistory struct {
	EventId         string                `json:"eventId" bson:"eventId"`
	Type            marketplace.EventType `json:"type" bson:"type"`
	ContractAddress domain.Address        `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId        `json:"tokenId" bson:"tokenId"`
	Account         domain.Address        `json:"account" bson:"account"`
	To              domain.Address        `json:"to" bson:"to"`
	PayToken        domain.Address        `json:"paymentToken" bson:"paymentToken"`
	Price           string                `json:"price" bson:"price"`
	DisplayPrice    string                `json:"displayPrice" bson:"displayPrice"`
	Time            time.Time             `json:"time" bson:"time"`
}

type ActivityHistoryFindAllOptions struct {
	Contract *domain.Address
	TokenId  *domain.TokenId
	Account  *domain.Address
	Offset   *int32
	Limit    *int32
}

type ActivityHistoryFindAllOptionsFunc func(*ActivityHistoryFindAllOptions) error

func GetActivityHistoryFindAllOptions(opts ...ActivityHistoryFindAllOptionsFunc) (ActivityHistoryFindAllOptions, error) {
	res := ActivityHistoryFindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func ActivityHistoryWithContract(contract domain.Address) ActivityHistoryFindAllOptionsFunc {
	return func(options *ActivityHistoryFindAllOptions) error {
		options.Contract = contract.ToLowerPtr()
		return nil
	}
}

func ActivityHistoryWithTokenId(tokenId domain.TokenId) ActivityHistoryFindAllOptionsFunc {
	return func(options *ActivityHistoryFindAllOptions) error {
		options.TokenId = &tokenId
		return nil
	}
}

func ActivityHistoryWithAccount(account domain.Address) ActivityHistoryFindAllOptionsFunc {
	return func(options *ActivityHistoryFindAllOptions) error {
		options.Account = account.ToLowerPtr()
		return nil
	}
}

func ActivityHistoryWithPagination(offset, limit int32) ActivityHistoryFindAllOptionsFunc {
	return func(options *ActivityHistoryFindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

type ActivityHistoryRepo interface {
	Insert(ctx ctx.Ctx, activity *ActivityHistory) error
	FindAll(ctx ctx.Ctx, opts ...ActivityHistoryFindAllOptionsFunc) ([]*ActivityHistory, error)
	Count(ctx ctx.Ctx, opts ...ActivityHistoryFindAllOptionsFunc) (int, error)
}
