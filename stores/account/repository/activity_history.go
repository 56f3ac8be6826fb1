package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/account"
	"github.com/unit-xyz/goapi/service/query"
)

func makeFindQuery(optFns ...account.ActivityHistoryFindAllOptionsFunc) (bson.M, error) {
	opts, err := account.GetActivityHistoryFindAllOptions(optFns...)
	if err != nil {
		return nil, err
	}

	qry := bson.M{}

	if opts.Account != nil {
		qry["$or"] = bson.A{
			bson.M{"account": *opts.Account},
			bson.M{"to": *opts.Account},
		}
	}

	if opts.Contract != nil {
		qry["contractAddress"] = *opts.Contract
	}

	if opts.TokenId != nil {
		qry["tokenId"] = *opts.TokenId
	}

	return qry, nil
}

type activityHistoryRepo struct {
	q query.Mongo
}

func NewActivityHistoryRepo(q query.Mongo) account.ActivityHistoryRepo {
	return &activityHistoryRepo{q: q}
}

func (r *activityHistoryRepo) Insert(ctx bCtx.Ctx, a *account.ActivityHistory) error {
	if err := r.q.Insert(ctx, domain.TableActivityHistories, a); err != nil {
		ctx.WithFields(log.Fields{
			"activityHistory": a,
			"err":             err,
		}).Error("q.Insert failed")
		return err
	}
	return nil
}

func (r *activityHistoryRepo) FindAll(c bCtx.Ctx, optFns ...account.ActivityHistoryFindAllOptionsFunc) ([]*account.ActivityHistory, error) {
	opts, err := account.GetActivityHistoryFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("account.GetActivityHistoryFindAllOptions failed")
		return nil, err
	}

	qry, err := makeFindQuery(optFns...)
	if err != nil {
		c.WithField("err", err).Error("makeFindQuery failed")
		return nil, err
	}

	offset := 0
	limit := 0

	if opts.Offset != nil {
		offset = int(*opts.Offset)
	}

	if opts.Limit != nil {
		limit = int(*opts.Limit)
	}

	res := []*account.ActivityHistory{}

	err = r.q.Search(c, domain.TableActivityHistories, offset, limit, "-time", qry, &res)

	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).WithField("query", qry).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (r *activityHistoryRepo) Count(c bCtx.Ctx, optFns ...account.ActivityHistoryFindAllOptionsFunc) (int, error) {
	qry, err := makeFindQuery(optFns...)
	if err != nil {
		c.WithField("err", err).Error("makeFindQuery failed")
		return 0, err
	}

	cnt, err := r.q.Count(c, domain.TableActivityHistories, qry)
	if err != nil {
		c.WithField("err", err).WithField("query", qry).Error("q.Count failed")
		return 0, err
	}

	return cnt, nil
}
