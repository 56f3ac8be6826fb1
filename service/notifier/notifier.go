package notifier

import (
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"

	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/metrics"
	"github.com/unit-xyz/goapi/domain/account"
	"github.com/unit-xyz/goapi/domain/marketplace"
)

// Subscriber receives every published event. Callbacks run on the
// notifier's worker pool, not the emitting goroutine.
type Subscriber func(ev *marketplace.Event)

type Notifier interface {
	marketplace.Emitter
	Subscribe(sub Subscriber)
	Close()
}

type NotifierCfg struct {
	ActivityHistoryRepo account.ActivityHistoryRepo
	// DisplayDecimals scales raw amounts for the journaled display
	// price; 18 covers the native coin and most payment tokens
	DisplayDecimals int32
	PoolSize        int
}

type impl struct {
	activityHistoryRepo account.ActivityHistoryRepo
	displayDecimals     int32
	workerPool          *goroutines.Pool
	met                 metrics.Service

	mu          sync.RWMutex
	subscribers []Subscriber
}

func New(cfg *NotifierCfg) Notifier {
	decimals := cfg.DisplayDecimals
	if decimals == 0 {
		decimals = 18
	}
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 32
	}
	return &impl{
		activityHistoryRepo: cfg.ActivityHistoryRepo,
		displayDecimals:     decimals,
		workerPool:          goroutines.NewPool(poolSize, goroutines.WithTaskQueueLength(1024)),
		met:                 metrics.New("notifier"),
	}
}

func (im *impl) Subscribe(sub Subscriber) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.subscribers = append(im.subscribers, sub)
}

// Emit journals the event and fans it out. Called after the state
// change committed; journal or subscriber failures are logged, never
// propagated back into the settled operation.
func (im *impl) Emit(ctx bCtx.Ctx, ev *marketplace.Event) {
	if ev.Id == "" {
		ev.Id = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	im.met.BumpSum("event.emit", 1, "type", string(ev.Type))

	activity := im.toActivityHistory(ev)
	im.mu.RLock()
	subs := make([]Subscriber, len(im.subscribers))
	copy(subs, im.subscribers)
	im.mu.RUnlock()

	if err := im.workerPool.ScheduleWithTimeout(3*time.Second, func() {
		if err := im.activityHistoryRepo.Insert(ctx, activity); err != nil {
			ctx.WithField("err", err).Error("activityHistoryRepo.Insert failed")
			im.met.BumpSum("event.journal.err", 1)
		}
		for _, sub := range subs {
			sub(ev)
		}
	}); err != nil {
		ctx.WithField("err", err).Warn("notifier pool saturated, dropping dispatch")
		im.met.BumpSum("event.drop", 1)
	}
}

func (im *impl) Close() {
	im.workerPool.Release()
}

func (im *impl) toActivityHistory(ev *marketplace.Event) *account.ActivityHistory {
	displayPrice := ""
	if ev.Amount != "" {
		if raw, ok := new(big.Int).SetString(ev.Amount, 10); ok {
			displayPrice = decimal.NewFromBigInt(raw, -im.displayDecimals).String()
		}
	}
	return &account.ActivityHistory{
		EventId:         ev.Id,
		Type:            ev.Type,
		ContractAddress: ev.NftContract,
		TokenId:         ev.TokenId,
		Account:         ev.Account,
		To:              ev.To,
		PayToken:        ev.PayToken,
		Price:           ev.Amount,
		DisplayPrice:    displayPrice,
		Time:            ev.Time,
	}
}
