package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/account"
	mockRepo "github.com/unit-xyz/goapi/domain/account/mocks"
	"github.com/unit-xyz/goapi/domain/marketplace"
)

type notifierTestsuite struct {
	suite.Suite

	activityHistoryRepo *mockRepo.ActivityHistoryRepo
	notifier            Notifier
}

func TestNotifierTestsuite(t *testing.T) {
	suite.Run(t, new(notifierTestsuite))
}

func (s *notifierTestsuite) SetupTest() {
	s.activityHistoryRepo = &mockRepo.ActivityHistoryRepo{}
	s.notifier = New(&NotifierCfg{
		ActivityHistoryRepo: s.activityHistoryRepo,
	})
}

func (s *notifierTestsuite) TearDownTest() {
	s.notifier.Close()
}

var mockCtx = ctx.Background()

func (s *notifierTestsuite) TestEmitJournalsAndFansOut() {
	journaled := make(chan *account.ActivityHistory, 1)
	s.activityHistoryRepo.
		On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			journaled <- args.Get(1).(*account.ActivityHistory)
		}).
		Return(nil)

	received := make(chan *marketplace.Event, 1)
	s.notifier.Subscribe(func(ev *marketplace.Event) {
		received <- ev
	})

	ev := &marketplace.Event{
		Type:        marketplace.EventItemBought,
		NftContract: domain.Address("0x0000000000000000000000000000000000000a01"),
		TokenId:     domain.TokenId("7"),
		Account:     domain.Address("0x0000000000000000000000000000000000000b01"),
		To:          domain.Address("0x0000000000000000000000000000000000000b02"),
		PayToken:    domain.EmptyAddress,
		Amount:      "1500000000000000000",
	}
	s.notifier.Emit(mockCtx, ev)

	select {
	case activity := <-journaled:
		s.Equal(ev.Id, activity.EventId)
		s.Equal(marketplace.EventItemBought, activity.Type)
		s.Equal(ev.NftContract, activity.ContractAddress)
		s.Equal(ev.Account, activity.Account)
		s.Equal("1500000000000000000", activity.Price)
		s.Equal("1.5", activity.DisplayPrice)
	case <-time.After(3 * time.Second):
		s.FailNow("activity was not journaled")
	}

	select {
	case got := <-received:
		s.Equal(ev.Id, got.Id)
		s.NotEmpty(got.Id)
		s.False(got.Time.IsZero())
	case <-time.After(3 * time.Second):
		s.FailNow("subscriber was not notified")
	}
}

func (s *notifierTestsuite) TestEmitKeepsPresetIdAndTime() {
	s.activityHistoryRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	received := make(chan *marketplace.Event, 1)
	s.notifier.Subscribe(func(ev *marketplace.Event) {
		received <- ev
	})

	at := time.Unix(1700000000, 0)
	s.notifier.Emit(mockCtx, &marketplace.Event{
		Id:      "fixed-id",
		Type:    marketplace.EventItemListed,
		Account: domain.Address("0x0000000000000000000000000000000000000b01"),
		Time:    at,
	})

	select {
	case got := <-received:
		s.Equal("fixed-id", got.Id)
		s.True(got.Time.Equal(at))
	case <-time.After(3 * time.Second):
		s.FailNow("subscriber was not notified")
	}
}

func (s *notifierTestsuite) TestJournalFailureDoesNotBlockSubscribers() {
	s.activityHistoryRepo.
		On("Insert", mock.Anything, mock.Anything).
		Return(domain.ErrNotFound)

	received := make(chan *marketplace.Event, 1)
	s.notifier.Subscribe(func(ev *marketplace.Event) {
		received <- ev
	})

	s.notifier.Emit(mockCtx, &marketplace.Event{
		Type:    marketplace.EventOfferCreated,
		Account: domain.Address("0x0000000000000000000000000000000000000b01"),
	})

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		s.FailNow("subscriber was not notified")
	}
}
