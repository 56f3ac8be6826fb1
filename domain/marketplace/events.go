package marketplace

import (
	"time"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/domain"
)

type EventType string

const (
	EventItemListed           EventType = "ItemListed"
	EventItemUnlisted         EventType = "ItemUnlisted"
	EventItemSellerUpdated    EventType = "ItemSellerUpdated"
	EventItemPriceUpdated     EventType = "ItemPriceUpdated"
	EventItemDeadlineExtended EventType = "ItemDeadlineExtended"
	EventItemAuctionEnabled   EventType = "ItemAuctionEnabled"
	EventItemAuctionDisabled  EventType = "ItemAuctionDisabled"
	EventItemBought           EventType = "ItemBought"

	EventOfferCreated          EventType = "OfferCreated"
	EventOfferRemoved          EventType = "OfferRemoved"
	EventOfferDeadlineExtended EventType = "OfferDeadlineExtended"
	EventOfferAccepted         EventType = "OfferAccepted"

	EventEarningsWithdrawn EventType = "EarningsWithdrawn"
	EventFeesWithdrawn     EventType = "FeesWithdrawn"
)

// Event is the notification record carried by every state-changing
// operation. Identifying keys are always set; the remaining fields are
// filled with whatever the operation changed.
type Event struct {
	Id          string         `json:"id" bson:"id"`
	Type        EventType      `json:"type" bson:"type"`
	NftContract domain.Address `json:"nftContract,omitempty" bson:"nftContract,omitempty"`
	TokenId     domain.TokenId `json:"tokenId,omitempty" bson:"tokenId,omitempty"`
	// Account is the acting party (seller, offeror, buyer or withdrawer)
	Account domain.Address `json:"account" bson:"account"`
	// To is the counterparty where one exists (buyer on ItemBought,
	// offeror on OfferAccepted, new seller on ItemSellerUpdated)
	To          domain.Address `json:"to,omitempty" bson:"to,omitempty"`
	PayToken    domain.Address `json:"payToken" bson:"payToken"`
	Amount      string         `json:"amount,omitempty" bson:"amount,omitempty"`
	AuctionMode *bool          `json:"auctionMode,omitempty" bson:"auctionMode,omitempty"`
	OldDeadline *time.Time     `json:"oldDeadline,omitempty" bson:"oldDeadline,omitempty"`
	NewDeadline *time.Time     `json:"newDeadline,omitempty" bson:"newDeadline,omitempty"`
	Time        time.Time      `json:"time" bson:"time"`
}

// Emitter publishes one event per committed state change. Emission
// happens after the mutation, never before.
type Emitter interface {
	Emit(ctx ctx.Ctx, ev *Event)
}
