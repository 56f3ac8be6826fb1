package http

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/delivery"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/account"
	"github.com/unit-xyz/goapi/domain/ledger"
	"github.com/unit-xyz/goapi/domain/listing"
	"github.com/unit-xyz/goapi/domain/marketplace"
	"github.com/unit-xyz/goapi/domain/offer"
	"github.com/unit-xyz/goapi/middleware"
	authMiddleware "github.com/unit-xyz/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	listing     listing.UseCase
	offer       offer.UseCase
	marketplace marketplace.UseCase
	ledger      ledger.UseCase
	activity    account.ActivityHistoryRepo
}

func New(
	e *echo.Echo,
	listingUC listing.UseCase,
	offerUC offer.UseCase,
	marketplaceUC marketplace.UseCase,
	ledgerUC ledger.UseCase,
	activity account.ActivityHistoryRepo,
	am *authMiddleware.AuthMiddleware,
) {
	h := &handler{listingUC, offerUC, marketplaceUC, ledgerUC, activity}

	g := e.Group("/marketplace")

	g.GET("/listing/:contract/:tokenId", h.getListing, middleware.CacheHttp(15*time.Second))
	g.GET("/offer/:offeror/:contract/:tokenId", h.getOffer, middleware.CacheHttp(15*time.Second))
	g.GET("/earnings/:beneficiary/:payToken", h.getEarnings, middleware.CacheHttp(15*time.Second))
	g.GET("/fees/:payToken", h.getFees, middleware.CacheHttp(15*time.Second))
	g.GET("/activities", h.getActivities, middleware.CacheHttp(30*time.Second))

	item := g.Group("/listing/:contract/:tokenId", am.Auth())
	item.POST("", h.listItem)
	item.DELETE("", h.unlistItem)
	item.PATCH("/price", h.updateItemPrice)
	item.PATCH("/seller", h.updateItemSeller)
	item.PATCH("/deadline", h.extendItemDeadline)
	item.POST("/auction/enable", h.enableAuction)
	item.POST("/auction/disable", h.disableAuction)
	item.POST("/buy", h.buyItem)

	of := g.Group("/offer/:contract/:tokenId", am.Auth())
	of.POST("", h.createOffer)
	of.DELETE("", h.removeOffer)
	of.PATCH("/deadline", h.extendOfferDeadline)
	of.POST("/accept", h.acceptOffer)

	g.POST("/earnings/withdraw", h.withdrawEarnings, am.Auth())
	g.POST("/fees/withdraw", h.withdrawFees, am.Auth(), am.IsFeeAdmin())
}

// statusOf buckets domain sentinels for MakeJsonResp. Anything
// unrecognized is an internal failure.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrItemNotListed),
		errors.Is(err, domain.ErrOfferDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotFeeAdministrator),
		errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrItemListed),
		errors.Is(err, domain.ErrPendingOffer),
		errors.Is(err, domain.ErrNoUpdateRequired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotApprovedToSpendNFT),
		errors.Is(err, domain.ErrNotApprovedToSpendToken),
		errors.Is(err, domain.ErrZeroAddress),
		errors.Is(err, domain.ErrInsufficientAmount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDeadline),
		errors.Is(err, domain.ErrDeadlineLessThanMinimum),
		errors.Is(err, domain.ErrInvalidItemToken),
		errors.Is(err, domain.ErrItemPriceInEth),
		errors.Is(err, domain.ErrItemPriceInToken),
		errors.Is(err, domain.ErrItemInAuction),
		errors.Is(err, domain.ErrCannotBuyOwnNFT),
		errors.Is(err, domain.ErrCannotCreateOfferOnOwnItem),
		errors.Is(err, domain.ErrListingExpired),
		errors.Is(err, domain.ErrOfferExpired),
		errors.Is(err, domain.ErrZeroEarnings),
		errors.Is(err, domain.ErrZeroFees):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func itemId(c echo.Context) listing.Id {
	return listing.Id{
		NftContract: domain.Address(c.Param("contract")),
		TokenId:     domain.TokenId(c.Param("tokenId")),
	}
}

func caller(c echo.Context) domain.Address {
	return c.Get("address").(domain.Address)
}

func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

func (h *handler) getListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.listing.GetListing(ctx, itemId(c))
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id := offer.Id{
		Offeror:     domain.Address(c.Param("offeror")),
		NftContract: domain.Address(c.Param("contract")),
		TokenId:     domain.TokenId(c.Param("tokenId")),
	}

	res, err := h.offer.GetOffer(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getEarnings(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id := ledger.EarningsId{
		Beneficiary: domain.Address(c.Param("beneficiary")),
		PayToken:    domain.Address(c.Param("payToken")),
	}

	res, err := h.ledger.GetEarnings(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res.String())
}

func (h *handler) getFees(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.ledger.GetFees(ctx, domain.Address(c.Param("payToken")))
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res.String())
}

func (h *handler) getActivities(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Contract *domain.Address `query:"contract"`
		TokenId  *domain.TokenId `query:"tokenId"`
		Account  *domain.Address `query:"account"`
		Offset   int32           `query:"offset"`
		Limit    int32           `query:"limit"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []account.ActivityHistoryFindAllOptionsFunc{
		account.ActivityHistoryWithPagination(p.Offset, p.Limit),
	}
	if p.Contract != nil {
		opts = append(opts, account.ActivityHistoryWithContract(*p.Contract))
	}
	if p.TokenId != nil {
		opts = append(opts, account.ActivityHistoryWithTokenId(*p.TokenId))
	}
	if p.Account != nil {
		opts = append(opts, account.ActivityHistoryWithAccount(*p.Account))
	}

	items, err := h.activity.FindAll(ctx, opts...)
	if err != nil && err != domain.ErrNotFound {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}

	count, err := h.activity.Count(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}

	res := struct {
		Items []*account.ActivityHistory `json:"items"`
		Count int                        `json:"count"`
	}{items, count}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) listItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		PayToken     domain.Address `json:"payToken"`
		Price        string         `json:"price"`
		AuctionMode  bool           `json:"auctionMode"`
		DeadlineSecs uint64         `json:"deadlineSecs"`
		// Signature, when present, lists on behalf of its signer
		Signature string `json:"signature"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	price, ok := parseAmount(p.Price)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid price")
	}

	id := itemId(c)
	var (
		res *listing.Listing
		err error
	)
	switch {
	case p.Signature != "" && p.PayToken.IsEmpty():
		res, err = h.listing.ListItemWithPermit(ctx, id.NftContract, id.TokenId, price, p.DeadlineSecs, p.Signature)
	case p.Signature != "":
		res, err = h.listing.ListItemWithTokenWithPermit(ctx, id.NftContract, id.TokenId, p.PayToken, price, p.AuctionMode, p.DeadlineSecs, p.Signature)
	case p.PayToken.IsEmpty():
		res, err = h.listing.ListItem(ctx, caller(c), id.NftContract, id.TokenId, price, p.DeadlineSecs)
	default:
		res, err = h.listing.ListItemWithToken(ctx, caller(c), id.NftContract, id.TokenId, p.PayToken, price, p.AuctionMode, p.DeadlineSecs)
	}
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) unlistItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	if err := h.listing.UnlistItem(ctx, caller(c), itemId(c)); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) updateItemPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Price string `json:"price"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	price, ok := parseAmount(p.Price)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid price")
	}

	if err := h.listing.UpdateItemPrice(ctx, caller(c), itemId(c), price); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) updateItemSeller(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		NewSeller domain.Address `json:"newSeller"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.listing.UpdateItemSeller(ctx, caller(c), itemId(c), p.NewSeller); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) extendItemDeadline(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		ExtraSecs uint64 `json:"extraSecs"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.listing.ExtendItemDeadline(ctx, caller(c), itemId(c), time.Duration(p.ExtraSecs)*time.Second); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) enableAuction(c echo.Context) error {
	return h.setAuction(c, true)
}

func (h *handler) disableAuction(c echo.Context) error {
	return h.setAuction(c, false)
}

func (h *handler) setAuction(c echo.Context, enable bool) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		// Price of zero keeps the current price
		Price string `json:"price"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	price := big.NewInt(0)
	if p.Price != "" {
		parsed, ok := parseAmount(p.Price)
		if !ok {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid price")
		}
		price = parsed
	}

	var err error
	if enable {
		err = h.listing.EnableAuction(ctx, caller(c), itemId(c), price)
	} else {
		err = h.listing.DisableAuction(ctx, caller(c), itemId(c), price)
	}
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) buyItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		PayToken domain.Address `json:"payToken"`
		Amount   string         `json:"amount"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	amount, ok := parseAmount(p.Amount)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	id := itemId(c)
	var err error
	if p.PayToken.IsEmpty() {
		err = h.marketplace.BuyItem(ctx, caller(c), id.NftContract, id.TokenId, amount)
	} else {
		err = h.marketplace.BuyItemWithToken(ctx, caller(c), id.NftContract, id.TokenId, p.PayToken, amount)
	}
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) createOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		PayToken     domain.Address `json:"payToken"`
		Amount       string         `json:"amount"`
		DeadlineSecs uint64         `json:"deadlineSecs"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	amount, ok := parseAmount(p.Amount)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	id := itemId(c)
	res, err := h.offer.CreateOffer(ctx, caller(c), id.NftContract, id.TokenId, p.PayToken, amount, p.DeadlineSecs)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) removeOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id := itemId(c)
	if err := h.offer.RemoveOffer(ctx, caller(c), id.NftContract, id.TokenId); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) extendOfferDeadline(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		ExtraSecs uint64 `json:"extraSecs"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	id := itemId(c)
	if err := h.offer.ExtendOfferDeadline(ctx, caller(c), id.NftContract, id.TokenId, time.Duration(p.ExtraSecs)*time.Second); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) acceptOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Offeror domain.Address `json:"offeror"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	id := itemId(c)
	if err := h.marketplace.AcceptOffer(ctx, caller(c), p.Offeror, id.NftContract, id.TokenId); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) withdrawEarnings(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		PayToken domain.Address `json:"payToken"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	amount, err := h.ledger.WithdrawEarnings(ctx, caller(c), p.PayToken)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, amount.String())
}

func (h *handler) withdrawFees(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		PayToken domain.Address `json:"payToken"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	amount, err := h.ledger.WithdrawFees(ctx, caller(c), p.PayToken)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, amount.String())
}
