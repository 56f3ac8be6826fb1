package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")

	// request error
	ErrInvalidAddress   = errors.New("Invalid address")
	ErrInvalidSignature = errors.New("Invalid signature")

	// authorization
	ErrNotOwner                = errors.New("not owner")
	ErrNotApprovedToSpendNFT   = errors.New("not approved to spend nft")
	ErrNotApprovedToSpendToken = errors.New("not approved to spend token")
	ErrNotFeeAdministrator     = errors.New("not fee administrator")

	// state conflicts
	ErrItemListed        = errors.New("item already listed")
	ErrItemNotListed     = errors.New("item not listed")
	ErrOfferDoesNotExist = errors.New("offer does not exist")
	ErrNoUpdateRequired  = errors.New("no update required")
	ErrPendingOffer      = errors.New("pending offer exists")

	// validation
	ErrZeroAddress                = errors.New("zero address")
	ErrInsufficientAmount         = errors.New("insufficient amount")
	ErrInvalidAmount              = errors.New("invalid amount")
	ErrInvalidDeadline            = errors.New("invalid deadline")
	ErrDeadlineLessThanMinimum    = errors.New("deadline less than minimum")
	ErrInvalidItemToken           = errors.New("invalid item token")
	ErrItemPriceInEth             = errors.New("item price in eth")
	ErrItemPriceInToken           = errors.New("item price in token")
	ErrItemInAuction              = errors.New("item in auction")
	ErrCannotBuyOwnNFT            = errors.New("cannot buy own nft")
	ErrCannotCreateOfferOnOwnItem = errors.New("cannot create offer on own item")

	// temporal
	ErrListingExpired = errors.New("listing expired")
	ErrOfferExpired   = errors.New("offer expired")

	// settlement
	ErrTokenTransferFailed  = errors.New("token transfer failed")
	ErrNativeTransferFailed = errors.New("native transfer failed")
	ErrZeroEarnings         = errors.New("zero earnings")
	ErrZeroFees             = errors.New("zero fees")
)
