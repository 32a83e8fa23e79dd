package pos

import "errors"

// Common errors returned by the session
var (
	ErrEmptyCode = errors.New("no product code entered")
	ErrEmptyCart = errors.New("cart is empty, nothing to purchase")
	ErrNoProduct = errors.New("no resolved product to add")
	ErrBusy      = errors.New("a purchase is in progress")
)
