package model

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrReturnNotFound  = errors.New("order return not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidStatus   = errors.New("invalid status value")
)
