package model

import "errors"

var (
	ErrUnsupportedMethod = errors.New("payment method not supported for initiation")
	ErrTotalMismatch     = errors.New("submitted total does not match cart total")
	ErrGatewayInit       = errors.New("payment gateway initiation failed")
	ErrInvalidSignature  = errors.New("callback signature verification failed")
	ErrUnknownOrderRef   = errors.New("callback references unknown order")
	ErrAmountMismatch    = errors.New("callback amount does not match order amount")
	ErrDuplicateCallback = errors.New("callback already processed")
	ErrMalformedCallback = errors.New("callback payload is malformed")
)
