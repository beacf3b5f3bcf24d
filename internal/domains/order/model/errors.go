package model

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotPending    = errors.New("order payment is not pending")
	ErrOrderNotRefundable = errors.New("order payment cannot be refunded")
	ErrOrderNotPaid       = errors.New("order is not paid")
	ErrDuplicateOrderRef  = errors.New("order reference already exists")
)
