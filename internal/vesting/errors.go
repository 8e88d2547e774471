package vesting

import "errors"

var (
	ErrUnauthorized   = errors.New("caller is not allowed")
	ErrNothingDue     = errors.New("no tokens are due")
	ErrNotRevocable   = errors.New("schedule is not revocable")
	ErrAlreadyRevoked = errors.New("schedule already revoked")
	ErrInvalidConfig  = errors.New("invalid vesting configuration")
)
