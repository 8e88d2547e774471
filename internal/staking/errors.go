package staking

import "errors"

var (
	ErrInvalidAmount         = errors.New("stake amount must be positive")
	ErrUnknownPackage        = errors.New("unknown staking package")
	ErrStakingPaused         = errors.New("staking is paused")
	ErrStakeNotFound         = errors.New("stake not found")
	ErrStakeLocked           = errors.New("stake is still locked")
	ErrStakeAlreadyWithdrawn = errors.New("stake already withdrawn")
	ErrUnauthorized          = errors.New("caller lacks required role")
)
