package token

import "github.com/pkg/errors"

var (
	ErrNegativeValue         = errors.New("value below zero")
	ErrZeroAddress           = errors.New("zero address")
	ErrInsufficientBalance   = errors.New("value exceeds balance")
	ErrInsufficientAllowance = errors.New("not enough allowance")
	ErrTotalSupply           = errors.New("total supply below zero")
	ErrAlreadyInitialized    = errors.New("token already initialized")
	ErrNotFungibleToken      = errors.New("contract at address is not a fungible token")
)
