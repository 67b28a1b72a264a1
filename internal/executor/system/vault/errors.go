package vault

import "github.com/pkg/errors"

var (
	ErrZeroAmount         = errors.New("amount must be greater than zero")
	ErrZeroAddress        = errors.New("zero address")
	ErrZeroShares         = errors.New("operation would mint or burn zero shares")
	ErrZeroAssets         = errors.New("operation would pay zero assets")
	ErrLocked             = errors.New("funds are locked")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrEmptyPool          = errors.New("no shares to distribute reward to")
	ErrInconsistentPool   = errors.New("pool has shares but no assets")
	ErrInvalidPosition    = errors.New("start position out of range")
	ErrAlreadyInitialized = errors.New("vault already initialized")
	ErrNotInitialized     = errors.New("vault not initialized")
)
