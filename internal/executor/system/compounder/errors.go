package compounder

import "github.com/pkg/errors"

var (
	ErrZeroAmount         = errors.New("amount must be greater than zero")
	ErrZeroAddress        = errors.New("zero address")
	ErrZeroShares         = errors.New("operation would mint or burn zero shares")
	ErrZeroAssets         = errors.New("operation would pay zero assets")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInconsistentPool   = errors.New("wrapper has shares but no vault shares")
	ErrInvalidSlippage    = errors.New("max slippage out of range")
	ErrInvalidSwapPath    = errors.New("swap path must start with the reward token and end with the asset")
	ErrNoSwapPath         = errors.New("no quotable swap path")
	ErrAlreadyInitialized = errors.New("wrapper already initialized")
	ErrNotInitialized     = errors.New("wrapper not initialized")
)
