package gateway

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
)

//go:generate mockgen -destination mock_gateway/mock_gateway.go -package mock_gateway -source gateway.go

var (
	ErrNotGateway             = errors.New("contract is not an exchange gateway")
	ErrInvalidPath            = errors.New("invalid swap path")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity")
	ErrInsufficientInput      = errors.New("insufficient input amount")
	ErrInsufficientOutput     = errors.New("insufficient output amount")
	ErrExpired                = errors.New("swap deadline expired")
	ErrIdenticalTokens        = errors.New("identical tokens")
	ErrZeroAddress            = errors.New("zero address")
	ErrNegativeLiquidityValue = errors.New("liquidity amount must be positive")
)

// Gateway quotes and executes token swaps along a path, the instance is bound to the call context it was loaded with
type Gateway interface {
	Address() ethcommon.Address

	// Quote returns the amounts along path for amountIn, amounts[len(path)-1] is the output
	Quote(amountIn *big.Int, path []ethcommon.Address) ([]*big.Int, error)

	// Swap pulls amountIn of path[0] from the caller and sends the output to recipient,
	// it fails when the output is below amountOutMin or the block time is past deadline
	Swap(amountIn, amountOutMin *big.Int, path []ethcommon.Address, recipient ethcommon.Address, deadline uint64) ([]*big.Int, error)
}

// Load returns the gateway registered at addr bound to ctx
func Load(ctx *common.VMContext, addr ethcommon.Address) (Gateway, error) {
	contract, err := ctx.Registry.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}
	gw, ok := contract.(Gateway)
	if !ok {
		return nil, errors.Wrapf(ErrNotGateway, "address %s", addr)
	}
	return gw, nil
}

// RouterLoader registers a Router deployed at addr
func RouterLoader(addr ethcommon.Address) common.ContractLoader {
	return func(ctx *common.VMContext) any {
		return BuildConfig.Build(addr, ctx)
	}
}
