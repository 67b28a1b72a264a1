package gateway

import (
	"bytes"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const (
	PairsStorageKey = "pairs"

	// DefaultFeeRate in basis points
	DefaultFeeRate = 30
)

var _ Gateway = (*Router)(nil)

var BuildConfig = &common.SystemContractBuildConfig[*Router]{
	Name:   loggers.Gateway,
	AbiStr: routerABI,
	Constructor: func(systemContractBase common.SystemContractBase) *Router {
		return &Router{
			SystemContractBase: systemContractBase,
		}
	},
}

type pairKey struct {
	Token0 ethcommon.Address
	Token1 ethcommon.Address
}

// Pair reserves are kept in token0 < token1 order
type Pair struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// Router is a constant product market maker, every pair's reserves are held by the router account
type Router struct {
	common.SystemContractBase

	pairs *common.VMMap[pairKey, Pair]
}

func (r *Router) SetContext(ctx *common.VMContext) {
	r.SystemContractBase.SetContext(ctx)

	r.pairs = common.NewVMMap[pairKey, Pair](r.StateAccount, PairsStorageKey, func(key pairKey) string {
		return fmt.Sprintf("%s_%s", key.Token0, key.Token1)
	})
}

func (r *Router) Address() ethcommon.Address {
	return r.SystemContractBase.Address
}

func sortTokens(tokenA, tokenB ethcommon.Address) (pairKey, bool) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return pairKey{Token0: tokenA, Token1: tokenB}, false
	}
	return pairKey{Token0: tokenB, Token1: tokenA}, true
}

// FeeRate returns the swap fee in basis points
func (r *Router) FeeRate() (uint64, error) {
	if r.Ctx.Config == nil {
		return DefaultFeeRate, nil
	}
	return r.Ctx.Config.Gateway.FeeRate, nil
}

// GetReserves returns the reserves of tokenA and tokenB in argument order
func (r *Router) GetReserves(tokenA, tokenB ethcommon.Address) (*big.Int, *big.Int, error) {
	if tokenA == tokenB {
		return nil, nil, ErrIdenticalTokens
	}
	key, swapped := sortTokens(tokenA, tokenB)
	exist, pair, err := r.pairs.Get(key)
	if err != nil {
		return nil, nil, err
	}
	if !exist {
		return big.NewInt(0), big.NewInt(0), nil
	}
	if swapped {
		return pair.Reserve1, pair.Reserve0, nil
	}
	return pair.Reserve0, pair.Reserve1, nil
}

func (r *Router) setReserves(tokenA, tokenB ethcommon.Address, reserveA, reserveB *big.Int) error {
	key, swapped := sortTokens(tokenA, tokenB)
	if swapped {
		reserveA, reserveB = reserveB, reserveA
	}
	return r.pairs.Put(key, Pair{Reserve0: reserveA, Reserve1: reserveB})
}

// AddLiquidity pulls both amounts from the caller into the pair reserves, liquidity cannot be removed
func (r *Router) AddLiquidity(tokenA, tokenB ethcommon.Address, amountA, amountB *big.Int) error {
	if tokenA == tokenB {
		return ErrIdenticalTokens
	}
	if common.IsZeroAddress(tokenA) || common.IsZeroAddress(tokenB) {
		return ErrZeroAddress
	}
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return ErrNegativeLiquidityValue
	}

	reserveA, reserveB, err := r.GetReserves(tokenA, tokenB)
	if err != nil {
		return err
	}
	if err := r.setReserves(tokenA, tokenB, new(big.Int).Add(reserveA, amountA), new(big.Int).Add(reserveB, amountB)); err != nil {
		return err
	}

	for _, leg := range []struct {
		token  ethcommon.Address
		amount *big.Int
	}{{tokenA, amountA}, {tokenB, amountB}} {
		tk, err := token.Load(r.CrossCallSystemContractContext(), leg.token)
		if err != nil {
			return err
		}
		if _, err := tk.TransferFrom(r.Ctx.From, r.SystemContractBase.Address, leg.amount); err != nil {
			return errors.Wrapf(err, "pull liquidity %s", leg.token)
		}
	}

	key, swapped := sortTokens(tokenA, tokenB)
	amount0, amount1 := amountA, amountB
	if swapped {
		amount0, amount1 = amountB, amountA
	}
	r.EmitEvent(&EventLiquidityAdded{
		Provider: r.Ctx.From,
		Token0:   key.Token0,
		Token1:   key.Token1,
		Amount0:  amount0,
		Amount1:  amount1,
	})
	return nil
}

// getAmountOut applies the fee to amountIn and keeps reserveIn*reserveOut constant
func getAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeRate uint64) *big.Int {
	amountInWithFee := new(big.Int).Mul(amountIn, new(big.Int).SetUint64(repo.BasisPoint-feeRate))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(repo.BasisPoint))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator)
}

func (r *Router) Quote(amountIn *big.Int, path []ethcommon.Address) ([]*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if len(path) < 2 || len(lo.Uniq(path)) != len(path) {
		return nil, errors.Wrapf(ErrInvalidPath, "path %v", path)
	}
	feeRate, err := r.FeeRate()
	if err != nil {
		return nil, err
	}

	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := r.GetReserves(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
			return nil, errors.Wrapf(ErrInsufficientLiquidity, "pair %s/%s", path[i], path[i+1])
		}
		amounts[i+1] = getAmountOut(amounts[i], reserveIn, reserveOut, feeRate)
		if amounts[i+1].Sign() == 0 {
			return nil, errors.Wrapf(ErrInsufficientOutput, "pair %s/%s", path[i], path[i+1])
		}
	}
	return amounts, nil
}

func (r *Router) Swap(amountIn, amountOutMin *big.Int, path []ethcommon.Address, recipient ethcommon.Address, deadline uint64) ([]*big.Int, error) {
	if r.Ctx.BlockTimestamp > deadline {
		return nil, errors.Wrapf(ErrExpired, "deadline %d, now %d", deadline, r.Ctx.BlockTimestamp)
	}
	if common.IsZeroAddress(recipient) {
		return nil, ErrZeroAddress
	}
	amounts, err := r.Quote(amountIn, path)
	if err != nil {
		return nil, err
	}
	amountOut := amounts[len(amounts)-1]
	if amountOutMin != nil && amountOut.Cmp(amountOutMin) < 0 {
		return nil, errors.Wrapf(ErrInsufficientOutput, "out %s, min %s", amountOut, amountOutMin)
	}

	tokenIn, err := token.Load(r.CrossCallSystemContractContext(), path[0])
	if err != nil {
		return nil, err
	}
	if _, err := tokenIn.TransferFrom(r.Ctx.From, r.SystemContractBase.Address, amountIn); err != nil {
		return nil, errors.Wrap(err, "pull input")
	}

	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := r.GetReserves(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		if err := r.setReserves(path[i], path[i+1],
			new(big.Int).Add(reserveIn, amounts[i]),
			new(big.Int).Sub(reserveOut, amounts[i+1]),
		); err != nil {
			return nil, err
		}
	}

	tokenOut, err := token.Load(r.CrossCallSystemContractContext(), path[len(path)-1])
	if err != nil {
		return nil, err
	}
	if _, err := tokenOut.Transfer(recipient, amountOut); err != nil {
		return nil, errors.Wrap(err, "send output")
	}

	r.EmitEvent(&EventSwap{
		Sender:    r.Ctx.From,
		Recipient: recipient,
		TokenIn:   path[0],
		TokenOut:  path[len(path)-1],
		AmountIn:  amountIn,
		AmountOut: amountOut,
	})
	r.Logger.WithFields(logrus.Fields{
		"sender":     r.Ctx.From,
		"recipient":  recipient,
		"path":       path,
		"amount_in":  amountIn,
		"amount_out": amountOut,
	}).Debug("Swap")
	return amounts, nil
}
