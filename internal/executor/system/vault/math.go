package vault

import (
	"math/big"
)

type Rounding int

const (
	Floor Rounding = iota
	Ceil
)

// PrecisionFactor scales the cumulative reward per share
var PrecisionFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MulDiv returns x*y/denominator rounded in the given direction, denominator must be positive
func MulDiv(x, y, denominator *big.Int, rounding Rounding) *big.Int {
	product := new(big.Int).Mul(x, y)
	quo, rem := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if rounding == Ceil && rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}

// sharesForAssets converts assets into shares at the pool rate, 1:1 for an empty pool
func sharesForAssets(assets, totalShares, totalAssets *big.Int, rounding Rounding) (*big.Int, error) {
	if totalShares.Sign() == 0 {
		return new(big.Int).Set(assets), nil
	}
	if totalAssets.Sign() == 0 {
		return nil, ErrInconsistentPool
	}
	return MulDiv(assets, totalShares, totalAssets, rounding), nil
}

// assetsForShares converts shares into assets at the pool rate, 1:1 for an empty pool
func assetsForShares(shares, totalShares, totalAssets *big.Int, rounding Rounding) (*big.Int, error) {
	if totalShares.Sign() == 0 {
		return new(big.Int).Set(shares), nil
	}
	if totalAssets.Sign() == 0 {
		return nil, ErrInconsistentPool
	}
	return MulDiv(shares, totalAssets, totalShares, rounding), nil
}

// pendingReward is (cumulative - lastClaimed) * shares / 1e18
func pendingReward(cumulative, lastClaimed, shares *big.Int) *big.Int {
	delta := new(big.Int).Sub(cumulative, lastClaimed)
	if delta.Sign() <= 0 || shares.Sign() == 0 {
		return big.NewInt(0)
	}
	return MulDiv(delta, shares, PrecisionFactor, Floor)
}
