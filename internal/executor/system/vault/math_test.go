package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	testcases := []struct {
		x, y, d  int64
		rounding Rounding
		want     int64
	}{
		{x: 10, y: 3, d: 4, rounding: Floor, want: 7},
		{x: 10, y: 3, d: 4, rounding: Ceil, want: 8},
		{x: 10, y: 4, d: 5, rounding: Floor, want: 8},
		{x: 10, y: 4, d: 5, rounding: Ceil, want: 8},
		{x: 0, y: 4, d: 5, rounding: Ceil, want: 0},
		{x: 1, y: 1, d: 3, rounding: Floor, want: 0},
		{x: 1, y: 1, d: 3, rounding: Ceil, want: 1},
	}
	for _, tc := range testcases {
		got := MulDiv(big.NewInt(tc.x), big.NewInt(tc.y), big.NewInt(tc.d), tc.rounding)
		assert.EqualValues(t, tc.want, got.Int64(), "%d*%d/%d rounding %d", tc.x, tc.y, tc.d, tc.rounding)
	}

	// intermediate product wider than 256 bits
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	got := MulDiv(huge, huge, huge, Floor)
	assert.Zero(t, huge.Cmp(got))
}

func TestConversion(t *testing.T) {
	t.Run("empty pool is 1:1", func(t *testing.T) {
		shares, err := sharesForAssets(big.NewInt(170), big.NewInt(0), big.NewInt(0), Floor)
		require.Nil(t, err)
		assert.EqualValues(t, 170, shares.Int64())
		assets, err := assetsForShares(big.NewInt(170), big.NewInt(0), big.NewInt(0), Ceil)
		require.Nil(t, err)
		assert.EqualValues(t, 170, assets.Int64())
	})

	t.Run("shares without assets", func(t *testing.T) {
		_, err := sharesForAssets(big.NewInt(1), big.NewInt(10), big.NewInt(0), Floor)
		assert.ErrorIs(t, err, ErrInconsistentPool)
		_, err = assetsForShares(big.NewInt(1), big.NewInt(10), big.NewInt(0), Floor)
		assert.ErrorIs(t, err, ErrInconsistentPool)
	})

	t.Run("rounding direction", func(t *testing.T) {
		// 3 shares backed by 10 assets
		totalShares, totalAssets := big.NewInt(3), big.NewInt(10)

		minted, err := sharesForAssets(big.NewInt(5), totalShares, totalAssets, Floor)
		require.Nil(t, err)
		assert.EqualValues(t, 1, minted.Int64())
		burned, err := sharesForAssets(big.NewInt(5), totalShares, totalAssets, Ceil)
		require.Nil(t, err)
		assert.EqualValues(t, 2, burned.Int64())

		paid, err := assetsForShares(big.NewInt(1), totalShares, totalAssets, Floor)
		require.Nil(t, err)
		assert.EqualValues(t, 3, paid.Int64())
		charged, err := assetsForShares(big.NewInt(1), totalShares, totalAssets, Ceil)
		require.Nil(t, err)
		assert.EqualValues(t, 4, charged.Int64())
	})
}

func TestDepositThenRedeemNeverGains(t *testing.T) {
	pools := [][2]int64{{3, 10}, {7, 3}, {1000, 1001}, {999, 1}, {1, 999}, {300, 300}}
	for _, pool := range pools {
		for _, deposit := range []int64{1, 2, 17, 170, 1000} {
			totalShares, totalAssets := big.NewInt(pool[0]), big.NewInt(pool[1])
			shares, err := sharesForAssets(big.NewInt(deposit), totalShares, totalAssets, Floor)
			require.Nil(t, err)

			totalShares.Add(totalShares, shares)
			totalAssets.Add(totalAssets, big.NewInt(deposit))
			assets, err := assetsForShares(shares, totalShares, totalAssets, Floor)
			require.Nil(t, err)
			assert.LessOrEqual(t, assets.Int64(), deposit, "pool %v deposit %d", pool, deposit)
		}
	}
}

func TestPendingReward(t *testing.T) {
	cumulative := MulDiv(big.NewInt(30), PrecisionFactor, big.NewInt(300), Floor)
	assert.EqualValues(t, 10, pendingReward(cumulative, big.NewInt(0), big.NewInt(100)).Int64())
	assert.EqualValues(t, 20, pendingReward(cumulative, big.NewInt(0), big.NewInt(200)).Int64())
	assert.EqualValues(t, 0, pendingReward(cumulative, cumulative, big.NewInt(200)).Int64())
	assert.EqualValues(t, 0, pendingReward(cumulative, big.NewInt(0), big.NewInt(0)).Int64())
}
