package compounder

import (
	"math/big"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/gateway"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/internal/executor/system/vault"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const defaultQuoteAttempts = 3

// AutoCompound harvests the vault rewards owed to the wrapper, swaps them into the asset
// and deposits the proceeds back into the vault, anyone may call it
func (w *Wrapper) AutoCompound() (*big.Int, error) {
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Exit()

	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	if err := v.ClaimAllRewards(w.Address); err != nil {
		return nil, errors.Wrap(err, "claim vault rewards")
	}

	asset, err := w.Asset()
	if err != nil {
		return nil, err
	}
	assetToken, err := w.assetToken()
	if err != nil {
		return nil, err
	}
	threshold, err := w.MinimumClaimThreshold()
	if err != nil {
		return nil, err
	}
	rewardTokens, err := v.RewardTokens()
	if err != nil {
		return nil, err
	}

	// asset already sitting in the wrapper, including leftovers of previous passes
	total, err := assetToken.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 || total.Cmp(threshold) < 0 {
		total = big.NewInt(0)
	}

	swapCount := 0
	for _, rewardAddr := range lo.Without(rewardTokens, asset) {
		rewardToken, err := token.Load(w.CrossCallSystemContractContext(), rewardAddr)
		if err != nil {
			return nil, err
		}
		balance, err := rewardToken.BalanceOf(w.Address)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 || balance.Cmp(threshold) < 0 {
			continue
		}

		var obtained *big.Int
		if err := common.Try(w.Ctx, func() error {
			var swapErr error
			obtained, swapErr = w.swapReward(rewardToken, rewardAddr, asset, balance)
			return swapErr
		}); err != nil {
			failedSwapCounter.WithLabelValues(rewardAddr.String()).Inc()
			w.Logger.WithFields(logrus.Fields{
				"token":  rewardAddr,
				"amount": balance,
				"err":    err,
			}).Warn("Swap reward failed, skip it")
			continue
		}
		total.Add(total, obtained)
		swapCount++
	}

	reinvested := big.NewInt(0)
	if total.Sign() > 0 {
		vaultShares, err := v.PreviewDeposit(total)
		if err != nil {
			return nil, err
		}
		if vaultShares.Sign() > 0 {
			if _, err := assetToken.Approve(v.Address, total); err != nil {
				return nil, err
			}
			if _, err := v.Deposit(total, w.Address); err != nil {
				return nil, errors.Wrap(err, "reinvest")
			}
			reinvested = total
		}
	}

	w.EmitEvent(&EventAutoCompound{
		TotalReinvested: reinvested,
		SwapCount:       big.NewInt(int64(swapCount)),
	})
	compoundCounter.Inc()
	reinvestedFloat, _ := new(big.Float).SetInt(reinvested).Float64()
	reinvestedGauge.Set(reinvestedFloat)
	w.Logger.WithFields(logrus.Fields{
		"reinvested": reinvested,
		"swap_count": swapCount,
	}).Info("Auto compound")
	return reinvested, nil
}

// swapReward sells amount of a reward token for the asset and returns the asset actually received
func (w *Wrapper) swapReward(rewardToken token.IToken, rewardAddr, asset ethcommon.Address, amount *big.Int) (*big.Int, error) {
	gatewayAddr, err := w.Gateway()
	if err != nil {
		return nil, err
	}
	gw, err := gateway.Load(w.CrossCallSystemContractContext(), gatewayAddr)
	if err != nil {
		return nil, err
	}
	path, quote, err := w.resolvePath(gw, rewardAddr, asset, amount)
	if err != nil {
		return nil, err
	}
	slippage, err := w.MaxSlippage()
	if err != nil {
		return nil, err
	}
	minOut := vault.MulDiv(quote, new(big.Int).SetUint64(repo.BasisPoint-slippage), big.NewInt(repo.BasisPoint), vault.Floor)
	deadline, err := w.SwapDeadline()
	if err != nil {
		return nil, err
	}

	assetToken, err := w.assetToken()
	if err != nil {
		return nil, err
	}
	before, err := assetToken.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	if _, err := rewardToken.Approve(gw.Address(), amount); err != nil {
		return nil, err
	}
	if _, err := gw.Swap(amount, minOut, path, w.Address, w.Ctx.BlockTimestamp+deadline); err != nil {
		return nil, err
	}
	after, err := assetToken.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	obtained := new(big.Int).Sub(after, before)
	if obtained.Sign() < 0 {
		obtained = big.NewInt(0)
	}

	w.EmitEvent(&EventTokenSwapped{
		From:      rewardAddr,
		To:        asset,
		AmountIn:  amount,
		AmountOut: obtained,
	})
	swapCounter.Inc()
	w.Logger.WithFields(logrus.Fields{
		"token":      rewardAddr,
		"path":       path,
		"amount_in":  amount,
		"min_out":    minOut,
		"amount_out": obtained,
	}).Debug("Reward swapped")
	return obtained, nil
}

// candidatePaths lists the routes tried in order: the configured path, a hop through
// the intermediate token, then the direct pair
func (w *Wrapper) candidatePaths(rewardAddr, asset ethcommon.Address) ([][]ethcommon.Address, error) {
	var candidates [][]ethcommon.Address
	explicit, err := w.SwapPath(rewardAddr)
	if err != nil {
		return nil, err
	}
	if len(explicit) != 0 {
		candidates = append(candidates, explicit)
	}
	intermediate, err := w.IntermediateToken()
	if err != nil {
		return nil, err
	}
	if !common.IsZeroAddress(intermediate) && intermediate != rewardAddr && intermediate != asset {
		candidates = append(candidates, []ethcommon.Address{rewardAddr, intermediate, asset})
	}
	return append(candidates, []ethcommon.Address{rewardAddr, asset}), nil
}

// resolvePath returns the first candidate path the gateway can quote together with its quoted output
func (w *Wrapper) resolvePath(gw gateway.Gateway, rewardAddr, asset ethcommon.Address, amount *big.Int) ([]ethcommon.Address, *big.Int, error) {
	candidates, err := w.candidatePaths(rewardAddr, asset)
	if err != nil {
		return nil, nil, err
	}

	attempts, wait := uint(defaultQuoteAttempts), time.Duration(0)
	if w.Ctx.Config != nil {
		if w.Ctx.Config.Compounder.QuoteAttempts > 0 {
			attempts = w.Ctx.Config.Compounder.QuoteAttempts
		}
		wait = w.Ctx.Config.Compounder.QuoteRetryWait.ToDuration()
	}

	for _, path := range candidates {
		var amounts []*big.Int
		if err := retry.Retry(func(attempt uint) error {
			var quoteErr error
			amounts, quoteErr = gw.Quote(amount, path)
			return quoteErr
		}, strategy.Limit(attempts), strategy.Wait(wait)); err != nil {
			w.Logger.WithFields(logrus.Fields{
				"token": rewardAddr,
				"path":  path,
				"err":   err,
			}).Debug("Quote swap path failed")
			continue
		}
		if len(amounts) != len(path) || amounts[len(amounts)-1] == nil || amounts[len(amounts)-1].Sign() == 0 {
			continue
		}
		return path, amounts[len(amounts)-1], nil
	}
	return nil, nil, errors.Wrapf(ErrNoSwapPath, "token %s", rewardAddr)
}

// ClaimUserRewards pays the caller a share proportional slice of the asset currently held by the wrapper.
// It approximates the caller's rewards, it does not track what each holder accrued.
func (w *Wrapper) ClaimUserRewards() (*big.Int, error) {
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Exit()

	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	if err := v.ClaimAllRewards(w.Address); err != nil {
		return nil, errors.Wrap(err, "claim vault rewards")
	}

	caller := w.Ctx.From
	shares, err := w.shares.BalanceOf(caller)
	if err != nil {
		return nil, err
	}
	supply, err := w.shares.TotalSupply()
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 || supply.Sign() == 0 {
		return big.NewInt(0), nil
	}

	asset, err := w.Asset()
	if err != nil {
		return nil, err
	}
	assetToken, err := token.Load(w.CrossCallSystemContractContext(), asset)
	if err != nil {
		return nil, err
	}
	balance, err := assetToken.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	amount := vault.MulDiv(balance, shares, supply, vault.Floor)
	if amount.Sign() == 0 {
		return amount, nil
	}
	if _, err := assetToken.Transfer(caller, amount); err != nil {
		return nil, err
	}

	w.EmitEvent(&EventRewardClaimed{
		User:   caller,
		Token:  asset,
		Amount: amount,
	})
	return amount, nil
}
