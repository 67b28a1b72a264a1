package vault

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
)

// UnlockBatchSize bounds the reward streams settled by a single Unlock call
const UnlockBatchSize = 10

func (v *Vault) RewardTokens() ([]ethcommon.Address, error) {
	return v.rewardTokens.GetOrDefault([]ethcommon.Address{})
}

// RewardPerShare returns the cumulative reward per share of tokenAddr scaled by 1e18
func (v *Vault) RewardPerShare(tokenAddr ethcommon.Address) (*big.Int, error) {
	exist, stream, err := v.rewardStreams.Get(tokenAddr)
	if err != nil {
		return nil, err
	}
	if !exist {
		return big.NewInt(0), nil
	}
	return stream.CumulativePerShare, nil
}

func (v *Vault) LastClaimed(user, tokenAddr ethcommon.Address) (*big.Int, error) {
	return v.lastClaimed.GetOrDefault(claimKey{User: user, Token: tokenAddr}, big.NewInt(0))
}

// AddReward distributes amount of tokenAddr over the current share supply and pulls it from the caller
func (v *Vault) AddReward(tokenAddr ethcommon.Address, amount *big.Int) error {
	if err := v.CheckOwner(); err != nil {
		return err
	}
	if common.IsZeroAddress(tokenAddr) {
		return errors.Wrap(ErrZeroAddress, "reward token")
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	totalShares, err := v.shares.TotalSupply()
	if err != nil {
		return err
	}
	if totalShares.Sign() == 0 {
		return ErrEmptyPool
	}

	exist, stream, err := v.rewardStreams.Get(tokenAddr)
	if err != nil {
		return err
	}
	if !exist {
		tokens, err := v.RewardTokens()
		if err != nil {
			return err
		}
		if err := v.rewardTokens.Put(append(tokens, tokenAddr)); err != nil {
			return err
		}
		stream = RewardStream{CumulativePerShare: big.NewInt(0), Exists: true}
	}
	// up to totalShares-1 units per call stay in the vault unassigned
	perShare := MulDiv(amount, PrecisionFactor, totalShares, Floor)
	stream.CumulativePerShare = new(big.Int).Add(stream.CumulativePerShare, perShare)
	if err := v.rewardStreams.Put(tokenAddr, stream); err != nil {
		return err
	}

	rewardToken, err := token.Load(v.CrossCallSystemContractContext(), tokenAddr)
	if err != nil {
		return err
	}
	if _, err := rewardToken.TransferFrom(v.Ctx.From, v.Address, amount); err != nil {
		return errors.Wrap(err, "pull reward")
	}

	v.EmitEvent(&EventRewardAdded{
		Token:              tokenAddr,
		Amount:             amount,
		CumulativePerShare: stream.CumulativePerShare,
	})
	rewardAddedCounter.WithLabelValues(tokenAddr.String()).Inc()
	v.Logger.WithFields(logrus.Fields{
		"token":                tokenAddr,
		"amount":               amount,
		"cumulative_per_share": stream.CumulativePerShare,
	}).Info("Reward added")
	return nil
}

// GetClaimableReward returns 0 for unregistered tokens
func (v *Vault) GetClaimableReward(user, tokenAddr ethcommon.Address) (*big.Int, error) {
	exist, stream, err := v.rewardStreams.Get(tokenAddr)
	if err != nil {
		return nil, err
	}
	if !exist {
		return big.NewInt(0), nil
	}
	last, err := v.LastClaimed(user, tokenAddr)
	if err != nil {
		return nil, err
	}
	shares, err := v.shares.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	return pendingReward(stream.CumulativePerShare, last, shares), nil
}

// ClaimAllRewards pays every pending reward of user to user, anyone may trigger it
func (v *Vault) ClaimAllRewards(user ethcommon.Address) error {
	return v.claimAll(user)
}

func (v *Vault) ClaimSpecificsReward(user ethcommon.Address, tokens []ethcommon.Address) error {
	for _, tokenAddr := range tokens {
		if err := v.claim(user, tokenAddr); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) claimAll(user ethcommon.Address) error {
	tokens, err := v.RewardTokens()
	if err != nil {
		return err
	}
	for _, tokenAddr := range tokens {
		if err := v.claim(user, tokenAddr); err != nil {
			return err
		}
	}
	return nil
}

// claim moves the user's counter to the current cumulative value before paying out
func (v *Vault) claim(user, tokenAddr ethcommon.Address) error {
	exist, stream, err := v.rewardStreams.Get(tokenAddr)
	if err != nil {
		return err
	}
	if !exist {
		return nil
	}
	amount, err := v.GetClaimableReward(user, tokenAddr)
	if err != nil {
		return err
	}
	if err := v.lastClaimed.Put(claimKey{User: user, Token: tokenAddr}, stream.CumulativePerShare); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}

	rewardToken, err := token.Load(v.CrossCallSystemContractContext(), tokenAddr)
	if err != nil {
		return err
	}
	if _, err := rewardToken.Transfer(user, amount); err != nil {
		return errors.Wrapf(err, "pay reward %s", tokenAddr)
	}

	v.EmitEvent(&EventRewardClaimed{
		User:   user,
		Token:  tokenAddr,
		Amount: amount,
	})
	rewardClaimedCounter.WithLabelValues(tokenAddr.String()).Inc()
	v.Logger.WithFields(logrus.Fields{
		"user":   user,
		"token":  tokenAddr,
		"amount": amount,
	}).Debug("Reward claimed")
	return nil
}

// Unlock settles at most UnlockBatchSize reward streams of the caller starting at startPosition,
// then withdraws amount to the caller when it is non-zero. The page only bounds a claim-only call:
// a non-zero amount goes through the regular withdrawal, which settles every stream.
func (v *Vault) Unlock(startPosition uint64, amount *big.Int) error {
	caller := v.Ctx.From
	if err := v.checkUnlocked(caller); err != nil {
		return err
	}
	tokens, err := v.RewardTokens()
	if err != nil {
		return err
	}
	if startPosition > uint64(len(tokens)) {
		return errors.Wrapf(ErrInvalidPosition, "position %d, %d reward tokens", startPosition, len(tokens))
	}
	end := startPosition + UnlockBatchSize
	if end > uint64(len(tokens)) {
		end = uint64(len(tokens))
	}
	for _, tokenAddr := range tokens[startPosition:end] {
		if err := v.claim(caller, tokenAddr); err != nil {
			return err
		}
	}

	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrZeroAmount
	}
	shares, err := v.PreviewWithdraw(amount)
	if err != nil {
		return err
	}
	return v.withdraw(caller, caller, caller, amount, shares)
}
