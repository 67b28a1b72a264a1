package vault

import (
	"fmt"
	"math"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
)

const (
	AssetStorageKey         = "asset"
	LockPeriodStorageKey    = "lockPeriod"
	TotalAssetsStorageKey   = "totalAssets"
	NameStorageKey          = "name"
	SymbolStorageKey        = "symbol"
	DecimalsStorageKey      = "decimals"
	SharesStorageNamespace  = "share_"
	UsersStorageKey         = "users"
	RewardTokensStorageKey  = "rewardTokens"
	RewardStreamsStorageKey = "rewardStreams"
	LastClaimedStorageKey   = "lastClaimed"

	storageVersion = 1
)

var _ token.IToken = (*Vault)(nil)

var BuildConfig = &common.SystemContractBuildConfig[*Vault]{
	Name:   loggers.Vault,
	AbiStr: vaultABI,
	Constructor: func(systemContractBase common.SystemContractBase) *Vault {
		return &Vault{
			SystemContractBase: systemContractBase,
		}
	},
}

// UserInfo is created on the first deposit and never removed
type UserInfo struct {
	LockStart uint64
	Exists    bool
}

type RewardStream struct {
	// scaled by PrecisionFactor
	CumulativePerShare *big.Int
	Exists             bool
}

type claimKey struct {
	User  ethcommon.Address
	Token ethcommon.Address
}

// Vault pools one asset, issues transferable shares against it and distributes
// any number of reward tokens to share holders
type Vault struct {
	common.SystemContractBase

	asset       *common.VMSlot[ethcommon.Address]
	lockPeriod  *common.VMSlot[uint64]
	totalAssets *common.VMSlot[*big.Int]
	name        *common.VMSlot[string]
	symbol      *common.VMSlot[string]
	decimals    *common.VMSlot[uint8]
	shares      *token.BalanceBook

	users         *common.VMMap[ethcommon.Address, UserInfo]
	rewardTokens  *common.VMSlot[[]ethcommon.Address]
	rewardStreams *common.VMMap[ethcommon.Address, RewardStream]
	lastClaimed   *common.VMMap[claimKey, *big.Int]
}

func (v *Vault) SetContext(ctx *common.VMContext) {
	v.SystemContractBase.SetContext(ctx)

	v.asset = common.NewVMSlot[ethcommon.Address](v.StateAccount, AssetStorageKey)
	v.lockPeriod = common.NewVMSlot[uint64](v.StateAccount, LockPeriodStorageKey)
	v.totalAssets = common.NewVMSlot[*big.Int](v.StateAccount, TotalAssetsStorageKey)
	v.name = common.NewVMSlot[string](v.StateAccount, NameStorageKey)
	v.symbol = common.NewVMSlot[string](v.StateAccount, SymbolStorageKey)
	v.decimals = common.NewVMSlot[uint8](v.StateAccount, DecimalsStorageKey)
	v.shares = token.NewBalanceBook(v.StateAccount, SharesStorageNamespace, v.EmitEvent)
	v.users = common.NewVMMap[ethcommon.Address, UserInfo](v.StateAccount, UsersStorageKey, func(key ethcommon.Address) string {
		return key.String()
	})
	v.rewardTokens = common.NewVMSlot[[]ethcommon.Address](v.StateAccount, RewardTokensStorageKey)
	v.rewardStreams = common.NewVMMap[ethcommon.Address, RewardStream](v.StateAccount, RewardStreamsStorageKey, func(key ethcommon.Address) string {
		return key.String()
	})
	v.lastClaimed = common.NewVMMap[claimKey, *big.Int](v.StateAccount, LastClaimedStorageKey, func(key claimKey) string {
		return fmt.Sprintf("%s_%s", key.User, key.Token)
	})
}

// Load returns the vault at addr bound to ctx
func Load(ctx *common.VMContext, addr ethcommon.Address) *Vault {
	return BuildConfig.Build(addr, ctx)
}

func (v *Vault) Initialize(asset ethcommon.Address, name, symbol string, lockPeriod uint64, owner ethcommon.Address) error {
	version, err := v.StorageVersion()
	if err != nil {
		return err
	}
	if version != 0 {
		return ErrAlreadyInitialized
	}
	if common.IsZeroAddress(asset) {
		return errors.Wrap(ErrZeroAddress, "asset")
	}
	if common.IsZeroAddress(owner) {
		return errors.Wrap(ErrZeroAddress, "owner")
	}

	assetToken, err := token.Load(v.CrossCallSystemContractContext(), asset)
	if err != nil {
		return err
	}
	decimals, err := assetToken.Decimals()
	if err != nil {
		return errors.Wrap(err, "query asset decimals")
	}

	if err := v.asset.Put(asset); err != nil {
		return err
	}
	if err := v.lockPeriod.Put(lockPeriod); err != nil {
		return err
	}
	if err := v.totalAssets.Put(big.NewInt(0)); err != nil {
		return err
	}
	if err := v.name.Put(name); err != nil {
		return err
	}
	if err := v.symbol.Put(symbol); err != nil {
		return err
	}
	if err := v.decimals.Put(decimals); err != nil {
		return err
	}
	if err := v.SetOwner(owner); err != nil {
		return err
	}
	if err := v.SetStorageVersion(storageVersion); err != nil {
		return err
	}

	v.Logger.WithFields(logrus.Fields{
		"vault":       v.Address,
		"asset":       asset,
		"lock_period": lockPeriod,
		"owner":       owner,
	}).Info("Vault initialized")
	return nil
}

func (v *Vault) Asset() (ethcommon.Address, error) {
	exist, asset, err := v.asset.Get()
	if err != nil {
		return asset, err
	}
	if !exist {
		return asset, ErrNotInitialized
	}
	return asset, nil
}

func (v *Vault) assetToken() (token.IToken, error) {
	asset, err := v.Asset()
	if err != nil {
		return nil, err
	}
	return token.Load(v.CrossCallSystemContractContext(), asset)
}

func (v *Vault) LockPeriod() (uint64, error) {
	return v.lockPeriod.GetOrDefault(0)
}

func (v *Vault) TotalAssets() (*big.Int, error) {
	return v.totalAssets.GetOrDefault(big.NewInt(0))
}

func (v *Vault) pool() (totalShares, totalAssets *big.Int, err error) {
	if totalShares, err = v.shares.TotalSupply(); err != nil {
		return nil, nil, err
	}
	if totalAssets, err = v.TotalAssets(); err != nil {
		return nil, nil, err
	}
	return totalShares, totalAssets, nil
}

func (v *Vault) convertToShares(assets *big.Int, rounding Rounding) (*big.Int, error) {
	totalShares, totalAssets, err := v.pool()
	if err != nil {
		return nil, err
	}
	return sharesForAssets(assets, totalShares, totalAssets, rounding)
}

func (v *Vault) convertToAssets(shares *big.Int, rounding Rounding) (*big.Int, error) {
	totalShares, totalAssets, err := v.pool()
	if err != nil {
		return nil, err
	}
	return assetsForShares(shares, totalShares, totalAssets, rounding)
}

func (v *Vault) ConvertToShares(assets *big.Int) (*big.Int, error) {
	return v.convertToShares(assets, Floor)
}

func (v *Vault) ConvertToAssets(shares *big.Int) (*big.Int, error) {
	return v.convertToAssets(shares, Floor)
}

// PreviewDeposit returns the shares minted for assets, rounded down
func (v *Vault) PreviewDeposit(assets *big.Int) (*big.Int, error) {
	return v.convertToShares(assets, Floor)
}

// PreviewMint returns the assets charged for shares, rounded up
func (v *Vault) PreviewMint(shares *big.Int) (*big.Int, error) {
	return v.convertToAssets(shares, Ceil)
}

// PreviewWithdraw returns the shares burned for assets, rounded up
func (v *Vault) PreviewWithdraw(assets *big.Int) (*big.Int, error) {
	return v.convertToShares(assets, Ceil)
}

// PreviewRedeem returns the assets paid for shares, rounded down
func (v *Vault) PreviewRedeem(shares *big.Int) (*big.Int, error) {
	return v.convertToAssets(shares, Floor)
}

func (v *Vault) MaxDeposit(receiver ethcommon.Address) (*big.Int, error) {
	return new(big.Int).Set(token.InfiniteAllowance), nil
}

func (v *Vault) MaxMint(receiver ethcommon.Address) (*big.Int, error) {
	return new(big.Int).Set(token.InfiniteAllowance), nil
}

func (v *Vault) MaxWithdraw(owner ethcommon.Address) (*big.Int, error) {
	shares, err := v.MaxRedeem(owner)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return shares, nil
	}
	return v.PreviewRedeem(shares)
}

func (v *Vault) MaxRedeem(owner ethcommon.Address) (*big.Int, error) {
	unlocked, err := v.CanWithdraw(owner)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return big.NewInt(0), nil
	}
	return v.shares.BalanceOf(owner)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	return nil
}

func (v *Vault) Deposit(assets *big.Int, receiver ethcommon.Address) (*big.Int, error) {
	if err := checkAmount(assets); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver")
	}
	shares, err := v.PreviewDeposit(assets)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return nil, ErrZeroShares
	}
	if err := v.deposit(v.Ctx.From, receiver, assets, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (v *Vault) Mint(shares *big.Int, receiver ethcommon.Address) (*big.Int, error) {
	if err := checkAmount(shares); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver")
	}
	assets, err := v.PreviewMint(shares)
	if err != nil {
		return nil, err
	}
	if assets.Sign() == 0 {
		return nil, ErrZeroAssets
	}
	if err := v.deposit(v.Ctx.From, receiver, assets, shares); err != nil {
		return nil, err
	}
	return assets, nil
}

// deposit pulls the assets before minting, the receiver's pending rewards are paid
// out first so the new shares do not dilute them
func (v *Vault) deposit(caller, receiver ethcommon.Address, assets, shares *big.Int) error {
	if err := v.settleOrRegister(receiver); err != nil {
		return err
	}

	assetToken, err := v.assetToken()
	if err != nil {
		return err
	}
	if _, err := assetToken.TransferFrom(caller, v.Address, assets); err != nil {
		return errors.Wrap(err, "pull assets")
	}

	if err := v.shares.Mint(receiver, shares); err != nil {
		return err
	}
	totalAssets, err := v.TotalAssets()
	if err != nil {
		return err
	}
	if err := v.totalAssets.Put(new(big.Int).Add(totalAssets, assets)); err != nil {
		return err
	}

	v.EmitEvent(&EventDeposit{
		Sender: caller,
		Owner:  receiver,
		Assets: assets,
		Shares: shares,
	})
	depositCounter.Inc()
	v.Logger.WithFields(logrus.Fields{
		"caller":   caller,
		"receiver": receiver,
		"assets":   assets,
		"shares":   shares,
	}).Debug("Deposit")
	return nil
}

func (v *Vault) Withdraw(assets *big.Int, receiver, owner ethcommon.Address) (*big.Int, error) {
	if err := checkAmount(assets); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) || common.IsZeroAddress(owner) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver or owner")
	}
	if err := v.checkUnlocked(owner); err != nil {
		return nil, err
	}
	shares, err := v.PreviewWithdraw(assets)
	if err != nil {
		return nil, err
	}
	if err := v.withdraw(v.Ctx.From, receiver, owner, assets, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (v *Vault) Redeem(shares *big.Int, receiver, owner ethcommon.Address) (*big.Int, error) {
	if err := checkAmount(shares); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) || common.IsZeroAddress(owner) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver or owner")
	}
	if err := v.checkUnlocked(owner); err != nil {
		return nil, err
	}
	assets, err := v.PreviewRedeem(shares)
	if err != nil {
		return nil, err
	}
	if assets.Sign() == 0 {
		return nil, ErrZeroAssets
	}
	if err := v.withdraw(v.Ctx.From, receiver, owner, assets, shares); err != nil {
		return nil, err
	}
	return assets, nil
}

// withdraw settles every reward stream of owner, then burns and pays out
func (v *Vault) withdraw(caller, receiver, owner ethcommon.Address, assets, shares *big.Int) error {
	balance, err := v.shares.BalanceOf(owner)
	if err != nil {
		return err
	}
	if balance.Cmp(shares) < 0 {
		return errors.Wrapf(ErrInsufficientShares, "burn %s, balance %s", shares, balance)
	}
	if caller != owner {
		if err := v.shares.SpendAllowance(owner, caller, shares); err != nil {
			return err
		}
	}

	if err := v.claimAll(owner); err != nil {
		return err
	}

	if err := v.shares.Burn(owner, shares); err != nil {
		return err
	}
	totalAssets, err := v.TotalAssets()
	if err != nil {
		return err
	}
	if totalAssets.Cmp(assets) < 0 {
		return errors.Wrapf(ErrInconsistentPool, "withdraw %s, total assets %s", assets, totalAssets)
	}
	if err := v.totalAssets.Put(new(big.Int).Sub(totalAssets, assets)); err != nil {
		return err
	}

	assetToken, err := v.assetToken()
	if err != nil {
		return err
	}
	if _, err := assetToken.Transfer(receiver, assets); err != nil {
		return errors.Wrap(err, "pay assets")
	}

	v.EmitEvent(&EventWithdraw{
		Sender:   caller,
		Receiver: receiver,
		Owner:    owner,
		Assets:   assets,
		Shares:   shares,
	})
	withdrawCounter.Inc()
	v.Logger.WithFields(logrus.Fields{
		"caller":   caller,
		"receiver": receiver,
		"owner":    owner,
		"assets":   assets,
		"shares":   shares,
	}).Debug("Withdraw")
	return nil
}

// CanWithdraw reports whether the lock of user has expired, an address that never deposited is unlocked
func (v *Vault) CanWithdraw(user ethcommon.Address) (bool, error) {
	unlockTime, err := v.UnlockTime(user)
	if err != nil {
		return false, err
	}
	return v.Ctx.BlockTimestamp >= unlockTime, nil
}

func (v *Vault) checkUnlocked(user ethcommon.Address) error {
	unlocked, err := v.CanWithdraw(user)
	if err != nil {
		return err
	}
	if !unlocked {
		unlockTime, _ := v.UnlockTime(user)
		return errors.Wrapf(ErrLocked, "%s locked until %d", user, unlockTime)
	}
	return nil
}

func (v *Vault) LockStart(user ethcommon.Address) (uint64, error) {
	_, info, err := v.users.Get(user)
	return info.LockStart, err
}

// UnlockTime returns lockStart + lockPeriod, 0 when user has no record
func (v *Vault) UnlockTime(user ethcommon.Address) (uint64, error) {
	exist, info, err := v.users.Get(user)
	if err != nil || !exist {
		return 0, err
	}
	period, err := v.LockPeriod()
	if err != nil {
		return 0, err
	}
	if period > math.MaxUint64-info.LockStart {
		return math.MaxUint64, nil
	}
	return info.LockStart + period, nil
}

func (v *Vault) UserInfo(user ethcommon.Address) (UserInfo, error) {
	_, info, err := v.users.Get(user)
	return info, err
}

// settleOrRegister pays out the pending rewards of a known user, or creates the record
// of a new one starting its lock now
func (v *Vault) settleOrRegister(user ethcommon.Address) error {
	if v.users.Has(user) {
		return v.claimAll(user)
	}

	if err := v.users.Put(user, UserInfo{LockStart: v.Ctx.BlockTimestamp, Exists: true}); err != nil {
		return err
	}
	tokens, err := v.RewardTokens()
	if err != nil {
		return err
	}
	for _, tokenAddr := range tokens {
		_, stream, err := v.rewardStreams.Get(tokenAddr)
		if err != nil {
			return err
		}
		if err := v.lastClaimed.Put(claimKey{User: user, Token: tokenAddr}, stream.CumulativePerShare); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) Name() (string, error) {
	_, name, err := v.name.Get()
	return name, err
}

func (v *Vault) Symbol() (string, error) {
	_, symbol, err := v.symbol.Get()
	return symbol, err
}

func (v *Vault) Decimals() (uint8, error) {
	return v.decimals.GetOrDefault(18)
}

func (v *Vault) TotalSupply() (*big.Int, error) {
	return v.shares.TotalSupply()
}

func (v *Vault) BalanceOf(account ethcommon.Address) (*big.Int, error) {
	return v.shares.BalanceOf(account)
}

func (v *Vault) Allowance(owner, spender ethcommon.Address) (*big.Int, error) {
	return v.shares.Allowance(owner, spender)
}

func (v *Vault) Approve(spender ethcommon.Address, value *big.Int) (bool, error) {
	if err := v.shares.Approve(v.Ctx.From, spender, value); err != nil {
		return false, err
	}
	return true, nil
}

func (v *Vault) Transfer(recipient ethcommon.Address, value *big.Int) (bool, error) {
	if err := v.transferShares(v.Ctx.From, recipient, value); err != nil {
		return false, err
	}
	return true, nil
}

func (v *Vault) TransferFrom(sender, recipient ethcommon.Address, value *big.Int) (bool, error) {
	if value == nil || value.Sign() < 0 {
		return false, token.ErrNegativeValue
	}
	if err := v.shares.SpendAllowance(sender, v.Ctx.From, value); err != nil {
		return false, err
	}
	if err := v.transferShares(sender, recipient, value); err != nil {
		return false, err
	}
	return true, nil
}

// transferShares moves shares between holders, locked shares cannot move and
// both sides are settled at the current reward counters
func (v *Vault) transferShares(from, to ethcommon.Address, value *big.Int) error {
	if common.IsZeroAddress(from) || common.IsZeroAddress(to) {
		return errors.Wrap(ErrZeroAddress, "transfer")
	}
	if err := v.checkUnlocked(from); err != nil {
		return err
	}
	if err := v.claimAll(from); err != nil {
		return err
	}
	if err := v.settleOrRegister(to); err != nil {
		return err
	}
	return v.shares.Transfer(from, to, value)
}
