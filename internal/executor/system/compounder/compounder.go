package compounder

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/internal/executor/system/vault"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
)

const (
	VaultStorageKey        = "vault"
	AssetStorageKey        = "asset"
	NameStorageKey         = "name"
	SymbolStorageKey       = "symbol"
	DecimalsStorageKey     = "decimals"
	SharesStorageNamespace = "share_"
	UsersStorageKey        = "users"

	storageVersion = 1
)

var _ token.IToken = (*Wrapper)(nil)

var BuildConfig = &common.SystemContractBuildConfig[*Wrapper]{
	Name:   loggers.Compounder,
	AbiStr: wrapperABI,
	Constructor: func(systemContractBase common.SystemContractBase) *Wrapper {
		return &Wrapper{
			SystemContractBase: systemContractBase,
		}
	},
}

// UserInfo is informational, the enforced lock lives in the vault
type UserInfo struct {
	DepositTimestamp uint64
	TotalDeposited   *big.Int
}

// Wrapper holds shares of a single vault and issues its own share token against them,
// harvested rewards are swapped into the asset and reinvested so the exchange rate grows
type Wrapper struct {
	common.SystemContractBase

	vault    *common.VMSlot[ethcommon.Address]
	asset    *common.VMSlot[ethcommon.Address]
	name     *common.VMSlot[string]
	symbol   *common.VMSlot[string]
	decimals *common.VMSlot[uint8]
	shares   *token.BalanceBook
	users    *common.VMMap[ethcommon.Address, UserInfo]
	guard    *common.ReentrancyGuard

	settings
}

func (w *Wrapper) SetContext(ctx *common.VMContext) {
	w.SystemContractBase.SetContext(ctx)

	w.vault = common.NewVMSlot[ethcommon.Address](w.StateAccount, VaultStorageKey)
	w.asset = common.NewVMSlot[ethcommon.Address](w.StateAccount, AssetStorageKey)
	w.name = common.NewVMSlot[string](w.StateAccount, NameStorageKey)
	w.symbol = common.NewVMSlot[string](w.StateAccount, SymbolStorageKey)
	w.decimals = common.NewVMSlot[uint8](w.StateAccount, DecimalsStorageKey)
	w.shares = token.NewBalanceBook(w.StateAccount, SharesStorageNamespace, w.EmitEvent)
	w.users = common.NewVMMap[ethcommon.Address, UserInfo](w.StateAccount, UsersStorageKey, func(key ethcommon.Address) string {
		return key.String()
	})
	w.guard = common.NewReentrancyGuard(w.StateAccount)
	w.settings = newSettings(w.StateAccount)
}

// Initialize binds the wrapper to vaultAddr, the swap settings start from the node config
func (w *Wrapper) Initialize(vaultAddr, gatewayAddr ethcommon.Address, name, symbol string, owner ethcommon.Address) error {
	version, err := w.StorageVersion()
	if err != nil {
		return err
	}
	if version != 0 {
		return ErrAlreadyInitialized
	}
	if common.IsZeroAddress(vaultAddr) || common.IsZeroAddress(gatewayAddr) || common.IsZeroAddress(owner) {
		return errors.Wrap(ErrZeroAddress, "vault, gateway and owner are required")
	}

	v := vault.Load(w.CrossCallSystemContractContext(), vaultAddr)
	asset, err := v.Asset()
	if err != nil {
		return errors.Wrap(err, "query vault asset")
	}
	decimals, err := v.Decimals()
	if err != nil {
		return err
	}

	if err := w.vault.Put(vaultAddr); err != nil {
		return err
	}
	if err := w.asset.Put(asset); err != nil {
		return err
	}
	if err := w.name.Put(name); err != nil {
		return err
	}
	if err := w.symbol.Put(symbol); err != nil {
		return err
	}
	if err := w.decimals.Put(decimals); err != nil {
		return err
	}
	if err := w.gateway.Put(gatewayAddr); err != nil {
		return err
	}
	if w.Ctx.Config != nil {
		if err := w.settings.loadDefaults(w.Ctx.Config.Compounder); err != nil {
			return err
		}
	}
	if err := w.SetOwner(owner); err != nil {
		return err
	}
	if err := w.SetStorageVersion(storageVersion); err != nil {
		return err
	}

	w.Logger.WithFields(logrus.Fields{
		"wrapper": w.Address,
		"vault":   vaultAddr,
		"asset":   asset,
		"gateway": gatewayAddr,
	}).Info("Wrapper initialized")
	return nil
}

func (w *Wrapper) Vault() (ethcommon.Address, error) {
	exist, addr, err := w.vault.Get()
	if err != nil {
		return addr, err
	}
	if !exist {
		return addr, ErrNotInitialized
	}
	return addr, nil
}

func (w *Wrapper) Asset() (ethcommon.Address, error) {
	exist, addr, err := w.asset.Get()
	if err != nil {
		return addr, err
	}
	if !exist {
		return addr, ErrNotInitialized
	}
	return addr, nil
}

// loadVault returns the underlying vault called with the wrapper as msg.sender
func (w *Wrapper) loadVault() (*vault.Vault, error) {
	addr, err := w.Vault()
	if err != nil {
		return nil, err
	}
	return vault.Load(w.CrossCallSystemContractContext(), addr), nil
}

func (w *Wrapper) assetToken() (token.IToken, error) {
	addr, err := w.Asset()
	if err != nil {
		return nil, err
	}
	return token.Load(w.CrossCallSystemContractContext(), addr)
}

// position returns the vault share balance of the wrapper and the wrapper share supply
func (w *Wrapper) position(v *vault.Vault) (vaultShares, supply *big.Int, err error) {
	if vaultShares, err = v.BalanceOf(w.Address); err != nil {
		return nil, nil, err
	}
	if supply, err = w.shares.TotalSupply(); err != nil {
		return nil, nil, err
	}
	if supply.Sign() > 0 && vaultShares.Sign() == 0 {
		return nil, nil, ErrInconsistentPool
	}
	return vaultShares, supply, nil
}

// TotalAssetsManaged is the wrapper's vault share balance valued in the asset
func (w *Wrapper) TotalAssetsManaged() (*big.Int, error) {
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultShares, err := v.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	return v.ConvertToAssets(vaultShares)
}

func (w *Wrapper) TotalAssets() (*big.Int, error) {
	return w.TotalAssetsManaged()
}

// ExchangeRate returns the assets backing one wrapper share scaled by 1e18
func (w *Wrapper) ExchangeRate() (*big.Int, error) {
	supply, err := w.shares.TotalSupply()
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return new(big.Int).Set(vault.PrecisionFactor), nil
	}
	managed, err := w.TotalAssetsManaged()
	if err != nil {
		return nil, err
	}
	return vault.MulDiv(managed, vault.PrecisionFactor, supply, vault.Floor), nil
}

// wrapperSharesFor converts vault shares into wrapper shares, 1:1 before the first deposit
func wrapperSharesFor(vaultShares, vaultBalance, supply *big.Int, rounding vault.Rounding) *big.Int {
	if supply.Sign() == 0 || vaultBalance.Sign() == 0 {
		return new(big.Int).Set(vaultShares)
	}
	return vault.MulDiv(vaultShares, supply, vaultBalance, rounding)
}

// vaultSharesFor converts wrapper shares into vault shares, 1:1 before the first deposit
func vaultSharesFor(shares, vaultBalance, supply *big.Int, rounding vault.Rounding) *big.Int {
	if supply.Sign() == 0 {
		return new(big.Int).Set(shares)
	}
	return vault.MulDiv(shares, vaultBalance, supply, rounding)
}

func (w *Wrapper) PreviewDeposit(assets *big.Int) (*big.Int, error) {
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return new(big.Int).Set(assets), nil
	}
	vaultShares, err := v.PreviewDeposit(assets)
	if err != nil {
		return nil, err
	}
	return wrapperSharesFor(vaultShares, vaultBalance, supply, vault.Floor), nil
}

func (w *Wrapper) PreviewMint(shares *big.Int) (*big.Int, error) {
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	return v.PreviewMint(vaultSharesFor(shares, vaultBalance, supply, vault.Ceil))
}

func (w *Wrapper) PreviewWithdraw(assets *big.Int) (*big.Int, error) {
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	vaultShares, err := v.PreviewWithdraw(assets)
	if err != nil {
		return nil, err
	}
	return wrapperSharesFor(vaultShares, vaultBalance, supply, vault.Ceil), nil
}

func (w *Wrapper) PreviewRedeem(shares *big.Int) (*big.Int, error) {
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	return v.PreviewRedeem(vaultSharesFor(shares, vaultBalance, supply, vault.Floor))
}

func (w *Wrapper) MaxRedeem(owner ethcommon.Address) (*big.Int, error) {
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	unlocked, err := v.CanWithdraw(w.Address)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return big.NewInt(0), nil
	}
	return w.shares.BalanceOf(owner)
}

func (w *Wrapper) MaxWithdraw(owner ethcommon.Address) (*big.Int, error) {
	shares, err := w.MaxRedeem(owner)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return shares, nil
	}
	return w.PreviewRedeem(shares)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	return nil
}

func (w *Wrapper) Deposit(assets *big.Int, receiver ethcommon.Address) (*big.Int, error) {
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Exit()

	if err := checkAmount(assets); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver")
	}
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}

	received, err := w.pullAndDeposit(v, assets, func() (*big.Int, error) {
		return v.Deposit(assets, w.Address)
	})
	if err != nil {
		return nil, err
	}
	var shares *big.Int
	if supply.Sign() == 0 {
		shares = new(big.Int).Set(assets)
	} else {
		shares = wrapperSharesFor(received, vaultBalance, supply, vault.Floor)
	}
	if shares.Sign() == 0 {
		return nil, ErrZeroShares
	}
	if err := w.issue(receiver, assets, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (w *Wrapper) Mint(shares *big.Int, receiver ethcommon.Address) (*big.Int, error) {
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Exit()

	if err := checkAmount(shares); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver")
	}
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	vaultShares := vaultSharesFor(shares, vaultBalance, supply, vault.Ceil)
	assets, err := v.PreviewMint(vaultShares)
	if err != nil {
		return nil, err
	}
	if assets.Sign() == 0 {
		return nil, ErrZeroAssets
	}

	if _, err := w.pullAndDeposit(v, assets, func() (*big.Int, error) {
		return v.Mint(vaultShares, w.Address)
	}); err != nil {
		return nil, err
	}
	if err := w.issue(receiver, assets, shares); err != nil {
		return nil, err
	}
	return assets, nil
}

// pullAndDeposit moves assets from the caller into the vault for the wrapper and returns the vault shares received
func (w *Wrapper) pullAndDeposit(v *vault.Vault, assets *big.Int, enter func() (*big.Int, error)) (*big.Int, error) {
	assetToken, err := w.assetToken()
	if err != nil {
		return nil, err
	}
	if _, err := assetToken.TransferFrom(w.Ctx.From, w.Address, assets); err != nil {
		return nil, errors.Wrap(err, "pull assets")
	}
	before, err := v.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	if _, err := assetToken.Approve(v.Address, assets); err != nil {
		return nil, err
	}
	if _, err := enter(); err != nil {
		return nil, errors.Wrap(err, "vault deposit")
	}
	after, err := v.BalanceOf(w.Address)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(after, before), nil
}

func (w *Wrapper) issue(receiver ethcommon.Address, assets, shares *big.Int) error {
	if err := w.shares.Mint(receiver, shares); err != nil {
		return err
	}
	info, err := w.UserInfo(receiver)
	if err != nil {
		return err
	}
	if info.DepositTimestamp == 0 {
		info.DepositTimestamp = w.Ctx.BlockTimestamp
	}
	info.TotalDeposited = new(big.Int).Add(info.TotalDeposited, assets)
	if err := w.users.Put(receiver, info); err != nil {
		return err
	}

	w.EmitEvent(&EventDeposit{
		Sender: w.Ctx.From,
		Owner:  receiver,
		Assets: assets,
		Shares: shares,
	})
	w.Logger.WithFields(logrus.Fields{
		"caller":   w.Ctx.From,
		"receiver": receiver,
		"assets":   assets,
		"shares":   shares,
	}).Debug("Deposit")
	return nil
}

func (w *Wrapper) Withdraw(assets *big.Int, receiver, owner ethcommon.Address) (*big.Int, error) {
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Exit()

	if err := checkAmount(assets); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) || common.IsZeroAddress(owner) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver or owner")
	}
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	if err := w.checkUnlocked(v); err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return nil, ErrInsufficientShares
	}
	vaultShares, err := v.PreviewWithdraw(assets)
	if err != nil {
		return nil, err
	}
	shares := wrapperSharesFor(vaultShares, vaultBalance, supply, vault.Ceil)

	if err := w.retire(owner, shares); err != nil {
		return nil, err
	}
	if _, err := v.Withdraw(assets, receiver, w.Address); err != nil {
		return nil, errors.Wrap(err, "vault withdraw")
	}
	w.emitWithdraw(receiver, owner, assets, shares)
	return shares, nil
}

func (w *Wrapper) Redeem(shares *big.Int, receiver, owner ethcommon.Address) (*big.Int, error) {
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Exit()

	if err := checkAmount(shares); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(receiver) || common.IsZeroAddress(owner) {
		return nil, errors.Wrap(ErrZeroAddress, "receiver or owner")
	}
	v, err := w.loadVault()
	if err != nil {
		return nil, err
	}
	if err := w.checkUnlocked(v); err != nil {
		return nil, err
	}
	vaultBalance, supply, err := w.position(v)
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return nil, ErrInsufficientShares
	}
	vaultShares := vaultSharesFor(shares, vaultBalance, supply, vault.Floor)
	if vaultShares.Sign() == 0 {
		return nil, ErrZeroAssets
	}

	if err := w.retire(owner, shares); err != nil {
		return nil, err
	}
	assets, err := v.Redeem(vaultShares, receiver, w.Address)
	if err != nil {
		return nil, errors.Wrap(err, "vault redeem")
	}
	w.emitWithdraw(receiver, owner, assets, shares)
	return assets, nil
}

func (w *Wrapper) checkUnlocked(v *vault.Vault) error {
	unlocked, err := v.CanWithdraw(w.Address)
	if err != nil {
		return err
	}
	if !unlocked {
		return errors.Wrapf(vault.ErrLocked, "wrapper %s", w.Address)
	}
	return nil
}

// retire spends the allowance of a third party caller, burns the shares of owner
// and reduces its deposited total proportionally
func (w *Wrapper) retire(owner ethcommon.Address, shares *big.Int) error {
	balance, err := w.shares.BalanceOf(owner)
	if err != nil {
		return err
	}
	if balance.Cmp(shares) < 0 {
		return errors.Wrapf(ErrInsufficientShares, "burn %s, balance %s", shares, balance)
	}
	if w.Ctx.From != owner {
		if err := w.shares.SpendAllowance(owner, w.Ctx.From, shares); err != nil {
			return err
		}
	}
	if err := w.shares.Burn(owner, shares); err != nil {
		return err
	}

	info, err := w.UserInfo(owner)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(balance, shares)
	if remaining.Sign() == 0 {
		info.TotalDeposited = big.NewInt(0)
	} else {
		info.TotalDeposited = vault.MulDiv(info.TotalDeposited, remaining, balance, vault.Floor)
	}
	return w.users.Put(owner, info)
}

func (w *Wrapper) emitWithdraw(receiver, owner ethcommon.Address, assets, shares *big.Int) {
	w.EmitEvent(&EventWithdraw{
		Sender:   w.Ctx.From,
		Receiver: receiver,
		Owner:    owner,
		Assets:   assets,
		Shares:   shares,
	})
	w.Logger.WithFields(logrus.Fields{
		"caller":   w.Ctx.From,
		"receiver": receiver,
		"owner":    owner,
		"assets":   assets,
		"shares":   shares,
	}).Debug("Withdraw")
}

func (w *Wrapper) UserInfo(user ethcommon.Address) (UserInfo, error) {
	return w.users.GetOrDefault(user, UserInfo{TotalDeposited: big.NewInt(0)})
}

func (w *Wrapper) Name() (string, error) {
	_, name, err := w.name.Get()
	return name, err
}

func (w *Wrapper) Symbol() (string, error) {
	_, symbol, err := w.symbol.Get()
	return symbol, err
}

func (w *Wrapper) Decimals() (uint8, error) {
	return w.decimals.GetOrDefault(18)
}

func (w *Wrapper) TotalSupply() (*big.Int, error) {
	return w.shares.TotalSupply()
}

func (w *Wrapper) BalanceOf(account ethcommon.Address) (*big.Int, error) {
	return w.shares.BalanceOf(account)
}

func (w *Wrapper) Allowance(owner, spender ethcommon.Address) (*big.Int, error) {
	return w.shares.Allowance(owner, spender)
}

func (w *Wrapper) Approve(spender ethcommon.Address, value *big.Int) (bool, error) {
	if err := w.shares.Approve(w.Ctx.From, spender, value); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Wrapper) Transfer(recipient ethcommon.Address, value *big.Int) (bool, error) {
	if err := w.shares.Transfer(w.Ctx.From, recipient, value); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Wrapper) TransferFrom(sender, recipient ethcommon.Address, value *big.Int) (bool, error) {
	if value == nil || value.Sign() < 0 {
		return false, token.ErrNegativeValue
	}
	if err := w.shares.SpendAllowance(sender, w.Ctx.From, value); err != nil {
		return false, err
	}
	if err := w.shares.Transfer(sender, recipient, value); err != nil {
		return false, err
	}
	return true, nil
}
