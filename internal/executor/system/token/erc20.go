package token

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
)

const (
	NameKey     = "name"
	SymbolKey   = "symbol"
	DecimalsKey = "decimals"

	storageVersion = 1
)

var _ IToken = (*ERC20)(nil)

var BuildConfig = &common.SystemContractBuildConfig[*ERC20]{
	Name:   loggers.Token,
	AbiStr: erc20ABI,
	Constructor: func(systemContractBase common.SystemContractBase) *ERC20 {
		return &ERC20{
			SystemContractBase: systemContractBase,
		}
	},
}

// ERC20 is a plain fungible token living at any address
type ERC20 struct {
	common.SystemContractBase

	name     *common.VMSlot[string]
	symbol   *common.VMSlot[string]
	decimals *common.VMSlot[uint8]
	book     *BalanceBook
}

func (t *ERC20) SetContext(ctx *common.VMContext) {
	t.SystemContractBase.SetContext(ctx)

	t.name = common.NewVMSlot[string](t.StateAccount, NameKey)
	t.symbol = common.NewVMSlot[string](t.StateAccount, SymbolKey)
	t.decimals = common.NewVMSlot[uint8](t.StateAccount, DecimalsKey)
	t.book = NewBalanceBook(t.StateAccount, "", t.EmitEvent)
}

// Load returns the token at addr bound to ctx, contracts registered at addr take precedence
func Load(ctx *common.VMContext, addr ethcommon.Address) (IToken, error) {
	if ctx.Registry.Has(addr) {
		contract, err := ctx.Registry.Resolve(ctx, addr)
		if err != nil {
			return nil, err
		}
		tk, ok := contract.(IToken)
		if !ok {
			return nil, errors.Wrapf(ErrNotFungibleToken, "address %s", addr)
		}
		return tk, nil
	}
	return BuildConfig.Build(addr, ctx), nil
}

// Initialize sets the metadata and the minter, it can only be called once
func (t *ERC20) Initialize(name, symbol string, decimals uint8, owner ethcommon.Address) error {
	version, err := t.StorageVersion()
	if err != nil {
		return err
	}
	if version != 0 {
		return ErrAlreadyInitialized
	}
	if common.IsZeroAddress(owner) {
		return errors.Wrap(ErrZeroAddress, "owner")
	}

	if err := t.name.Put(name); err != nil {
		return err
	}
	if err := t.symbol.Put(symbol); err != nil {
		return err
	}
	if err := t.decimals.Put(decimals); err != nil {
		return err
	}
	if err := t.SetOwner(owner); err != nil {
		return err
	}
	if err := t.SetStorageVersion(storageVersion); err != nil {
		return err
	}

	t.Logger.WithFields(logrus.Fields{
		"address": t.Address,
		"name":    name,
		"symbol":  symbol,
		"owner":   owner,
	}).Info("Token initialized")
	return nil
}

func (t *ERC20) Name() (string, error) {
	_, name, err := t.name.Get()
	return name, err
}

func (t *ERC20) Symbol() (string, error) {
	_, symbol, err := t.symbol.Get()
	return symbol, err
}

func (t *ERC20) Decimals() (uint8, error) {
	return t.decimals.GetOrDefault(18)
}

func (t *ERC20) TotalSupply() (*big.Int, error) {
	return t.book.TotalSupply()
}

func (t *ERC20) BalanceOf(account ethcommon.Address) (*big.Int, error) {
	return t.book.BalanceOf(account)
}

func (t *ERC20) Allowance(owner, spender ethcommon.Address) (*big.Int, error) {
	return t.book.Allowance(owner, spender)
}

func (t *ERC20) Approve(spender ethcommon.Address, value *big.Int) (bool, error) {
	if err := t.book.Approve(t.Ctx.From, spender, value); err != nil {
		return false, err
	}
	return true, nil
}

func (t *ERC20) Transfer(recipient ethcommon.Address, value *big.Int) (bool, error) {
	if err := t.book.Transfer(t.Ctx.From, recipient, value); err != nil {
		return false, err
	}
	return true, nil
}

func (t *ERC20) TransferFrom(sender, recipient ethcommon.Address, value *big.Int) (bool, error) {
	if err := checkValue(value); err != nil {
		return false, err
	}
	if err := t.book.SpendAllowance(sender, t.Ctx.From, value); err != nil {
		return false, err
	}
	if err := t.book.Transfer(sender, recipient, value); err != nil {
		return false, err
	}
	return true, nil
}

// Mint creates tokens for `to`, only the owner set at initialization may mint
func (t *ERC20) Mint(to ethcommon.Address, amount *big.Int) error {
	if err := t.CheckOwner(); err != nil {
		return err
	}
	return t.book.Mint(to, amount)
}

// Burn destroys tokens of the caller
func (t *ERC20) Burn(amount *big.Int) error {
	return t.book.Burn(t.Ctx.From, amount)
}
