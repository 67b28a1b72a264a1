package token

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/packer"
)

const (
	TotalSupplyKey = "totalSupply"
	BalancesKey    = "balances"
	AllowancesKey  = "allowances"
)

// InfiniteAllowance is never decremented by SpendAllowance
var InfiniteAllowance = ethmath.MaxBig256

type allowanceKey struct {
	Owner   ethcommon.Address
	Spender ethcommon.Address
}

// BalanceBook is a fungible balance/allowance/supply ledger kept in a contract account,
// every contract issuing a share token embeds one
type BalanceBook struct {
	emit func(packer.Event)

	totalSupply *common.VMSlot[*big.Int]
	balances    *common.VMMap[ethcommon.Address, *big.Int]
	allowances  *common.VMMap[allowanceKey, *big.Int]
}

// NewBalanceBook keeps all keys under namespace, emit receives Transfer and Approval events
func NewBalanceBook(account ledger.IAccount, namespace string, emit func(packer.Event)) *BalanceBook {
	return &BalanceBook{
		emit:        emit,
		totalSupply: common.NewVMSlot[*big.Int](account, namespace+TotalSupplyKey),
		balances: common.NewVMMap[ethcommon.Address, *big.Int](account, namespace+BalancesKey, func(key ethcommon.Address) string {
			return key.String()
		}),
		allowances: common.NewVMMap[allowanceKey, *big.Int](account, namespace+AllowancesKey, func(key allowanceKey) string {
			return fmt.Sprintf("%s_%s", key.Owner, key.Spender)
		}),
	}
}

func checkValue(value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return ErrNegativeValue
	}
	return nil
}

func (b *BalanceBook) TotalSupply() (*big.Int, error) {
	return b.totalSupply.GetOrDefault(big.NewInt(0))
}

func (b *BalanceBook) BalanceOf(account ethcommon.Address) (*big.Int, error) {
	return b.balances.GetOrDefault(account, big.NewInt(0))
}

func (b *BalanceBook) Allowance(owner, spender ethcommon.Address) (*big.Int, error) {
	return b.allowances.GetOrDefault(allowanceKey{Owner: owner, Spender: spender}, big.NewInt(0))
}

func (b *BalanceBook) setBalance(account ethcommon.Address, balance *big.Int) error {
	if balance.Sign() == 0 {
		return b.balances.Delete(account)
	}
	return b.balances.Put(account, balance)
}

func (b *BalanceBook) Mint(to ethcommon.Address, value *big.Int) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if common.IsZeroAddress(to) {
		return errors.Wrap(ErrZeroAddress, "mint to")
	}

	supply, err := b.TotalSupply()
	if err != nil {
		return err
	}
	balance, err := b.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := b.totalSupply.Put(new(big.Int).Add(supply, value)); err != nil {
		return err
	}
	if err := b.setBalance(to, new(big.Int).Add(balance, value)); err != nil {
		return err
	}

	b.emit(&EventTransfer{From: ethcommon.Address{}, To: to, Value: value})
	return nil
}

func (b *BalanceBook) Burn(from ethcommon.Address, value *big.Int) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if common.IsZeroAddress(from) {
		return errors.Wrap(ErrZeroAddress, "burn from")
	}

	balance, err := b.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.Cmp(value) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "burn %s, balance %s", value, balance)
	}
	supply, err := b.TotalSupply()
	if err != nil {
		return err
	}
	if supply.Cmp(value) < 0 {
		return ErrTotalSupply
	}

	if err := b.setBalance(from, new(big.Int).Sub(balance, value)); err != nil {
		return err
	}
	if err := b.totalSupply.Put(new(big.Int).Sub(supply, value)); err != nil {
		return err
	}

	b.emit(&EventTransfer{From: from, To: ethcommon.Address{}, Value: value})
	return nil
}

func (b *BalanceBook) Transfer(from, to ethcommon.Address, value *big.Int) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if common.IsZeroAddress(from) || common.IsZeroAddress(to) {
		return errors.Wrap(ErrZeroAddress, "transfer")
	}

	fromBalance, err := b.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(value) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "transfer %s, balance %s", value, fromBalance)
	}
	if err := b.setBalance(from, new(big.Int).Sub(fromBalance, value)); err != nil {
		return err
	}

	// read after the debit so a self transfer is a no-op
	toBalance, err := b.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := b.setBalance(to, new(big.Int).Add(toBalance, value)); err != nil {
		return err
	}

	b.emit(&EventTransfer{From: from, To: to, Value: value})
	return nil
}

func (b *BalanceBook) Approve(owner, spender ethcommon.Address, value *big.Int) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if common.IsZeroAddress(owner) || common.IsZeroAddress(spender) {
		return errors.Wrap(ErrZeroAddress, "approve")
	}
	if err := b.allowances.Put(allowanceKey{Owner: owner, Spender: spender}, value); err != nil {
		return err
	}

	b.emit(&EventApproval{Owner: owner, Spender: spender, Value: value})
	return nil
}

// SpendAllowance decreases the allowance of spender over owner's tokens, the infinite allowance stays untouched
func (b *BalanceBook) SpendAllowance(owner, spender ethcommon.Address, value *big.Int) error {
	allowance, err := b.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(InfiniteAllowance) == 0 {
		return nil
	}
	if allowance.Cmp(value) < 0 {
		return errors.Wrapf(ErrInsufficientAllowance, "spend %s, allowance %s", value, allowance)
	}
	return b.allowances.Put(allowanceKey{Owner: owner, Spender: spender}, new(big.Int).Sub(allowance, value))
}
