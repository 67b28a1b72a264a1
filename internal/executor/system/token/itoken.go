package token

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// IToken is the fungible token surface consumed by other contracts, msg.sender is the caller
// bound to the token's context
type IToken interface {
	// Name Returns the name of the token
	Name() (string, error)

	// Symbol Returns the symbol of the token
	Symbol() (string, error)

	// Decimals Number of decimal this token has
	Decimals() (uint8, error)

	// TotalSupply Returns the Value of tokens in existence
	TotalSupply() (*big.Int, error)

	// BalanceOf Returns the balance of the account
	BalanceOf(account ethcommon.Address) (*big.Int, error)

	// Allowance Returns the Value which `spender` is still allowed to withdraw from `owner`
	Allowance(owner, spender ethcommon.Address) (*big.Int, error)

	// Approve Sets `value` as the allowance of `spender` over the caller's tokens
	Approve(spender ethcommon.Address, value *big.Int) (bool, error)

	// Transfer moves `value` tokens from the caller to `recipient`
	Transfer(recipient ethcommon.Address, value *big.Int) (bool, error)

	// TransferFrom moves `value` tokens from `sender` to `recipient` using the allowance mechanism,
	// `value` is then deducted from the caller's allowance.
	TransferFrom(sender, recipient ethcommon.Address, value *big.Int) (bool, error)
}
