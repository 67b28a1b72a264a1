package token

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
)

var (
	tokenAddr = ethcommon.HexToAddress("0x0000000000000000000000000000000000002001")
	admin     = ethcommon.HexToAddress("0xc7F999b83Af6DF9e67d0a37Ee7e900bF38b3D013")
	alice     = ethcommon.HexToAddress("0x79a1215469FaB6f9c63c1816b45183AD3624bE34")
	bob       = ethcommon.HexToAddress("0x97c8B516D19edBf575D72a172Af7F418BE498C37")
)

func prepareToken(t *testing.T) (*common.TestNVM, *ERC20) {
	nvm := common.NewTestNVM(t)
	tk := BuildConfig.Build(tokenAddr, nvm.NewContext(admin))
	err := nvm.RunSingleTX(tk, admin, func() error {
		return tk.Initialize("Reward", "RWD", 18, admin)
	})
	require.Nil(t, err)
	return nvm, tk
}

func TestERC20_Initialize(t *testing.T) {
	nvm, tk := prepareToken(t)

	nvm.Call(tk, alice, func() {
		name, err := tk.Name()
		assert.Nil(t, err)
		assert.Equal(t, "Reward", name)
		symbol, err := tk.Symbol()
		assert.Nil(t, err)
		assert.Equal(t, "RWD", symbol)
		decimals, err := tk.Decimals()
		assert.Nil(t, err)
		assert.EqualValues(t, 18, decimals)
		owner, err := tk.Owner()
		assert.Nil(t, err)
		assert.Equal(t, admin, owner)
	})

	err := nvm.RunSingleTX(tk, alice, func() error {
		return tk.Initialize("Other", "OTH", 6, alice)
	})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	other := BuildConfig.Build(ethcommon.HexToAddress("0x2002"), nvm.NewContext(admin))
	err = nvm.RunSingleTX(other, admin, func() error {
		return other.Initialize("Other", "OTH", 6, ethcommon.Address{})
	})
	assert.ErrorIs(t, err, ErrZeroAddress)
}

func TestERC20_MintAndBurn(t *testing.T) {
	nvm, tk := prepareToken(t)

	err := nvm.RunSingleTX(tk, alice, func() error {
		return tk.Mint(alice, big.NewInt(100))
	})
	assert.ErrorIs(t, err, common.ErrNotOwner)

	err = nvm.RunSingleTX(tk, admin, func() error {
		return tk.Mint(alice, big.NewInt(100))
	})
	require.Nil(t, err)

	err = nvm.RunSingleTX(tk, admin, func() error {
		return tk.Mint(alice, big.NewInt(-1))
	})
	assert.ErrorIs(t, err, ErrNegativeValue)

	err = nvm.RunSingleTX(tk, alice, func() error {
		return tk.Burn(big.NewInt(101))
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = nvm.RunSingleTX(tk, alice, func() error {
		return tk.Burn(big.NewInt(40))
	})
	require.Nil(t, err)

	nvm.Call(tk, alice, func() {
		balance, err := tk.BalanceOf(alice)
		assert.Nil(t, err)
		assert.EqualValues(t, 60, balance.Int64())
		supply, err := tk.TotalSupply()
		assert.Nil(t, err)
		assert.EqualValues(t, 60, supply.Int64())
	})

	// mint and burn each emit a Transfer
	assert.Len(t, nvm.Logs(tokenAddr, BuildConfig.GetABI(), "Transfer"), 2)
}

func TestERC20_Transfer(t *testing.T) {
	nvm, tk := prepareToken(t)
	require.Nil(t, nvm.RunSingleTX(tk, admin, func() error {
		return tk.Mint(alice, big.NewInt(100))
	}))

	testcases := []struct {
		name    string
		to      ethcommon.Address
		value   *big.Int
		wantErr error
	}{
		{name: "zero address", to: ethcommon.Address{}, value: big.NewInt(1), wantErr: ErrZeroAddress},
		{name: "negative", to: bob, value: big.NewInt(-1), wantErr: ErrNegativeValue},
		{name: "exceeds balance", to: bob, value: big.NewInt(101), wantErr: ErrInsufficientBalance},
		{name: "self transfer", to: alice, value: big.NewInt(100)},
		{name: "ok", to: bob, value: big.NewInt(30)},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			err := nvm.RunSingleTX(tk, alice, func() error {
				ok, err := tk.Transfer(tc.to, tc.value)
				assert.Equal(t, err == nil, ok)
				return err
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.Nil(t, err)
		})
	}

	nvm.Call(tk, alice, func() {
		balance, err := tk.BalanceOf(alice)
		assert.Nil(t, err)
		assert.EqualValues(t, 70, balance.Int64())
		balance, err = tk.BalanceOf(bob)
		assert.Nil(t, err)
		assert.EqualValues(t, 30, balance.Int64())
		supply, err := tk.TotalSupply()
		assert.Nil(t, err)
		assert.EqualValues(t, 100, supply.Int64())
	})
}

func TestERC20_TransferFrom(t *testing.T) {
	nvm, tk := prepareToken(t)
	require.Nil(t, nvm.RunSingleTX(tk, admin, func() error {
		return tk.Mint(alice, big.NewInt(100))
	}))

	err := nvm.RunSingleTX(tk, bob, func() error {
		_, err := tk.TransferFrom(alice, bob, big.NewInt(10))
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.Nil(t, nvm.RunSingleTX(tk, alice, func() error {
		_, err := tk.Approve(bob, big.NewInt(30))
		return err
	}))
	require.Nil(t, nvm.RunSingleTX(tk, bob, func() error {
		_, err := tk.TransferFrom(alice, bob, big.NewInt(10))
		return err
	}))
	nvm.Call(tk, bob, func() {
		allowance, err := tk.Allowance(alice, bob)
		assert.Nil(t, err)
		assert.EqualValues(t, 20, allowance.Int64())
	})

	// infinite allowance is never decremented
	require.Nil(t, nvm.RunSingleTX(tk, alice, func() error {
		_, err := tk.Approve(bob, InfiniteAllowance)
		return err
	}))
	require.Nil(t, nvm.RunSingleTX(tk, bob, func() error {
		_, err := tk.TransferFrom(alice, bob, big.NewInt(50))
		return err
	}))
	nvm.Call(tk, bob, func() {
		allowance, err := tk.Allowance(alice, bob)
		assert.Nil(t, err)
		assert.Equal(t, InfiniteAllowance, allowance)
		balance, err := tk.BalanceOf(bob)
		assert.Nil(t, err)
		assert.EqualValues(t, 60, balance.Int64())
	})

	// a failed transfer leaves the allowance untouched
	require.Nil(t, nvm.RunSingleTX(tk, alice, func() error {
		_, err := tk.Approve(bob, big.NewInt(1000))
		return err
	}))
	err = nvm.RunSingleTX(tk, bob, func() error {
		_, err := tk.TransferFrom(alice, bob, big.NewInt(500))
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	nvm.Call(tk, bob, func() {
		allowance, err := tk.Allowance(alice, bob)
		assert.Nil(t, err)
		assert.EqualValues(t, 1000, allowance.Int64())
	})
}

func TestLoad(t *testing.T) {
	nvm, tk := prepareToken(t)
	require.Nil(t, nvm.RunSingleTX(tk, admin, func() error {
		return tk.Mint(alice, big.NewInt(5))
	}))

	loaded, err := Load(nvm.NewContext(alice), tokenAddr)
	require.Nil(t, err)
	balance, err := loaded.BalanceOf(alice)
	assert.Nil(t, err)
	assert.EqualValues(t, 5, balance.Int64())

	notToken := ethcommon.HexToAddress("0x3003")
	nvm.Registry.Register(notToken, func(ctx *common.VMContext) any {
		return struct{}{}
	})
	_, err = Load(nvm.NewContext(alice), notToken)
	assert.ErrorIs(t, err, ErrNotFungibleToken)

	aliased := ethcommon.HexToAddress("0x3004")
	nvm.Registry.Register(aliased, func(ctx *common.VMContext) any {
		return BuildConfig.Build(tokenAddr, ctx)
	})
	loaded, err = Load(nvm.NewContext(alice), aliased)
	require.Nil(t, err)
	name, err := loaded.Name()
	assert.Nil(t, err)
	assert.Equal(t, "Reward", name)
}
