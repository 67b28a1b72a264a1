package system

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/internal/executor/system/vault"
	"github.com/axiomesh/axiom-vault/pkg/packer"
)

var (
	tokenAddr = ethcommon.HexToAddress("0x0000000000000000000000000000000000002001")
	vaultAddr = ethcommon.HexToAddress("0x0000000000000000000000000000000000001001")

	admin = ethcommon.HexToAddress("0x1210000000000000000000000000000000000000")
	alice = ethcommon.HexToAddress("0x1220000000000000000000000000000000000000")
)

func call(t *testing.T, nvm *NativeVM, ctx *common.VMContext, to ethcommon.Address, contractAbi *abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractAbi.Pack(method, args...)
	require.Nil(t, err)
	ret, err := nvm.Run(ctx, to, data)
	if err != nil {
		return nil, err
	}
	return contractAbi.Unpack(method, ret)
}

func revertReason(t *testing.T, err error) string {
	var revertErr *packer.RevertError
	require.True(t, errors.As(err, &revertErr), "not a revert error: %v", err)
	reason, err := packer.UnpackRevertReason(revertErr.Data)
	require.Nil(t, err)
	return reason
}

func TestNativeVM_Deploy(t *testing.T) {
	testNVM := common.NewTestNVM(t)
	nvm := New(testNVM.Registry)

	require.Nil(t, nvm.Deploy(KindToken, tokenAddr))
	kind, ok := nvm.Kind(tokenAddr)
	assert.True(t, ok)
	assert.Equal(t, KindToken, kind)
	assert.True(t, testNVM.Registry.Has(tokenAddr))

	err := nvm.Deploy(KindVault, tokenAddr)
	assert.ErrorIs(t, err, ErrDeployedRepeated)
	assert.NotNil(t, nvm.Deploy(Kind("bridge"), vaultAddr))
	assert.NotNil(t, nvm.Deploy(KindVault, ethcommon.Address{}))

	_, ok = nvm.Kind(vaultAddr)
	assert.False(t, ok)
}

func TestNativeVM_Run(t *testing.T) {
	testNVM := common.NewTestNVM(t)
	nvm := New(testNVM.Registry)
	require.Nil(t, nvm.Deploy(KindToken, tokenAddr))
	tokenAbi := token.BuildConfig.GetABI()

	_, err := call(t, nvm, testNVM.NewContext(admin), tokenAddr, tokenAbi, "initialize", "Test Token", "TT", uint8(6), admin)
	require.Nil(t, err)
	_, err = call(t, nvm, testNVM.NewContext(admin), tokenAddr, tokenAbi, "mint", alice, big.NewInt(100))
	require.Nil(t, err)

	res, err := call(t, nvm, testNVM.NewContext(alice), tokenAddr, tokenAbi, "balanceOf", alice)
	require.Nil(t, err)
	require.Len(t, res, 1)
	assert.EqualValues(t, 100, res[0].(*big.Int).Int64())

	res, err = call(t, nvm, testNVM.NewContext(alice), tokenAddr, tokenAbi, "decimals")
	require.Nil(t, err)
	assert.Equal(t, uint8(6), res[0])

	res, err = call(t, nvm, testNVM.NewContext(alice), tokenAddr, tokenAbi, "transfer", admin, big.NewInt(40))
	require.Nil(t, err)
	assert.Equal(t, true, res[0])
	assert.Len(t, testNVM.Logs(tokenAddr, tokenAbi, "Transfer"), 2)

	t.Run("revert reason", func(t *testing.T) {
		_, err := call(t, nvm, testNVM.NewContext(alice), tokenAddr, tokenAbi, "mint", alice, big.NewInt(1))
		assert.Equal(t, common.ErrNotOwner.Error(), revertReason(t, err))

		_, err = call(t, nvm, testNVM.NewContext(alice), tokenAddr, tokenAbi, "transfer", admin, big.NewInt(1000))
		assert.Contains(t, revertReason(t, err), token.ErrInsufficientBalance.Error())
	})

	t.Run("bad call data", func(t *testing.T) {
		_, err := nvm.Run(testNVM.NewContext(alice), vaultAddr, []byte{0x70, 0xa0, 0x82, 0x31})
		assert.ErrorIs(t, err, ErrNotExistSystemContract)

		_, err = nvm.Run(testNVM.NewContext(alice), tokenAddr, []byte{0x70})
		assert.ErrorIs(t, err, ErrNotExistMethodName)

		_, err = nvm.Run(testNVM.NewContext(alice), tokenAddr, []byte{0xde, 0xad, 0xbe, 0xef})
		assert.ErrorIs(t, err, ErrNotExistMethodName)

		data, err := tokenAbi.Pack("balanceOf", alice)
		require.Nil(t, err)
		_, err = nvm.Run(testNVM.NewContext(alice), tokenAddr, data[:20])
		assert.NotNil(t, err)
	})
}

func TestNativeVM_RunVault(t *testing.T) {
	testNVM := common.NewTestNVM(t)
	nvm := New(testNVM.Registry)
	require.Nil(t, nvm.Deploy(KindToken, tokenAddr))
	require.Nil(t, nvm.Deploy(KindVault, vaultAddr))
	tokenAbi := token.BuildConfig.GetABI()
	vaultAbi := vault.BuildConfig.GetABI()

	_, err := call(t, nvm, testNVM.NewContext(admin), tokenAddr, tokenAbi, "initialize", "Asset", "AST", uint8(18), admin)
	require.Nil(t, err)
	_, err = call(t, nvm, testNVM.NewContext(admin), tokenAddr, tokenAbi, "mint", alice, big.NewInt(1000))
	require.Nil(t, err)
	_, err = call(t, nvm, testNVM.NewContext(admin), vaultAddr, vaultAbi, "initialize", tokenAddr, "Vault", "vAST", uint64(3600), admin)
	require.Nil(t, err)
	_, err = call(t, nvm, testNVM.NewContext(alice), tokenAddr, tokenAbi, "approve", vaultAddr, big.NewInt(1000))
	require.Nil(t, err)

	res, err := call(t, nvm, testNVM.NewContext(alice), vaultAddr, vaultAbi, "deposit", big.NewInt(300), alice)
	require.Nil(t, err)
	assert.EqualValues(t, 300, res[0].(*big.Int).Int64())

	res, err = call(t, nvm, testNVM.NewContext(alice), vaultAddr, vaultAbi, "canWithdraw", alice)
	require.Nil(t, err)
	assert.Equal(t, false, res[0])

	_, err = call(t, nvm, testNVM.NewContext(alice), vaultAddr, vaultAbi, "redeem", big.NewInt(300), alice, alice)
	assert.Contains(t, revertReason(t, err), vault.ErrLocked.Error())

	testNVM.AdvanceTime(time.Hour)
	res, err = call(t, nvm, testNVM.NewContext(alice), vaultAddr, vaultAbi, "redeem", big.NewInt(300), alice, alice)
	require.Nil(t, err)
	assert.EqualValues(t, 300, res[0].(*big.Int).Int64())
}
