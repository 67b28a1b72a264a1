package executor

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/axiom-vault/internal/executor/system"
	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/compounder"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/internal/executor/system/vault"
	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

var (
	tokenAddr   = ethcommon.HexToAddress("0x0000000000000000000000000000000000002001")
	vaultAddr   = ethcommon.HexToAddress("0x0000000000000000000000000000000000001001")
	wrapperAddr = ethcommon.HexToAddress("0x0000000000000000000000000000000000001002")
	routerAddr  = ethcommon.HexToAddress("0x0000000000000000000000000000000000004001")

	admin = ethcommon.HexToAddress("0x3f9d18f7c3a6e5e4c0b877fe3e688ab08840b997")
	alice = ethcommon.HexToAddress("0x79a1215469FaB6f9c63c1816b45183AD3624bE34")
	bob   = ethcommon.HexToAddress("0x97c8B516D19edBf575D72a172Af7F418BE498C37")
)

const blockTime = uint64(1700000000)

func newTestExecutor(t *testing.T, modify func(cfg *repo.Config)) *BlockExecutor {
	r := repo.MockRepo(t)
	r.Config.Deployments = []repo.Deployment{
		{Kind: string(system.KindToken), Address: tokenAddr.Hex()},
		{Kind: string(system.KindVault), Address: vaultAddr.Hex()},
		{Kind: string(system.KindCompounder), Address: wrapperAddr.Hex()},
		{Kind: string(system.KindRouter), Address: routerAddr.Hex()},
	}
	if modify != nil {
		modify(r.Config)
	}
	exec, err := New(r, ledger.NewMemory())
	require.Nil(t, err)
	return exec
}

func newTx(t *testing.T, from, to ethcommon.Address, contractAbi *abi.ABI, method string, args ...any) *Transaction {
	data, err := contractAbi.Pack(method, args...)
	require.Nil(t, err)
	return &Transaction{From: from, To: to, Data: data}
}

func callView(t *testing.T, exec *BlockExecutor, to ethcommon.Address, contractAbi *abi.ABI, method string, args ...any) []any {
	data, err := contractAbi.Pack(method, args...)
	require.Nil(t, err)
	ret, err := exec.Call(alice, to, data)
	require.Nil(t, err)
	res, err := contractAbi.Unpack(method, ret)
	require.Nil(t, err)
	return res
}

func TestNew(t *testing.T) {
	exec := newTestExecutor(t, nil)
	assert.NotNil(t, exec.blockC)
	assert.EqualValues(t, 0, exec.CurrentHeight())

	kind, ok := exec.nvm.Kind(wrapperAddr)
	assert.True(t, ok)
	assert.Equal(t, system.KindCompounder, kind)

	r := repo.MockRepo(t)
	r.Config.Deployments = []repo.Deployment{
		{Kind: string(system.KindToken), Address: tokenAddr.Hex()},
		{Kind: string(system.KindVault), Address: tokenAddr.Hex()},
	}
	_, err := New(r, ledger.NewMemory())
	assert.ErrorIs(t, err, system.ErrDeployedRepeated)
}

func TestBlockExecutor_ExecuteBlock(t *testing.T) {
	exec := newTestExecutor(t, nil)
	tokenAbi := token.BuildConfig.GetABI()

	blockC := make(chan ExecutedEvent, 1)
	sub := exec.SubscribeBlockEvent(blockC)
	defer sub.Unsubscribe()

	block := &Block{
		Number:    1,
		Timestamp: blockTime,
		Transactions: []*Transaction{
			newTx(t, admin, tokenAddr, tokenAbi, "initialize", "Asset", "AST", uint8(18), admin),
			newTx(t, admin, tokenAddr, tokenAbi, "mint", alice, big.NewInt(1000)),
			newTx(t, alice, tokenAddr, tokenAbi, "mint", alice, big.NewInt(1000)),
			newTx(t, alice, tokenAddr, tokenAbi, "transfer", bob, big.NewInt(100)),
		},
	}
	exec.ExecuteBlock(block)

	var executed ExecutedEvent
	select {
	case executed = <-blockC:
	case <-time.After(time.Second):
		t.Fatal("no executed event")
	}
	require.Len(t, executed.Receipts, 4)
	receipts := executed.Receipts
	assert.False(t, receipts[0].Failed())
	assert.False(t, receipts[1].Failed())
	assert.True(t, receipts[2].Failed())
	assert.Equal(t, common.ErrNotOwner.Error(), receipts[2].RevertReason)
	assert.Empty(t, receipts[2].Logs)
	assert.False(t, receipts[3].Failed())
	require.Len(t, receipts[3].Logs, 1)
	assert.Equal(t, receipts[3].TxHash, receipts[3].Logs[0].TxHash)
	assert.EqualValues(t, 3, receipts[3].Logs[0].TxIndex)
	assert.Equal(t, block.Transactions[3].Hash(), receipts[3].TxHash)

	assert.EqualValues(t, 1, exec.CurrentHeight())
	assert.EqualValues(t, 1, block.StateVersion)
	assert.NotEqual(t, emptyRootHash, block.ReceiptRoot)

	res := callView(t, exec, tokenAddr, tokenAbi, "balanceOf", bob)
	assert.EqualValues(t, 100, res[0].(*big.Int).Int64())
	res = callView(t, exec, tokenAddr, tokenAbi, "totalSupply")
	assert.EqualValues(t, 1000, res[0].(*big.Int).Int64())

	// a view call leaves no trace
	data, err := tokenAbi.Pack("transfer", bob, big.NewInt(100))
	require.Nil(t, err)
	_, err = exec.Call(alice, tokenAddr, data)
	require.Nil(t, err)
	res = callView(t, exec, tokenAddr, tokenAbi, "balanceOf", bob)
	assert.EqualValues(t, 100, res[0].(*big.Int).Int64())

	t.Run("unmatched height is skipped", func(t *testing.T) {
		exec.ExecuteBlock(&Block{Number: 5, Timestamp: blockTime})
		assert.EqualValues(t, 1, exec.CurrentHeight())
		select {
		case <-blockC:
			t.Fatal("unexpected executed event")
		default:
		}
	})

	t.Run("empty block", func(t *testing.T) {
		empty := &Block{Number: 2, Timestamp: blockTime + 1}
		exec.ExecuteBlock(empty)
		<-blockC
		assert.Equal(t, emptyRootHash, empty.ReceiptRoot)
		assert.EqualValues(t, 2, exec.CurrentHeight())
	})
}

func TestBlockExecutor_AsyncExecuteBlock(t *testing.T) {
	exec := newTestExecutor(t, nil)
	tokenAbi := token.BuildConfig.GetABI()
	require.Nil(t, exec.Start())
	defer func() {
		assert.Nil(t, exec.Stop())
	}()

	logsC := make(chan []*ethtypes.Log, 1)
	sub := exec.SubscribeLogsEvent(logsC)
	defer sub.Unsubscribe()

	exec.AsyncExecuteBlock(&Block{
		Number:    1,
		Timestamp: blockTime,
		Transactions: []*Transaction{
			newTx(t, admin, tokenAddr, tokenAbi, "initialize", "Asset", "AST", uint8(18), admin),
			newTx(t, admin, tokenAddr, tokenAbi, "mint", alice, big.NewInt(1000)),
		},
	})

	select {
	case logs := <-logsC:
		assert.Len(t, logs, 1)
	case <-time.After(3 * time.Second):
		t.Fatal("no logs event")
	}
	assert.EqualValues(t, 1, exec.CurrentHeight())
}

func TestBlockExecutor_KeeperCompounds(t *testing.T) {
	exec := newTestExecutor(t, func(cfg *repo.Config) {
		cfg.Compounder.KeeperInterval = 2
	})
	tokenAbi := token.BuildConfig.GetABI()
	vaultAbi := vault.BuildConfig.GetABI()
	wrapperAbi := compounder.BuildConfig.GetABI()

	setup := &Block{
		Number:    1,
		Timestamp: blockTime,
		Transactions: []*Transaction{
			newTx(t, admin, tokenAddr, tokenAbi, "initialize", "Asset", "AST", uint8(18), admin),
			newTx(t, admin, tokenAddr, tokenAbi, "mint", alice, big.NewInt(1000)),
			newTx(t, admin, tokenAddr, tokenAbi, "mint", admin, big.NewInt(1000)),
			newTx(t, admin, vaultAddr, vaultAbi, "initialize", tokenAddr, "Vault", "vAST", uint64(0), admin),
			newTx(t, admin, wrapperAddr, wrapperAbi, "initialize", vaultAddr, routerAddr, "Compounding", "cAST", admin),
			newTx(t, alice, tokenAddr, tokenAbi, "approve", wrapperAddr, big.NewInt(1000)),
			newTx(t, alice, wrapperAddr, wrapperAbi, "deposit", big.NewInt(100), alice),
			newTx(t, admin, tokenAddr, tokenAbi, "approve", vaultAddr, big.NewInt(1000)),
			newTx(t, admin, vaultAddr, vaultAbi, "addReward", tokenAddr, big.NewInt(50)),
		},
	}
	blockC := make(chan ExecutedEvent, 2)
	sub := exec.SubscribeBlockEvent(blockC)
	defer sub.Unsubscribe()

	exec.ExecuteBlock(setup)
	executed := <-blockC
	for i, receipt := range executed.Receipts {
		assert.False(t, receipt.Failed(), "tx %d: %s", i, receipt.RevertReason)
	}
	res := callView(t, exec, vaultAddr, vaultAbi, "balanceOf", wrapperAddr)
	assert.EqualValues(t, 100, res[0].(*big.Int).Int64())

	exec.ExecuteBlock(&Block{Number: 2, Timestamp: blockTime + 10})
	<-blockC
	res = callView(t, exec, vaultAddr, vaultAbi, "balanceOf", wrapperAddr)
	assert.EqualValues(t, 150, res[0].(*big.Int).Int64())
	res = callView(t, exec, wrapperAddr, wrapperAbi, "exchangeRate")
	assert.Equal(t, "1500000000000000000", res[0].(*big.Int).String())
}
