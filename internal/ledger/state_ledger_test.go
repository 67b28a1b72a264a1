package ledger

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/axiom-vault/internal/storagemgr"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

var (
	addr1 = ethcommon.HexToAddress("0x0000000000000000000000000000000000001001")
	addr2 = ethcommon.HexToAddress("0x0000000000000000000000000000000000001002")
)

func TestStateLedger_GetAccount(t *testing.T) {
	l := NewMemory()

	assert.Nil(t, l.GetAccount(addr1))
	exist, val := l.GetState(addr1, []byte("k"))
	assert.False(t, exist)
	assert.Nil(t, val)

	account := l.GetOrCreateAccount(addr1)
	require.NotNil(t, account)
	assert.True(t, account.IsCreated())
	assert.Equal(t, addr1, account.GetAddress())
	assert.Equal(t, account, l.GetAccount(addr1))
}

func TestStateLedger_SnapshotAndRevert(t *testing.T) {
	l := NewMemory()

	l.SetState(addr1, []byte("k1"), []byte("v1"))
	snap := l.Snapshot()
	l.SetState(addr1, []byte("k1"), []byte("v2"))
	l.SetState(addr2, []byte("k2"), []byte("v3"))
	l.AddLog(&ethtypes.Log{Address: addr2})
	assert.Len(t, l.GetLogs(), 1)

	l.RevertToSnapshot(snap)

	exist, val := l.GetState(addr1, []byte("k1"))
	assert.True(t, exist)
	assert.Equal(t, []byte("v1"), val)
	assert.Nil(t, l.GetAccount(addr2))
	assert.Empty(t, l.GetLogs())

	assert.Panics(t, func() {
		l.RevertToSnapshot(snap)
	})
}

func TestStateLedger_NestedSnapshot(t *testing.T) {
	l := NewMemory()

	outer := l.Snapshot()
	l.SetState(addr1, []byte("k"), []byte("a"))
	inner := l.Snapshot()
	l.SetState(addr1, []byte("k"), []byte("b"))

	l.RevertToSnapshot(inner)
	_, val := l.GetState(addr1, []byte("k"))
	assert.Equal(t, []byte("a"), val)

	l.RevertToSnapshot(outer)
	assert.Nil(t, l.GetAccount(addr1))
}

func TestStateLedger_Logs(t *testing.T) {
	l := NewMemory()

	l.PrepareTx(3)
	l.AddLog(&ethtypes.Log{Address: addr1})
	l.AddLog(&ethtypes.Log{Address: addr2})

	logs := l.GetLogs()
	require.Len(t, logs, 2)
	assert.EqualValues(t, 3, logs[0].TxIndex)
	assert.EqualValues(t, 0, logs[0].Index)
	assert.EqualValues(t, 1, logs[1].Index)

	_, err := l.Commit()
	require.Nil(t, err)
	assert.Empty(t, l.GetLogs())
}

func TestStateLedger_Commit(t *testing.T) {
	backend := storagemgr.NewMemory()
	l, err := NewStateLedger(backend, 2)
	require.Nil(t, err)
	assert.EqualValues(t, 0, l.Version())

	l.SetState(addr1, []byte("k1"), []byte("v1"))
	l.SetState(addr1, []byte("k2"), []byte("v2"))
	version, err := l.Commit()
	require.Nil(t, err)
	assert.EqualValues(t, 1, version)

	// delete a committed key
	l.SetState(addr1, []byte("k2"), nil)
	version, err = l.Commit()
	require.Nil(t, err)
	assert.EqualValues(t, 2, version)

	reopened, err := NewStateLedger(backend, 2)
	require.Nil(t, err)
	assert.EqualValues(t, 2, reopened.Version())

	account := reopened.GetAccount(addr1)
	require.NotNil(t, account)
	assert.False(t, account.IsCreated())
	exist, val := reopened.GetState(addr1, []byte("k1"))
	assert.True(t, exist)
	assert.Equal(t, []byte("v1"), val)
	exist, _ = reopened.GetState(addr1, []byte("k2"))
	assert.False(t, exist)
	assert.Equal(t, []byte("v1"), account.GetCommittedState([]byte("k1")))
}

func TestStateLedger_FinaliseKeepsPending(t *testing.T) {
	l := NewMemory()

	l.SetState(addr1, []byte("k"), []byte("v"))
	l.Finalise()

	// nothing left to revert inside the block after finalise
	snap := l.Snapshot()
	l.SetState(addr1, []byte("k"), []byte("w"))
	l.RevertToSnapshot(snap)

	_, val := l.GetState(addr1, []byte("k"))
	assert.Equal(t, []byte("v"), val)
}

func TestNew(t *testing.T) {
	rep := repo.MockRepo(t)
	require.Nil(t, storagemgr.Initialize(rep.Config.Storage))

	l, err := New(rep)
	require.Nil(t, err)
	l.SetState(addr1, []byte("k"), []byte("v"))
	_, err = l.Commit()
	require.Nil(t, err)
	l.Close()
}
