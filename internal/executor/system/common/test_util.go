package common

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

// TestNVM runs contract calls against a memory ledger with a controllable block clock
type TestNVM struct {
	t              testing.TB
	Rep            *repo.Repo
	StateLedger    ledger.StateLedger
	Registry       *Registry
	BlockNumber    uint64
	BlockTimestamp uint64
}

func NewTestNVM(t testing.TB) *TestNVM {
	return &TestNVM{
		t:              t,
		Rep:            repo.MockRepo(t),
		StateLedger:    ledger.NewMemory(),
		Registry:       NewRegistry(),
		BlockNumber:    1,
		BlockTimestamp: uint64(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()),
	}
}

func (nvm *TestNVM) AdvanceTime(d time.Duration) {
	nvm.BlockTimestamp += uint64(d / time.Second)
	nvm.BlockNumber++
}

func (nvm *TestNVM) NewContext(from ethcommon.Address) *VMContext {
	return &VMContext{
		StateLedger:    nvm.StateLedger,
		BlockNumber:    nvm.BlockNumber,
		BlockTimestamp: nvm.BlockTimestamp,
		From:           from,
		Registry:       nvm.Registry,
		Config:         nvm.Rep.Config,
	}
}

// RunSingleTX executes like a transaction: every change is reverted if executor returns an error
func (nvm *TestNVM) RunSingleTX(contract SystemContract, from ethcommon.Address, executor func() error) error {
	snapshot := nvm.StateLedger.Snapshot()
	contract.SetContext(nvm.NewContext(from))
	if err := executor(); err != nil {
		nvm.StateLedger.RevertToSnapshot(snapshot)
		return err
	}
	nvm.StateLedger.Finalise()
	return nil
}

// Call executes a read only call, all changes are discarded
func (nvm *TestNVM) Call(contract SystemContract, from ethcommon.Address, executor func()) {
	snapshot := nvm.StateLedger.Snapshot()
	contract.SetContext(nvm.NewContext(from))
	executor()
	nvm.StateLedger.RevertToSnapshot(snapshot)
}

// Logs returns the logs emitted by addr for the named event in the current block
func (nvm *TestNVM) Logs(addr ethcommon.Address, contractAbi *abi.ABI, eventName string) []*ethtypes.Log {
	return FilterLogs(nvm.StateLedger.GetLogs(), addr, contractAbi.Events[eventName])
}

func FilterLogs(logs []*ethtypes.Log, addr ethcommon.Address, event abi.Event) []*ethtypes.Log {
	var res []*ethtypes.Log
	for _, log := range logs {
		if log.Address == addr && len(log.Topics) > 0 && log.Topics[0] == event.ID {
			res = append(res, log)
		}
	}
	return res
}
