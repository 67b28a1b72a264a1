package ledger

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// StateLedger manipulates the contract state of all accounts.
type StateLedger interface {
	// GetOrCreateAccount
	GetOrCreateAccount(ethcommon.Address) IAccount

	// GetAccount returns nil if the account has never been created
	GetAccount(ethcommon.Address) IAccount

	// GetState
	GetState(ethcommon.Address, []byte) (bool, []byte)

	// SetState
	SetState(ethcommon.Address, []byte, []byte)

	// PrepareTx marks the beginning of a new transaction, logs emitted afterwards belong to it
	PrepareTx(txIndex uint)

	AddLog(log *ethtypes.Log)

	// GetLogs returns logs of the current block
	GetLogs() []*ethtypes.Log

	Snapshot() int

	RevertToSnapshot(int)

	// Finalise moves the dirty states of the current transaction into the pending states of the block
	Finalise()

	// Commit flushes the pending states into storage and returns the new version
	Commit() (uint64, error)

	Version() uint64

	// Close release resource
	Close()
}

// IAccount is the contract storage of a single address
type IAccount interface {
	fmt.Stringer

	GetAddress() ethcommon.Address

	GetState(key []byte) (bool, []byte)

	GetCommittedState(key []byte) []byte

	SetState(key []byte, value []byte)

	Finalise() [][]byte

	IsCreated() bool

	SetCreated(bool)
}
