package ledger

import (
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/storagemgr"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
)

var _ IAccount = (*SimpleAccount)(nil)

type bytesLazyLogger struct {
	bytes []byte
}

func (l *bytesLazyLogger) String() string {
	return hexutil.Encode(l.bytes)
}

type SimpleAccount struct {
	logger logrus.FieldLogger
	Addr   ethcommon.Address

	// The confirmed state of the previous block
	originState map[string][]byte

	// Modified state of previous transactions in the current block
	pendingState map[string][]byte

	// The latest state of the current transaction
	dirtyState map[string][]byte

	backend storagemgr.Storage
	changer *stateChanger
	created bool // Flag whether the account was created in the current block
}

func NewMockAccount(addr ethcommon.Address) *SimpleAccount {
	return NewAccount(storagemgr.NewMemory(), addr, newChanger())
}

func NewAccount(backend storagemgr.Storage, addr ethcommon.Address, changer *stateChanger) *SimpleAccount {
	return &SimpleAccount{
		logger:       loggers.Logger(loggers.Ledger),
		Addr:         addr,
		originState:  make(map[string][]byte),
		pendingState: make(map[string][]byte),
		dirtyState:   make(map[string][]byte),
		backend:      backend,
		changer:      changer,
		created:      false,
	}
}

func (o *SimpleAccount) String() string {
	return fmt.Sprintf("{addr: %s, dirty: %d, pending: %d}", o.Addr, len(o.dirtyState), len(o.pendingState))
}

func (o *SimpleAccount) GetAddress() ethcommon.Address {
	return o.Addr
}

// GetState Get state from local cache, if not found, then get it from DB
func (o *SimpleAccount) GetState(key []byte) (bool, []byte) {
	if value, exist := o.dirtyState[string(key)]; exist {
		o.logger.Debugf("[GetState] get from dirty, addr: %v, key: %v, state: %v", o.Addr, &bytesLazyLogger{bytes: key}, &bytesLazyLogger{bytes: value})
		return value != nil, value
	}

	if value, exist := o.pendingState[string(key)]; exist {
		o.logger.Debugf("[GetState] get from pending, addr: %v, key: %v, state: %v", o.Addr, &bytesLazyLogger{bytes: key}, &bytesLazyLogger{bytes: value})
		return value != nil, value
	}

	val := o.getOriginState(key)
	return val != nil, val
}

func (o *SimpleAccount) getOriginState(key []byte) []byte {
	if value, exist := o.originState[string(key)]; exist {
		o.logger.Debugf("[GetState] get from origin, addr: %v, key: %v, state: %v", o.Addr, &bytesLazyLogger{bytes: key}, &bytesLazyLogger{bytes: value})
		return value
	}

	start := time.Now()
	val := o.backend.Get(compositeStorageKey(o.Addr, key))
	stateReadDuration.Observe(float64(time.Since(start)) / float64(time.Second))
	o.logger.Debugf("[GetState] get from storage, addr: %v, key: %v, state: %v", o.Addr, &bytesLazyLogger{bytes: key}, &bytesLazyLogger{bytes: val})

	o.originState[string(key)] = val
	return val
}

// GetCommittedState returns the state before the current block
func (o *SimpleAccount) GetCommittedState(key []byte) []byte {
	return o.getOriginState(key)
}

// SetState Set account state
func (o *SimpleAccount) SetState(key []byte, value []byte) {
	_, prev := o.GetState(key)
	addr := o.Addr
	o.changer.append(storageChange{
		account:  &addr,
		key:      key,
		prevalue: prev,
	})
	o.logger.Debugf("[SetState] addr: %v, key: %v, before state: %v, after state: %v", o.Addr, &bytesLazyLogger{bytes: key}, &bytesLazyLogger{bytes: prev}, &bytesLazyLogger{bytes: value})
	o.setState(key, value)
}

func (o *SimpleAccount) setState(key []byte, value []byte) {
	o.dirtyState[string(key)] = value
}

// Finalise moves all dirty states into the pending states.
// Return all dirty state keys
func (o *SimpleAccount) Finalise() [][]byte {
	keys := make([][]byte, 0, len(o.dirtyState))
	for key, value := range o.dirtyState {
		o.pendingState[key] = value
		keys = append(keys, []byte(key))
	}
	o.dirtyState = make(map[string][]byte)
	return keys
}

// flush writes the pending states into the batch and promotes them to origin states
func (o *SimpleAccount) flush(batch storagemgr.Batch) int {
	if o.created {
		batch.Put(compositeAccountKey(o.Addr), []byte{1})
	}
	for key, value := range o.pendingState {
		if value == nil {
			batch.Delete(compositeStorageKey(o.Addr, []byte(key)))
		} else {
			batch.Put(compositeStorageKey(o.Addr, []byte(key)), value)
		}
		o.originState[key] = value
	}
	size := len(o.pendingState)
	o.pendingState = make(map[string][]byte)
	o.created = false
	return size
}

func (o *SimpleAccount) IsCreated() bool {
	return o.created
}

func (o *SimpleAccount) SetCreated(created bool) {
	o.created = created
}

func compositeAccountKey(addr ethcommon.Address) []byte {
	return append([]byte("a-"), addr.Bytes()...)
}

func compositeStorageKey(addr ethcommon.Address, key []byte) []byte {
	k := append([]byte("s-"), addr.Bytes()...)
	return append(k, key...)
}
