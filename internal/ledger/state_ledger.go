package ledger

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/storagemgr"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

var _ StateLedger = (*StateLedgerImpl)(nil)

var versionKey = []byte("state-version")

type revision struct {
	id           int
	changerIndex int
}

type StateLedgerImpl struct {
	logger  logrus.FieldLogger
	backend storagemgr.Storage
	closer  func() error

	accounts map[ethcommon.Address]*SimpleAccount

	// committed accounts kept warm across blocks
	accountCache *lru.Cache[ethcommon.Address, *SimpleAccount]

	validRevisions []revision
	nextRevisionId int
	changer        *stateChanger

	logs    []*ethtypes.Log
	txIndex uint
	version uint64
}

// New opens the state ledger under the repo storage directory
func New(rep *repo.Repo) (*StateLedgerImpl, error) {
	p := storagemgr.GetLedgerComponentPath(rep, storagemgr.Ledger)
	backend, err := storagemgr.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "create ledger storage")
	}
	l, err := NewStateLedger(backend, rep.Config.Ledger.AccountCacheSize)
	if err != nil {
		return nil, err
	}
	l.closer = func() error {
		return storagemgr.Close(p)
	}
	return l, nil
}

// NewMemory returns a state ledger backed by memory storage
func NewMemory() *StateLedgerImpl {
	l, err := NewStateLedger(storagemgr.NewMemory(), 0)
	if err != nil {
		panic(err)
	}
	return l
}

func NewStateLedger(backend storagemgr.Storage, accountCacheSize int) (*StateLedgerImpl, error) {
	if accountCacheSize <= 0 {
		accountCacheSize = 1024
	}
	accountCache, err := lru.New[ethcommon.Address, *SimpleAccount](accountCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create account cache")
	}

	l := &StateLedgerImpl{
		logger:       loggers.Logger(loggers.Ledger),
		backend:      backend,
		closer:       backend.Close,
		accounts:     make(map[ethcommon.Address]*SimpleAccount),
		accountCache: accountCache,
		changer:      newChanger(),
	}
	if raw := backend.Get(versionKey); raw != nil {
		if len(raw) != 8 {
			return nil, errors.Errorf("corrupted state version: %x", raw)
		}
		l.version = binary.BigEndian.Uint64(raw)
	}
	versionMetric.Set(float64(l.version))
	return l, nil
}

func (l *StateLedgerImpl) getAccount(addr ethcommon.Address) *SimpleAccount {
	if account, ok := l.accounts[addr]; ok {
		return account
	}

	if account, ok := l.accountCache.Get(addr); ok {
		accountCacheHit.Inc()
		l.accounts[addr] = account
		return account
	}
	accountCacheMiss.Inc()

	if !l.backend.Has(compositeAccountKey(addr)) {
		return nil
	}
	account := NewAccount(l.backend, addr, l.changer)
	l.accounts[addr] = account
	l.logger.Debugf("[GetAccount] load account from storage, addr: %v", addr)
	return account
}

// GetAccount get account info using account Address
func (l *StateLedgerImpl) GetAccount(addr ethcommon.Address) IAccount {
	account := l.getAccount(addr)
	if account == nil {
		return nil
	}
	return account
}

func (l *StateLedgerImpl) GetOrCreateAccount(addr ethcommon.Address) IAccount {
	account := l.getAccount(addr)
	if account == nil {
		account = NewAccount(l.backend, addr, l.changer)
		account.SetCreated(true)
		l.changer.append(createObjectChange{account: &addr})
		l.accounts[addr] = account
		l.logger.Debugf("[GetOrCreateAccount] create account, addr: %v", addr)
	}
	return account
}

// GetState get account state value using account Address and key
func (l *StateLedgerImpl) GetState(addr ethcommon.Address, key []byte) (bool, []byte) {
	account := l.getAccount(addr)
	if account == nil {
		return false, nil
	}
	return account.GetState(key)
}

// SetState set account state value using account Address and key
func (l *StateLedgerImpl) SetState(addr ethcommon.Address, key []byte, v []byte) {
	l.GetOrCreateAccount(addr).SetState(key, v)
}

func (l *StateLedgerImpl) PrepareTx(txIndex uint) {
	l.txIndex = txIndex
}

func (l *StateLedgerImpl) AddLog(log *ethtypes.Log) {
	log.TxIndex = l.txIndex
	log.Index = uint(len(l.logs))
	l.changer.append(addLogChange{})
	l.logs = append(l.logs, log)
}

func (l *StateLedgerImpl) GetLogs() []*ethtypes.Log {
	return l.logs
}

func (l *StateLedgerImpl) Snapshot() int {
	id := l.nextRevisionId
	l.nextRevisionId++
	l.validRevisions = append(l.validRevisions, revision{id: id, changerIndex: l.changer.length()})
	return id
}

func (l *StateLedgerImpl) RevertToSnapshot(revid int) {
	idx := sort.Search(len(l.validRevisions), func(i int) bool {
		return l.validRevisions[i].id >= revid
	})
	if idx == len(l.validRevisions) || l.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannod be reverted", revid))
	}
	snap := l.validRevisions[idx].changerIndex

	l.changer.revert(l, snap)
	l.validRevisions = l.validRevisions[:idx]
}

func (l *StateLedgerImpl) Finalise() {
	for _, account := range l.accounts {
		account.Finalise()
	}
	l.changer.reset()
	l.validRevisions = l.validRevisions[:0]
	l.nextRevisionId = 0
}

func (l *StateLedgerImpl) Commit() (uint64, error) {
	start := time.Now()
	l.Finalise()

	batch := l.backend.NewBatch()
	flushed := 0
	for addr, account := range l.accounts {
		flushed += account.flush(batch)
		l.accountCache.Add(addr, account)
	}
	l.version++
	batch.Put(versionKey, binary.BigEndian.AppendUint64(nil, l.version))
	batch.Commit()

	l.accounts = make(map[ethcommon.Address]*SimpleAccount)
	l.logs = nil
	l.txIndex = 0

	persistBlockDuration.Observe(float64(time.Since(start)) / float64(time.Second))
	flushedStateCounter.Add(float64(flushed))
	versionMetric.Set(float64(l.version))
	l.logger.WithFields(logrus.Fields{
		"version": l.version,
		"states":  flushed,
		"elapse":  time.Since(start),
	}).Debug("Commit state ledger")
	return l.version, nil
}

func (l *StateLedgerImpl) Version() uint64 {
	return l.version
}

func (l *StateLedgerImpl) Close() {
	if err := l.closer(); err != nil {
		l.logger.WithError(err).Warn("Close state ledger storage failed")
	}
}
