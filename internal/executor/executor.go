package executor

import (
	"context"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system"
	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const (
	blockChanNumber = 1024
)

var _ Executor = (*BlockExecutor)(nil)

// BlockExecutor executes blocks of native contract calls against the state ledger
type BlockExecutor struct {
	ledger    ledger.StateLedger
	logger    logrus.FieldLogger
	blockC    chan *Block
	blockFeed event.Feed
	logsFeed  event.Feed
	ctx       context.Context
	cancel    context.CancelFunc

	rep  *repo.Repo
	lock *sync.Mutex
	nvm  *system.NativeVM

	currentHeight    uint64
	currentTimestamp uint64

	afterBlockHooks []func(block *Block)
}

// New creates executor instance, the current height is the committed state version
func New(rep *repo.Repo, stateLedger ledger.StateLedger) (*BlockExecutor, error) {
	ctx, cancel := context.WithCancel(context.Background())

	blockExecutor := &BlockExecutor{
		ledger:        stateLedger,
		logger:        loggers.Logger(loggers.Executor),
		ctx:           ctx,
		cancel:        cancel,
		blockC:        make(chan *Block, blockChanNumber),
		rep:           rep,
		lock:          &sync.Mutex{},
		nvm:           system.New(common.NewRegistry()),
		currentHeight: stateLedger.Version(),
	}

	for _, d := range rep.Config.Deployments {
		if err := blockExecutor.Deploy(system.Kind(d.Kind), ethcommon.HexToAddress(d.Address)); err != nil {
			cancel()
			return nil, err
		}
	}

	blockExecutor.afterBlockHooks = []func(block *Block){
		blockExecutor.autoCompound,
	}

	return blockExecutor, nil
}

// Deploy registers a contract implementation at addr
func (exec *BlockExecutor) Deploy(kind system.Kind, addr ethcommon.Address) error {
	if err := exec.nvm.Deploy(kind, addr); err != nil {
		return errors.Wrapf(err, "deploy %s", kind)
	}
	return nil
}

// Start starts executor
func (exec *BlockExecutor) Start() error {
	go exec.listenExecuteEvent()

	exec.logger.WithFields(logrus.Fields{
		"height": exec.currentHeight,
	}).Infof("BlockExecutor started")

	return nil
}

// Stop stops executor
func (exec *BlockExecutor) Stop() error {
	exec.cancel()

	exec.logger.Info("BlockExecutor stopped")

	return nil
}

// ExecuteBlock executes block synchronously
func (exec *BlockExecutor) ExecuteBlock(block *Block) {
	exec.processExecuteEvent(block)
}

func (exec *BlockExecutor) AsyncExecuteBlock(block *Block) {
	exec.blockC <- block
}

func (exec *BlockExecutor) CurrentHeight() uint64 {
	exec.lock.Lock()
	defer exec.lock.Unlock()
	return exec.currentHeight
}

// SubscribeBlockEvent registers a subscription of ExecutedEvent.
func (exec *BlockExecutor) SubscribeBlockEvent(ch chan<- ExecutedEvent) event.Subscription {
	return exec.blockFeed.Subscribe(ch)
}

func (exec *BlockExecutor) SubscribeLogsEvent(ch chan<- []*ethtypes.Log) event.Subscription {
	return exec.logsFeed.Subscribe(ch)
}

func (exec *BlockExecutor) listenExecuteEvent() {
	for {
		select {
		case <-exec.ctx.Done():
			return
		case block := <-exec.blockC:
			exec.processExecuteEvent(block)
		}
	}
}

// Call runs data against the latest state, every change is discarded
func (exec *BlockExecutor) Call(from, to ethcommon.Address, data []byte) ([]byte, error) {
	exec.lock.Lock()
	defer exec.lock.Unlock()

	snapshot := exec.ledger.Snapshot()
	defer exec.ledger.RevertToSnapshot(snapshot)
	return exec.nvm.Run(exec.newContext(from, exec.currentHeight, exec.currentTimestamp), to, data)
}

func (exec *BlockExecutor) newContext(from ethcommon.Address, number, timestamp uint64) *common.VMContext {
	return &common.VMContext{
		StateLedger:    exec.ledger,
		BlockNumber:    number,
		BlockTimestamp: timestamp,
		From:           from,
		Registry:       exec.nvm.Registry(),
		Config:         exec.rep.Config,
	}
}
