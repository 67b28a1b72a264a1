package app

import (
	"context"
	"fmt"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor"
	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/internal/storagemgr"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

var ErrTxPoolFull = errors.New("tx pool is full")

// AxiomVault is a single node sealing submitted transactions into blocks on a timer
type AxiomVault struct {
	Ctx           context.Context
	Cancel        context.CancelFunc
	Repo          *repo.Repo
	logger        logrus.FieldLogger
	StateLedger   *ledger.StateLedgerImpl
	BlockExecutor *executor.BlockExecutor

	lock    sync.Mutex
	pending []*executor.Transaction
	// highest block timestamp handed to the executor
	lastTimestamp uint64
	wg            sync.WaitGroup
}

func NewAxiomVault(rep *repo.Repo, ctx context.Context, cancel context.CancelFunc) (*AxiomVault, error) {
	if err := storagemgr.Initialize(rep.Config.Storage); err != nil {
		return nil, fmt.Errorf("storage initialize: %w", err)
	}

	stateLedger, err := ledger.New(rep)
	if err != nil {
		return nil, fmt.Errorf("create state ledger: %w", err)
	}

	blockExecutor, err := executor.New(rep, stateLedger)
	if err != nil {
		stateLedger.Close()
		return nil, fmt.Errorf("create block executor: %w", err)
	}

	return &AxiomVault{
		Ctx:           ctx,
		Cancel:        cancel,
		Repo:          rep,
		logger:        loggers.Logger(loggers.App),
		StateLedger:   stateLedger,
		BlockExecutor: blockExecutor,
	}, nil
}

func (axm *AxiomVault) Start() error {
	if err := axm.BlockExecutor.Start(); err != nil {
		return fmt.Errorf("block executor start: %w", err)
	}

	axm.start()

	axm.logger.WithFields(logrus.Fields{
		"height":         axm.BlockExecutor.CurrentHeight(),
		"block_interval": axm.Repo.Config.Ledger.BlockInterval.String(),
		"deployments":    len(axm.Repo.Config.Deployments),
	}).Infof("%s started", repo.AppName)
	return nil
}

func (axm *AxiomVault) Stop() error {
	axm.Cancel()
	axm.wg.Wait()

	if err := axm.BlockExecutor.Stop(); err != nil {
		return fmt.Errorf("block executor stop: %w", err)
	}
	axm.StateLedger.Close()

	axm.logger.Infof("%s stopped", repo.AppName)
	return nil
}

// SubmitTx queues tx for the next block
func (axm *AxiomVault) SubmitTx(tx *executor.Transaction) (ethcommon.Hash, error) {
	axm.lock.Lock()
	defer axm.lock.Unlock()

	// keep at most 10 blocks worth of transactions in memory
	if uint64(len(axm.pending)) >= 10*axm.Repo.Config.Ledger.BlockMaxTxNum {
		return ethcommon.Hash{}, ErrTxPoolFull
	}
	axm.pending = append(axm.pending, tx)
	return tx.Hash(), nil
}

// Call runs a read only call against the latest state
func (axm *AxiomVault) Call(from, to ethcommon.Address, data []byte) ([]byte, error) {
	return axm.BlockExecutor.Call(from, to, data)
}
