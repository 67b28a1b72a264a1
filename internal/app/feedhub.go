package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor"
)

func (axm *AxiomVault) start() {
	axm.wg.Add(2)
	go axm.listenGenerateBlock()
	go axm.listenReportBlock()
}

// listenGenerateBlock seals the pending transactions every block interval, empty blocks included
func (axm *AxiomVault) listenGenerateBlock() {
	defer axm.wg.Done()

	ticker := time.NewTicker(axm.Repo.Config.Ledger.BlockInterval.ToDuration())
	defer ticker.Stop()

	for {
		select {
		case <-axm.Ctx.Done():
			return
		case now := <-ticker.C:
			axm.BlockExecutor.ExecuteBlock(axm.generateBlock(now))
		}
	}
}

func (axm *AxiomVault) generateBlock(now time.Time) *executor.Block {
	axm.lock.Lock()
	defer axm.lock.Unlock()

	size := uint64(len(axm.pending))
	if size > axm.Repo.Config.Ledger.BlockMaxTxNum {
		size = axm.Repo.Config.Ledger.BlockMaxTxNum
	}
	txs := axm.pending[:size:size]
	axm.pending = axm.pending[size:]

	timestamp := uint64(now.Unix())
	if timestamp < axm.lastTimestamp {
		timestamp = axm.lastTimestamp
	}
	axm.lastTimestamp = timestamp

	return &executor.Block{
		Number:       axm.BlockExecutor.CurrentHeight() + 1,
		Timestamp:    timestamp,
		Transactions: txs,
	}
}

func (axm *AxiomVault) listenReportBlock() {
	defer axm.wg.Done()

	blockCh := make(chan executor.ExecutedEvent, 16)
	blockSub := axm.BlockExecutor.SubscribeBlockEvent(blockCh)
	defer blockSub.Unsubscribe()

	for {
		select {
		case <-axm.Ctx.Done():
			return
		case ev := <-blockCh:
			axm.reportBlock(ev)
		}
	}
}

func (axm *AxiomVault) reportBlock(ev executor.ExecutedEvent) {
	failed := 0
	for _, receipt := range ev.Receipts {
		if receipt.Failed() {
			failed++
		}
	}
	axm.logger.WithFields(logrus.Fields{
		"height":       ev.Block.Number,
		"txs":          len(ev.Block.Transactions),
		"failed":       failed,
		"receipt_root": ev.Block.ReceiptRoot,
	}).Debug("Block reported")
}
