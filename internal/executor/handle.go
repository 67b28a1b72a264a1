package executor

import (
	"time"

	"github.com/cbergoon/merkletree"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/pkg/packer"
)

// emptyRootHash is the root of an empty receipt list, compatible with Ethereum
var emptyRootHash = ethcommon.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

func (exec *BlockExecutor) processExecuteEvent(block *Block) {
	exec.lock.Lock()
	defer exec.lock.Unlock()

	current := time.Now()

	// check executor handle the right block
	if block.Number != exec.currentHeight+1 {
		exec.logger.WithFields(logrus.Fields{
			"block height":  block.Number,
			"matchedHeight": exec.currentHeight + 1,
		}).Warning("current block height is not matched")
		return
	}

	receipts := exec.applyTransactions(block)

	for _, hook := range exec.afterBlockHooks {
		hook(block)
	}

	receiptRoot, err := calcReceiptMerkleRoot(receipts)
	if err != nil {
		panic(errors.Wrap(err, "calculate receipt root"))
	}
	version, err := exec.ledger.Commit()
	if err != nil {
		panic(errors.Wrap(err, "commit state ledger"))
	}
	block.ReceiptRoot = receiptRoot
	block.StateVersion = version

	exec.currentHeight = block.Number
	exec.currentTimestamp = block.Timestamp

	txCounter.Add(float64(len(block.Transactions)))
	executeBlockDuration.Observe(float64(time.Since(current)) / float64(time.Second))
	exec.logger.WithFields(logrus.Fields{
		"height":       block.Number,
		"count":        len(block.Transactions),
		"receipt_root": receiptRoot.String(),
		"version":      version,
		"elapse":       time.Since(current),
	}).Info("Executed block")

	exec.postBlockEvent(block, receipts)
	exec.postLogsEvent(receipts)
}

func (exec *BlockExecutor) applyTransactions(block *Block) []*Receipt {
	receipts := make([]*Receipt, 0, len(block.Transactions))

	for i, tx := range block.Transactions {
		receipts = append(receipts, exec.applyTransaction(i, tx, block))
	}

	exec.logger.Debugf("executor executed %d txs", len(block.Transactions))

	return receipts
}

// applyTransaction runs tx in its own snapshot, a failed tx leaves no state change or log behind
func (exec *BlockExecutor) applyTransaction(i int, tx *Transaction, block *Block) *Receipt {
	defer exec.ledger.Finalise()

	exec.ledger.PrepareTx(uint(i))
	receipt := &Receipt{
		TxHash: tx.Hash(),
	}

	snapshot := exec.ledger.Snapshot()
	ret, err := exec.nvm.Run(exec.newContext(tx.From, block.Number, block.Timestamp), tx.To, tx.Data)
	if err != nil {
		exec.ledger.RevertToSnapshot(snapshot)
		receipt.Status = ethtypes.ReceiptStatusFailed
		receipt.Ret = []byte(err.Error())
		receipt.RevertReason = err.Error()

		var revertErr *packer.RevertError
		if errors.As(err, &revertErr) {
			receipt.Ret = ethcommon.CopyBytes(revertErr.Data)
			if reason, unpackErr := packer.UnpackRevertReason(revertErr.Data); unpackErr == nil {
				receipt.RevertReason = reason
			}
		}
		failedTxCounter.Inc()
		exec.logger.WithFields(logrus.Fields{
			"tx":     receipt.TxHash,
			"from":   tx.From,
			"to":     tx.To,
			"reason": receipt.RevertReason,
		}).Warn("Execute tx failed")
		return receipt
	}

	receipt.Status = ethtypes.ReceiptStatusSuccessful
	receipt.Ret = ret
	receipt.Logs = lo.Filter(exec.ledger.GetLogs(), func(log *ethtypes.Log, _ int) bool {
		return log.TxIndex == uint(i)
	})
	for _, log := range receipt.Logs {
		log.TxHash = receipt.TxHash
	}
	return receipt
}

func (exec *BlockExecutor) postBlockEvent(block *Block, receipts []*Receipt) {
	exec.blockFeed.Send(ExecutedEvent{
		Block:    block,
		Receipts: receipts,
	})
}

func (exec *BlockExecutor) postLogsEvent(receipts []*Receipt) {
	logs := make([]*ethtypes.Log, 0)
	for _, receipt := range receipts {
		logs = append(logs, receipt.Logs...)
	}

	exec.logsFeed.Send(logs)
}

func calcReceiptMerkleRoot(receipts []*Receipt) (ethcommon.Hash, error) {
	if len(receipts) == 0 {
		return emptyRootHash, nil
	}

	tree, err := merkletree.NewTree(lo.Map(receipts, func(r *Receipt, _ int) merkletree.Content {
		return r
	}))
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return ethcommon.BytesToHash(tree.MerkleRoot()), nil
}
