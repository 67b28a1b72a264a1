package executor

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system"
	"github.com/axiomesh/axiom-vault/internal/executor/system/compounder"
)

// KeeperAddress is msg.sender of the compounding calls made by the executor
var KeeperAddress = ethcommon.HexToAddress("0x00000000000000000000000000000000000000f0")

// autoCompound harvests every deployed wrapper each keeper interval
func (exec *BlockExecutor) autoCompound(block *Block) {
	interval := exec.rep.Config.Compounder.KeeperInterval
	if interval == 0 || block.Number%interval != 0 {
		return
	}

	for _, addr := range exec.nvm.Registry().Addresses() {
		if kind, ok := exec.nvm.Kind(addr); !ok || kind != system.KindCompounder {
			continue
		}

		exec.ledger.PrepareTx(uint(len(block.Transactions)))
		snapshot := exec.ledger.Snapshot()
		wrapper := compounder.BuildConfig.Build(addr, exec.newContext(KeeperAddress, block.Number, block.Timestamp))
		reinvested, err := wrapper.AutoCompound()
		if err != nil {
			exec.ledger.RevertToSnapshot(snapshot)
			keeperCounter.WithLabelValues("failed").Inc()
			exec.logger.WithFields(logrus.Fields{
				"height":  block.Number,
				"wrapper": addr,
				"err":     err,
			}).Warn("Keeper auto compound failed")
			continue
		}
		exec.ledger.Finalise()
		keeperCounter.WithLabelValues("success").Inc()
		exec.logger.WithFields(logrus.Fields{
			"height":     block.Number,
			"wrapper":    addr,
			"reinvested": reinvested,
		}).Debug("Keeper auto compound")
	}
}
