package compounder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/axiomesh/axiom-vault/pkg/packer"
)

type EventDeposit struct {
	Sender ethcommon.Address
	Owner  ethcommon.Address
	Assets *big.Int
	Shares *big.Int
}

func (_event *EventDeposit) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["Deposit"])
}

type EventWithdraw struct {
	Sender   ethcommon.Address
	Receiver ethcommon.Address
	Owner    ethcommon.Address
	Assets   *big.Int
	Shares   *big.Int
}

func (_event *EventWithdraw) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["Withdraw"])
}

type EventAutoCompound struct {
	TotalReinvested *big.Int
	SwapCount       *big.Int
}

func (_event *EventAutoCompound) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["AutoCompound"])
}

type EventTokenSwapped struct {
	From      ethcommon.Address
	To        ethcommon.Address
	AmountIn  *big.Int
	AmountOut *big.Int
}

func (_event *EventTokenSwapped) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["TokenSwapped"])
}

type EventRewardClaimed struct {
	User   ethcommon.Address
	Token  ethcommon.Address
	Amount *big.Int
}

func (_event *EventRewardClaimed) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["RewardClaimed"])
}
