package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/axiomesh/axiom-vault/pkg/packer"
)

// EventTransfer is emitted on mint (from zero), burn (to zero) and transfer
type EventTransfer struct {
	From  ethcommon.Address
	To    ethcommon.Address
	Value *big.Int
}

func (_event *EventTransfer) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["Transfer"])
}

type EventApproval struct {
	Owner   ethcommon.Address
	Spender ethcommon.Address
	Value   *big.Int
}

func (_event *EventApproval) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["Approval"])
}
