package common

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/axiomesh/axiom-vault/internal/ledger"
)

const (
	NOT_ENTERED = 1
	ENTERED     = 2

	reentrancyStatusKey = "reentrancyStatus"
)

// ReentrancyGuard keeps its status in contract storage, so every instance of the contract
// built within the same transaction observes it
type ReentrancyGuard struct {
	status *VMSlot[uint8]
}

func NewReentrancyGuard(account ledger.IAccount) *ReentrancyGuard {
	return &ReentrancyGuard{status: NewVMSlot[uint8](account, reentrancyStatusKey)}
}

func (rg *ReentrancyGuard) Enter() error {
	if rg.IsEntered() {
		return ReentrancyGuardReentrantCall()
	}
	return rg.status.Put(ENTERED)
}

func (rg *ReentrancyGuard) Exit() {
	// a missing slot reads as NOT_ENTERED
	_ = rg.status.Delete()
}

func (rg *ReentrancyGuard) IsEntered() bool {
	_, status, err := rg.status.Get()
	return err == nil && status == ENTERED
}

func ReentrancyGuardReentrantCall() error {
	return NewRevertError("ReentrancyGuardReentrantCall", abi.Arguments{}, nil)
}
