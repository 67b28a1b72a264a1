package common

import (
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const (
	// ZeroAddress is a special address, no one has control
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)

var ErrContractNotFound = errors.New("no contract deployed at this address")

type VMContext struct {
	StateLedger    ledger.StateLedger
	BlockNumber    uint64
	BlockTimestamp uint64

	// msg.sender of the current call frame
	From ethcommon.Address

	// contracts reachable from this call, nil means none
	Registry *Registry

	Config *repo.Config
}

// SystemContract must be implemented by all system contract
type SystemContract interface {
	SetContext(*VMContext)
}

func IsZeroAddress(addr ethcommon.Address) bool {
	return addr == (ethcommon.Address{})
}

// ContractLoader returns the contract deployed at an address bound to ctx
type ContractLoader func(ctx *VMContext) any

// Registry maps addresses to contracts whose implementation is only known at runtime
type Registry struct {
	lock    sync.RWMutex
	loaders map[ethcommon.Address]ContractLoader
}

func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[ethcommon.Address]ContractLoader),
	}
}

func (r *Registry) Register(addr ethcommon.Address, loader ContractLoader) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.loaders[addr] = loader
}

func (r *Registry) Has(addr ethcommon.Address) bool {
	if r == nil {
		return false
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.loaders[addr]
	return ok
}

func (r *Registry) Addresses() []ethcommon.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()
	addrs := make([]ethcommon.Address, 0, len(r.loaders))
	for addr := range r.loaders {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Resolve loads the contract at addr with the given call context
func (r *Registry) Resolve(ctx *VMContext, addr ethcommon.Address) (any, error) {
	if r == nil {
		return nil, errors.Wrapf(ErrContractNotFound, "address %s", addr)
	}
	r.lock.RLock()
	loader, ok := r.loaders[addr]
	r.lock.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrContractNotFound, "address %s", addr)
	}
	return loader(ctx), nil
}
