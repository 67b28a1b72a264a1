package common

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/packer"
)

const (
	OwnerStorageKey   = "owner"
	VersionStorageKey = "version"
)

var ErrNotOwner = errors.New("caller is not the owner")

type SystemContractBase struct {
	Logger       logrus.FieldLogger
	Address      ethcommon.Address
	Abi          *abi.ABI
	Ctx          *VMContext
	StateAccount ledger.IAccount
}

func (s *SystemContractBase) SetContext(ctx *VMContext) {
	s.Ctx = ctx
	s.StateAccount = ctx.StateLedger.GetOrCreateAccount(s.Address)
}

// CrossCallSystemContractContext returns a context for calling other contracts in the same transaction,
// the callee sees this contract as msg.sender
func (s *SystemContractBase) CrossCallSystemContractContext() *VMContext {
	ctx := *s.Ctx
	ctx.From = s.Address
	return &ctx
}

// EmitEvent packs the event with the contract abi and appends it to the ledger logs
func (s *SystemContractBase) EmitEvent(event packer.Event) {
	log, err := event.Pack(*s.Abi)
	if err != nil {
		s.Logger.WithError(err).Errorf("pack event %T failed", event)
		return
	}
	log.Address = s.Address
	log.BlockNumber = s.Ctx.BlockNumber
	s.Ctx.StateLedger.AddLog(log)
}

func (s *SystemContractBase) Owner() (ethcommon.Address, error) {
	_, owner, err := NewVMSlot[ethcommon.Address](s.StateAccount, OwnerStorageKey).Get()
	return owner, err
}

func (s *SystemContractBase) SetOwner(owner ethcommon.Address) error {
	return NewVMSlot[ethcommon.Address](s.StateAccount, OwnerStorageKey).Put(owner)
}

func (s *SystemContractBase) CheckOwner() error {
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	if IsZeroAddress(owner) || owner != s.Ctx.From {
		return ErrNotOwner
	}
	return nil
}

func (s *SystemContractBase) TransferOwnership(newOwner ethcommon.Address) error {
	if err := s.CheckOwner(); err != nil {
		return err
	}
	if IsZeroAddress(newOwner) {
		return errors.New("new owner is the zero address")
	}
	if err := s.SetOwner(newOwner); err != nil {
		return err
	}
	s.EmitEvent(&EventOwnershipTransferred{
		PreviousOwner: s.Ctx.From,
		NewOwner:      newOwner,
	})
	return nil
}

// StorageVersion is the layout version written by Initialize, 0 for an uninitialized contract
func (s *SystemContractBase) StorageVersion() (uint64, error) {
	_, version, err := NewVMSlot[uint64](s.StateAccount, VersionStorageKey).Get()
	return version, err
}

func (s *SystemContractBase) SetStorageVersion(version uint64) error {
	return NewVMSlot[uint64](s.StateAccount, VersionStorageKey).Put(version)
}

type EventOwnershipTransferred struct {
	PreviousOwner ethcommon.Address
	NewOwner      ethcommon.Address
}

func (_event *EventOwnershipTransferred) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["OwnershipTransferred"])
}

type SystemContractBuildConfig[T SystemContract] struct {
	Name        string
	AbiStr      string
	Constructor func(systemContractBase SystemContractBase) T

	once      sync.Once
	parsedAbi *abi.ABI
}

func (cfg *SystemContractBuildConfig[T]) GetABI() *abi.ABI {
	cfg.once.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(cfg.AbiStr))
		if err != nil {
			panic(errors.Wrapf(err, "parse %s abi", cfg.Name))
		}
		cfg.parsedAbi = &parsed
	})
	return cfg.parsedAbi
}

// Build creates the contract at addr bound to ctx
func (cfg *SystemContractBuildConfig[T]) Build(addr ethcommon.Address, ctx *VMContext) T {
	contract := cfg.Constructor(SystemContractBase{
		Logger:  loggers.Logger(cfg.Name),
		Address: addr,
		Abi:     cfg.GetABI(),
	})
	contract.SetContext(ctx)
	return contract
}
