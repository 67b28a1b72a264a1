package system

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/executor/system/compounder"
	"github.com/axiomesh/axiom-vault/internal/executor/system/gateway"
	"github.com/axiomesh/axiom-vault/internal/executor/system/token"
	"github.com/axiomesh/axiom-vault/internal/executor/system/vault"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/packer"
)

var (
	ErrNotExistSystemContract         = errors.New("not exist this system contract")
	ErrNotExistMethodName             = errors.New("not exist method name of this system contract")
	ErrNotImplementFuncSystemContract = errors.New("not implement the function for this system contract")
	ErrDeployedRepeated               = errors.New("deploy system contract repeated")
)

// Kind names a contract implementation that can be deployed at any address
type Kind string

const (
	KindToken      Kind = "token"
	KindVault      Kind = "vault"
	KindCompounder Kind = "compounder"
	KindRouter     Kind = "router"
)

type deployment struct {
	kind Kind
	abi  *abi.ABI
}

// NativeVM handle abi decoding for parameters and abi encoding for return data
type NativeVM struct {
	logger   logrus.FieldLogger
	registry *common.Registry

	lock        sync.RWMutex
	deployments map[ethcommon.Address]*deployment
}

func New(registry *common.Registry) *NativeVM {
	return &NativeVM{
		logger:      loggers.Logger(loggers.Executor),
		registry:    registry,
		deployments: make(map[ethcommon.Address]*deployment),
	}
}

func (nvm *NativeVM) Registry() *common.Registry {
	return nvm.registry
}

// Deploy binds a contract implementation to addr, the state is created by its initialize method
func (nvm *NativeVM) Deploy(kind Kind, addr ethcommon.Address) error {
	switch kind {
	case KindToken:
		return deploy(nvm, kind, addr, token.BuildConfig)
	case KindVault:
		return deploy(nvm, kind, addr, vault.BuildConfig)
	case KindCompounder:
		return deploy(nvm, kind, addr, compounder.BuildConfig)
	case KindRouter:
		return deploy(nvm, kind, addr, gateway.BuildConfig)
	default:
		return errors.Errorf("unknown contract kind %q", kind)
	}
}

func deploy[T common.SystemContract](nvm *NativeVM, kind Kind, addr ethcommon.Address, cfg *common.SystemContractBuildConfig[T]) error {
	if common.IsZeroAddress(addr) {
		return errors.New("deploy system contract at zero address")
	}

	nvm.lock.Lock()
	defer nvm.lock.Unlock()
	if _, ok := nvm.deployments[addr]; ok || nvm.registry.Has(addr) {
		return errors.Wrapf(ErrDeployedRepeated, "address %s", addr)
	}
	nvm.deployments[addr] = &deployment{kind: kind, abi: cfg.GetABI()}
	nvm.registry.Register(addr, func(ctx *common.VMContext) any {
		return cfg.Build(addr, ctx)
	})

	nvm.logger.WithFields(logrus.Fields{
		"kind":    kind,
		"address": addr,
	}).Info("Deploy system contract")
	return nil
}

// Kind returns the implementation deployed at addr
func (nvm *NativeVM) Kind(addr ethcommon.Address) (Kind, bool) {
	nvm.lock.RLock()
	defer nvm.lock.RUnlock()
	d, ok := nvm.deployments[addr]
	if !ok {
		return "", false
	}
	return d.kind, true
}

func (nvm *NativeVM) ABI(addr ethcommon.Address) (*abi.ABI, error) {
	nvm.lock.RLock()
	defer nvm.lock.RUnlock()
	d, ok := nvm.deployments[addr]
	if !ok {
		return nil, errors.Wrapf(ErrNotExistSystemContract, "address %s", addr)
	}
	return d.abi, nil
}

// Run calls the method selected by data on the contract at to, errors are returned as revert errors
func (nvm *NativeVM) Run(ctx *common.VMContext, to ethcommon.Address, data []byte) (ret []byte, execErr error) {
	defer func() {
		if r := recover(); r != nil {
			nvm.logger.Error(r)
			execErr = packer.PackRevertReason(errors.Errorf("%s", r))
		}
	}()

	contractABI, err := nvm.ABI(to)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, ErrNotExistMethodName
	}
	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		return nil, errors.Wrap(ErrNotExistMethodName, err.Error())
	}
	instance, err := nvm.registry.Resolve(ctx, to)
	if err != nil {
		return nil, err
	}

	// capitalize the first letter of a function
	funcName := fmt.Sprintf("%s%s", strings.ToUpper(method.RawName[:1]), method.RawName[1:])
	fn := reflect.ValueOf(instance).MethodByName(funcName)
	if !fn.IsValid() {
		return nil, errors.Wrapf(ErrNotImplementFuncSystemContract, "method %s", funcName)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s args", method.RawName)
	}
	inputs, err := convertArgs(fn.Type(), args)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", method.RawName)
	}

	nvm.logger.WithFields(logrus.Fields{
		"contract": to,
		"method":   funcName,
		"from":     ctx.From,
	}).Debug("Run system contract")

	outputs, returnErr := splitResults(fn.Call(inputs))
	if returnErr != nil {
		return nil, packer.PackRevertReason(returnErr)
	}
	if len(method.Outputs) == 0 {
		return nil, nil
	}
	return method.Outputs.Pack(outputs...)
}

func convertArgs(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	if fnType.NumIn() != len(args) {
		return nil, errors.Errorf("want %d args, got %d", fnType.NumIn(), len(args))
	}
	inputs := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		v := reflect.ValueOf(arg)
		want := fnType.In(i)
		if v.Type() != want {
			if !v.Type().ConvertibleTo(want) {
				return nil, errors.Errorf("arg %d: cannot use %s as %s", i, v.Type(), want)
			}
			v = v.Convert(want)
		}
		inputs = append(inputs, v)
	}
	return inputs, nil
}

// splitResults separates the trailing error from the returned values
func splitResults(results []reflect.Value) ([]any, error) {
	var outputs []any
	for _, result := range results {
		if result.Type().Implements(reflect.TypeOf((*error)(nil)).Elem()) {
			if !result.IsNil() {
				return nil, result.Interface().(error)
			}
			continue
		}
		outputs = append(outputs, result.Interface())
	}
	return outputs, nil
}
