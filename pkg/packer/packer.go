package packer

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Event interface {
	Pack(abi abi.ABI) (*ethtypes.Log, error)
}

type Error interface {
	Pack(abi abi.ABI) error
}

// revertSelector is the selector of the solidity builtin Error(string)
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var stringArgs = abi.Arguments{{Type: lo.Must(abi.NewType("string", "", nil))}}

// PackEvent packs the event struct into a log, the struct field names must be the camel case of the abi input names
func PackEvent(eventStruct any, event abi.Event) (*ethtypes.Log, error) {
	if eventStruct == nil {
		return nil, errors.New("event struct is nil")
	}
	var noIndexedArgs []any
	topicArgs := [][]any{
		{event.ID},
	}
	v := reflect.ValueOf(eventStruct).Elem()
	for _, input := range event.Inputs {
		field := v.FieldByName(abi.ToCamelCase(input.Name))
		if !field.IsValid() {
			return nil, errors.Errorf("event %s missing field %s", event.Name, abi.ToCamelCase(input.Name))
		}
		if !input.Indexed {
			noIndexedArgs = append(noIndexedArgs, field.Interface())
		} else {
			topicArgs = append(topicArgs, []any{field.Interface()})
		}
	}

	topics, err := abi.MakeTopics(topicArgs...)
	if err != nil {
		return nil, errors.Wrapf(err, "event %s make topics error", event.Name)
	}

	packedData, err := event.Inputs.NonIndexed().Pack(noIndexedArgs...)
	if err != nil {
		return nil, errors.Wrapf(err, "event %s pack args error", event.Name)
	}

	return &ethtypes.Log{
		Topics: lo.Map(topics, func(t []common.Hash, _ int) common.Hash {
			return t[0]
		}),
		Data:    packedData,
		Removed: false,
	}, nil
}

type RevertError struct {
	Err error

	// Data is encoded reverted reason, or result
	Data []byte

	// reverted result
	Str string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s errdata %s", e.Err.Error(), e.Str)
}

func (e *RevertError) Unwrap() error {
	return e.Err
}

func PackError(errStruct any, abiErr abi.Error) error {
	if errStruct == nil {
		return errors.New("error struct is nil")
	}
	selector := common.CopyBytes(abiErr.ID.Bytes()[:4])
	var args []any
	v := reflect.ValueOf(errStruct).Elem()
	for _, input := range abiErr.Inputs {
		args = append(args, v.FieldByName(abi.ToCamelCase(input.Name)).Interface())
	}
	packed, err := abiErr.Inputs.Pack(args...)
	if err != nil {
		return err
	}

	return &RevertError{
		Err:  vm.ErrExecutionReverted,
		Data: append(selector, packed...),
		Str:  fmt.Sprintf("%s, args: %v", abiErr.String(), args),
	}
}

// PackRevertReason wraps err as Error(string) revert data
func PackRevertReason(err error) error {
	if err == nil {
		return nil
	}
	var revertErr *RevertError
	if errors.As(err, &revertErr) {
		return err
	}
	packed, packErr := stringArgs.Pack(err.Error())
	if packErr != nil {
		return packErr
	}
	return &RevertError{
		Err:  errors.Wrap(vm.ErrExecutionReverted, err.Error()),
		Data: append(common.CopyBytes(revertSelector), packed...),
		Str:  err.Error(),
	}
}

// UnpackRevertReason returns the reason string carried by Error(string) revert data
func UnpackRevertReason(data []byte) (string, error) {
	if len(data) < 4 || !reflect.DeepEqual(data[:4], revertSelector) {
		return "", errors.New("not a revert reason")
	}
	vals, err := stringArgs.Unpack(data[4:])
	if err != nil {
		return "", err
	}
	return vals[0].(string), nil
}
