package common

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"

	"github.com/axiomesh/axiom-vault/pkg/packer"
)

var (
	AddressType = lo.Must(abi.NewType("address", "", nil))
	Uint256Type = lo.Must(abi.NewType("uint256", "", nil))
	StringType  = lo.Must(abi.NewType("string", "", nil))
)

// NewRevertError encodes a solidity custom error, the data is selector(name(types)) ++ abi.encode(values)
func NewRevertError(name string, inputs abi.Arguments, values []any) error {
	types := lo.Map(inputs, func(arg abi.Argument, _ int) string {
		return arg.Type.String()
	})
	sig := fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))
	selector := crypto.Keccak256([]byte(sig))[:4]

	packed, err := inputs.Pack(values...)
	if err != nil {
		return err
	}
	return &packer.RevertError{
		Err:  vm.ErrExecutionReverted,
		Data: append(selector, packed...),
		Str:  fmt.Sprintf("%s, args: %v", sig, values),
	}
}
