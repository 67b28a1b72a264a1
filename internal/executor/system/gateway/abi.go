package gateway

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/axiomesh/axiom-vault/pkg/packer"
)

const routerABI = `[
	{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":true,"name":"recipient","type":"address"},{"indexed":false,"name":"tokenIn","type":"address"},{"indexed":false,"name":"tokenOut","type":"address"},{"indexed":false,"name":"amountIn","type":"uint256"},{"indexed":false,"name":"amountOut","type":"uint256"}],"name":"Swap","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"provider","type":"address"},{"indexed":true,"name":"token0","type":"address"},{"indexed":true,"name":"token1","type":"address"},{"indexed":false,"name":"amount0","type":"uint256"},{"indexed":false,"name":"amount1","type":"uint256"}],"name":"LiquidityAdded","type":"event"},
	{"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"}],"name":"addLiquidity","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getReserves","outputs":[{"name":"reserveA","type":"uint256"},{"name":"reserveB","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"feeRate","outputs":[{"name":"","type":"uint64"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"quote","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"recipient","type":"address"},{"name":"deadline","type":"uint64"}],"name":"swap","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"}
]`

type EventSwap struct {
	Sender    ethcommon.Address
	Recipient ethcommon.Address
	TokenIn   ethcommon.Address
	TokenOut  ethcommon.Address
	AmountIn  *big.Int
	AmountOut *big.Int
}

func (_event *EventSwap) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["Swap"])
}

type EventLiquidityAdded struct {
	Provider ethcommon.Address
	Token0   ethcommon.Address
	Token1   ethcommon.Address
	Amount0  *big.Int
	Amount1  *big.Int
}

func (_event *EventLiquidityAdded) Pack(abi abi.ABI) (*ethtypes.Log, error) {
	return packer.PackEvent(_event, abi.Events["LiquidityAdded"])
}
