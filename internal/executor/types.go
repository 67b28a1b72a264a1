package executor

import (
	"bytes"

	"github.com/cbergoon/merkletree"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

type Executor interface {
	Start() error

	Stop() error

	AsyncExecuteBlock(block *Block)

	ExecuteBlock(block *Block)

	CurrentHeight() uint64

	// Call runs a read only call against the latest state
	Call(from, to ethcommon.Address, data []byte) ([]byte, error)

	SubscribeBlockEvent(chan<- ExecutedEvent) event.Subscription

	SubscribeLogsEvent(chan<- []*ethtypes.Log) event.Subscription
}

// Transaction is a call of a native system contract method
type Transaction struct {
	From  ethcommon.Address
	To    ethcommon.Address
	Nonce uint64
	Data  []byte
}

func (tx *Transaction) Hash() ethcommon.Hash {
	raw, err := rlp.EncodeToBytes([]any{tx.From, tx.To, tx.Nonce, tx.Data})
	if err != nil {
		panic(errors.Wrap(err, "encode transaction"))
	}
	return crypto.Keccak256Hash(raw)
}

type Block struct {
	Number       uint64
	Timestamp    uint64
	Transactions []*Transaction

	// filled after execution
	ReceiptRoot  ethcommon.Hash
	StateVersion uint64
}

type Receipt struct {
	TxHash ethcommon.Hash
	Status uint64
	Ret    []byte

	// decoded Error(string) of a failed transaction
	RevertReason string
	Logs         []*ethtypes.Log
}

func (r *Receipt) Failed() bool {
	return r.Status == ethtypes.ReceiptStatusFailed
}

var _ merkletree.Content = (*Receipt)(nil)

func (r *Receipt) CalculateHash() ([]byte, error) {
	logs := make([][]any, 0, len(r.Logs))
	for _, log := range r.Logs {
		logs = append(logs, []any{log.Address, log.Topics, log.Data})
	}
	raw, err := rlp.EncodeToBytes([]any{r.TxHash, r.Status, r.Ret, logs})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(raw), nil
}

func (r *Receipt) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(*Receipt)
	if !ok {
		return false, errors.New("content is not a receipt")
	}
	h1, err := r.CalculateHash()
	if err != nil {
		return false, err
	}
	h2, err := o.CalculateHash()
	if err != nil {
		return false, err
	}
	return bytes.Equal(h1, h2), nil
}

type ExecutedEvent struct {
	Block    *Block
	Receipts []*Receipt
}
