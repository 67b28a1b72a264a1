package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Try runs fn inside a ledger snapshot. If fn fails or panics, every state change and log
// made by fn is reverted and the failure is returned, the caller decides whether to go on.
func Try(ctx *VMContext, fn func() error) (err error) {
	snapshot := ctx.StateLedger.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint(r))
		}
		if err != nil {
			ctx.StateLedger.RevertToSnapshot(snapshot)
		}
	}()
	return fn()
}
