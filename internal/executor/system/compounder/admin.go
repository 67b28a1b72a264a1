package compounder

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/internal/executor/system/common"
	"github.com/axiomesh/axiom-vault/internal/ledger"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const (
	MinimumClaimThresholdStorageKey = "minimumClaimThreshold"
	MaxSlippageStorageKey           = "maxSlippage"
	IntermediateTokenStorageKey     = "intermediateToken"
	GatewayStorageKey               = "gateway"
	SwapDeadlineStorageKey          = "swapDeadline"
	SwapPathsStorageKey             = "swapPaths"

	// DefaultSwapDeadline in seconds after the block time
	DefaultSwapDeadline = 300
)

// settings are the owner controlled swap parameters
type settings struct {
	minimumClaimThreshold *common.VMSlot[*big.Int]
	maxSlippage           *common.VMSlot[uint64]
	intermediateToken     *common.VMSlot[ethcommon.Address]
	gateway               *common.VMSlot[ethcommon.Address]
	swapDeadline          *common.VMSlot[uint64]
	swapPaths             *common.VMMap[ethcommon.Address, []ethcommon.Address]
}

func newSettings(account ledger.IAccount) settings {
	return settings{
		minimumClaimThreshold: common.NewVMSlot[*big.Int](account, MinimumClaimThresholdStorageKey),
		maxSlippage:           common.NewVMSlot[uint64](account, MaxSlippageStorageKey),
		intermediateToken:     common.NewVMSlot[ethcommon.Address](account, IntermediateTokenStorageKey),
		gateway:               common.NewVMSlot[ethcommon.Address](account, GatewayStorageKey),
		swapDeadline:          common.NewVMSlot[uint64](account, SwapDeadlineStorageKey),
		swapPaths: common.NewVMMap[ethcommon.Address, []ethcommon.Address](account, SwapPathsStorageKey, func(key ethcommon.Address) string {
			return key.String()
		}),
	}
}

func (s *settings) loadDefaults(cfg repo.Compounder) error {
	threshold, err := cfg.MinimumClaimThreshold.ToBigInt()
	if err != nil {
		return err
	}
	if cfg.MaxSlippage > repo.MaxSlippageLimit {
		return errors.Wrapf(ErrInvalidSlippage, "%d", cfg.MaxSlippage)
	}
	if err := s.minimumClaimThreshold.Put(threshold); err != nil {
		return err
	}
	if err := s.maxSlippage.Put(cfg.MaxSlippage); err != nil {
		return err
	}
	if cfg.IntermediateToken != "" {
		if err := s.intermediateToken.Put(ethcommon.HexToAddress(cfg.IntermediateToken)); err != nil {
			return err
		}
	}
	if cfg.SwapDeadline > 0 {
		return s.swapDeadline.Put(uint64(cfg.SwapDeadline.ToDuration().Seconds()))
	}
	return nil
}

func (w *Wrapper) MinimumClaimThreshold() (*big.Int, error) {
	return w.minimumClaimThreshold.GetOrDefault(big.NewInt(0))
}

// MaxSlippage in basis points
func (w *Wrapper) MaxSlippage() (uint64, error) {
	return w.maxSlippage.GetOrDefault(0)
}

func (w *Wrapper) IntermediateToken() (ethcommon.Address, error) {
	_, addr, err := w.intermediateToken.Get()
	return addr, err
}

func (w *Wrapper) Gateway() (ethcommon.Address, error) {
	_, addr, err := w.gateway.Get()
	return addr, err
}

// SwapDeadline in seconds
func (w *Wrapper) SwapDeadline() (uint64, error) {
	return w.swapDeadline.GetOrDefault(DefaultSwapDeadline)
}

func (w *Wrapper) SwapPath(tokenAddr ethcommon.Address) ([]ethcommon.Address, error) {
	return w.swapPaths.GetOrDefault(tokenAddr, []ethcommon.Address{})
}

func (w *Wrapper) SetMinimumClaimThreshold(threshold *big.Int) error {
	if err := w.CheckOwner(); err != nil {
		return err
	}
	if threshold == nil || threshold.Sign() < 0 {
		return ErrZeroAmount
	}
	return w.minimumClaimThreshold.Put(threshold)
}

func (w *Wrapper) SetMaxSlippage(slippage uint64) error {
	if err := w.CheckOwner(); err != nil {
		return err
	}
	if slippage > repo.MaxSlippageLimit {
		return errors.Wrapf(ErrInvalidSlippage, "%d exceeds %d", slippage, repo.MaxSlippageLimit)
	}
	return w.maxSlippage.Put(slippage)
}

// SetSwapPath overrides the default route of a reward token, an empty path clears it
func (w *Wrapper) SetSwapPath(tokenAddr ethcommon.Address, path []ethcommon.Address) error {
	if err := w.CheckOwner(); err != nil {
		return err
	}
	if len(path) == 0 {
		return w.swapPaths.Delete(tokenAddr)
	}
	asset, err := w.Asset()
	if err != nil {
		return err
	}
	if len(path) < 2 || path[0] != tokenAddr || path[len(path)-1] != asset ||
		len(lo.Uniq(path)) != len(path) || lo.Contains(path, ethcommon.Address{}) {
		return errors.Wrapf(ErrInvalidSwapPath, "path %v", path)
	}
	if err := w.swapPaths.Put(tokenAddr, path); err != nil {
		return err
	}
	w.Logger.WithFields(logrus.Fields{
		"token": tokenAddr,
		"path":  path,
	}).Info("Swap path set")
	return nil
}

// SetIntermediateToken sets the hop of default paths, the zero address disables it
func (w *Wrapper) SetIntermediateToken(tokenAddr ethcommon.Address) error {
	if err := w.CheckOwner(); err != nil {
		return err
	}
	if common.IsZeroAddress(tokenAddr) {
		return w.intermediateToken.Delete()
	}
	return w.intermediateToken.Put(tokenAddr)
}

func (w *Wrapper) SetGateway(gatewayAddr ethcommon.Address) error {
	if err := w.CheckOwner(); err != nil {
		return err
	}
	if common.IsZeroAddress(gatewayAddr) {
		return errors.Wrap(ErrZeroAddress, "gateway")
	}
	return w.gateway.Put(gatewayAddr)
}

func (w *Wrapper) SetSwapDeadline(seconds uint64) error {
	if err := w.CheckOwner(); err != nil {
		return err
	}
	return w.swapDeadline.Put(seconds)
}
