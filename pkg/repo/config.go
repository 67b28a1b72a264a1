package repo

import (
	"encoding/json"
	"math/big"
	"os"
	"path"
	"reflect"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

type Duration time.Duration

func (d *Duration) MarshalText() (text []byte, err error) {
	return []byte(time.Duration(*d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

func StringToTimeDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(Duration(5)) {
			return data, nil
		}

		d, err := time.ParseDuration(data.(string))
		if err != nil {
			return nil, err
		}
		return Duration(d), nil
	}
}

func (d *Duration) ToDuration() time.Duration {
	return time.Duration(*d)
}

func (d *Duration) String() string {
	return time.Duration(*d).String()
}

// CoinNumber is a base-10 integer amount in the token's smallest unit
type CoinNumber string

func (c CoinNumber) ToBigInt() (*big.Int, error) {
	if c == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(string(c), 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid coin number: %s", string(c))
	}
	return v, nil
}

type Config struct {
	Storage    Storage    `mapstructure:"storage" toml:"storage"`
	Ledger     Ledger     `mapstructure:"ledger" toml:"ledger"`
	Vault      Vault      `mapstructure:"vault" toml:"vault"`
	Compounder Compounder `mapstructure:"compounder" toml:"compounder"`
	Gateway    Gateway    `mapstructure:"gateway" toml:"gateway"`
	Monitor    Monitor    `mapstructure:"monitor" toml:"monitor"`
	Log        Log        `mapstructure:"log" toml:"log"`

	// contracts registered in the native vm at startup
	Deployments []Deployment `mapstructure:"deployments" toml:"deployments"`
}

type Deployment struct {
	Kind    string `mapstructure:"kind" toml:"kind"`
	Address string `mapstructure:"address" toml:"address"`
}

type Storage struct {
	KvType      string `mapstructure:"kv_type" toml:"kv_type"`
	KvCacheSize int    `mapstructure:"kv_cache_size" toml:"kv_cache_size"`
	Sync        bool   `mapstructure:"sync" toml:"sync"`
}

type Ledger struct {
	StateCacheMegabytesLimit int `mapstructure:"state_cache_megabytes_limit" toml:"state_cache_megabytes_limit"`
	AccountCacheSize         int `mapstructure:"account_cache_size" toml:"account_cache_size"`

	// the node seals the pending transactions into a block every block_interval
	BlockInterval Duration `mapstructure:"block_interval" toml:"block_interval"`
	BlockMaxTxNum uint64   `mapstructure:"block_max_tx_num" toml:"block_max_tx_num"`
}

type Vault struct {
	Name       string   `mapstructure:"name" toml:"name"`
	Symbol     string   `mapstructure:"symbol" toml:"symbol"`
	Decimals   uint8    `mapstructure:"decimals" toml:"decimals"`
	LockPeriod Duration `mapstructure:"lock_period" toml:"lock_period"`
}

type Compounder struct {
	Name                  string     `mapstructure:"name" toml:"name"`
	Symbol                string     `mapstructure:"symbol" toml:"symbol"`
	MinimumClaimThreshold CoinNumber `mapstructure:"minimum_claim_threshold" toml:"minimum_claim_threshold"`

	// unit: basis point, range [0, 5000]
	MaxSlippage uint64 `mapstructure:"max_slippage" toml:"max_slippage"`

	IntermediateToken string   `mapstructure:"intermediate_token" toml:"intermediate_token"`
	SwapDeadline      Duration `mapstructure:"swap_deadline" toml:"swap_deadline"`

	// quote retries only help a gateway whose quotes come from outside the ledger, a ledger
	// resident gateway answers the same within a tx. The wait must stay 0 since any sleep
	// stalls block execution.
	QuoteAttempts  uint     `mapstructure:"quote_attempts" toml:"quote_attempts"`
	QuoteRetryWait Duration `mapstructure:"quote_retry_wait" toml:"quote_retry_wait"`

	// the executor compounds every deployed wrapper each keeper_interval blocks, 0 disables it
	KeeperInterval uint64 `mapstructure:"keeper_interval" toml:"keeper_interval"`
}

type Gateway struct {
	// unit: basis point
	FeeRate uint64 `mapstructure:"fee_rate" toml:"fee_rate"`
}

type Monitor struct {
	Enable bool   `mapstructure:"enable" toml:"enable"`
	Port   uint32 `mapstructure:"port" toml:"port"`
}

type Log struct {
	Level            string    `mapstructure:"level" toml:"level"`
	ReportCaller     bool      `mapstructure:"report_caller" toml:"report_caller"`
	EnableColor      bool      `mapstructure:"enable_color" toml:"enable_color"`
	DisableTimestamp bool      `mapstructure:"disable_timestamp" toml:"disable_timestamp"`
	Module           LogModule `mapstructure:"module" toml:"module"`
}

type LogModule struct {
	Executor   string `mapstructure:"executor" toml:"executor"`
	Storage    string `mapstructure:"storage" toml:"storage"`
	Ledger     string `mapstructure:"ledger" toml:"ledger"`
	Token      string `mapstructure:"token" toml:"token"`
	Vault      string `mapstructure:"vault" toml:"vault"`
	Compounder string `mapstructure:"compounder" toml:"compounder"`
	Gateway    string `mapstructure:"gateway" toml:"gateway"`
}

func (c *Config) Bytes() ([]byte, error) {
	ret, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (c *Config) Validate() error {
	if c.Compounder.MaxSlippage > MaxSlippageLimit {
		return errors.Errorf("compounder.max_slippage %d exceeds %d", c.Compounder.MaxSlippage, MaxSlippageLimit)
	}
	if _, err := c.Compounder.MinimumClaimThreshold.ToBigInt(); err != nil {
		return errors.Wrap(err, "compounder.minimum_claim_threshold")
	}
	if c.Compounder.QuoteRetryWait != 0 {
		return errors.Errorf("compounder.quote_retry_wait must be 0, got %s", c.Compounder.QuoteRetryWait.String())
	}
	if c.Compounder.IntermediateToken != "" && !ethcommon.IsHexAddress(c.Compounder.IntermediateToken) {
		return errors.Errorf("compounder.intermediate_token is not an address: %s", c.Compounder.IntermediateToken)
	}
	if c.Gateway.FeeRate >= BasisPoint {
		return errors.Errorf("gateway.fee_rate %d must be less than %d", c.Gateway.FeeRate, BasisPoint)
	}
	for i, d := range c.Deployments {
		if d.Kind == "" || !ethcommon.IsHexAddress(d.Address) {
			return errors.Errorf("deployments[%d]: kind and address are required, got %q at %q", i, d.Kind, d.Address)
		}
	}
	if c.Ledger.BlockInterval.ToDuration() <= 0 || c.Ledger.BlockMaxTxNum == 0 {
		return errors.New("ledger.block_interval and ledger.block_max_tx_num must be positive")
	}
	switch c.Storage.KvType {
	case KVStorageTypeLeveldb, KVStorageTypePebble, KVStorageTypeMemory:
	default:
		return errors.Errorf("unknown storage.kv_type %s, expect leveldb, pebble or memory", c.Storage.KvType)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Storage: Storage{
			KvType:      KVStorageTypeLeveldb,
			KvCacheSize: KVStorageCacheSize,
			Sync:        KVStorageSync,
		},
		Ledger: Ledger{
			StateCacheMegabytesLimit: 32,
			AccountCacheSize:         1024,
			BlockInterval:            Duration(2 * time.Second),
			BlockMaxTxNum:            500,
		},
		Vault: Vault{
			Name:       "Value Vault Share",
			Symbol:     "vVAULT",
			Decimals:   18,
			LockPeriod: Duration(7 * 24 * time.Hour),
		},
		Compounder: Compounder{
			Name:                  "Compounding Vault Share",
			Symbol:                "cVAULT",
			MinimumClaimThreshold: "0",
			MaxSlippage:           100,
			SwapDeadline:          Duration(5 * time.Minute),
			QuoteAttempts:         3,
			QuoteRetryWait:        Duration(0),
		},
		Gateway: Gateway{
			FeeRate: 30,
		},
		Monitor: Monitor{
			Enable: true,
			Port:   40011,
		},
		Log: Log{
			Level:            "info",
			ReportCaller:     false,
			EnableColor:      true,
			DisableTimestamp: false,
			Module: LogModule{
				Executor:   "info",
				Storage:    "info",
				Ledger:     "info",
				Token:      "info",
				Vault:      "info",
				Compounder: "info",
				Gateway:    "info",
			},
		},
	}
}

func LoadConfig(repoRoot string) (*Config, error) {
	cfg, err := func() (*Config, error) {
		cfg := DefaultConfig()
		cfgPath := path.Join(repoRoot, CfgFileName)
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			if err := os.MkdirAll(repoRoot, 0755); err != nil {
				return nil, errors.Wrap(err, "failed to build default config")
			}

			if err := writeConfigWithEnv(cfgPath, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to build default config")
			}
		} else {
			if err := CheckWritable(repoRoot); err != nil {
				return nil, err
			}
			if err := readConfigFromFile(cfgPath, cfg); err != nil {
				return nil, err
			}
		}

		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}
