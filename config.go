package eil

import "math/big"

// ChainInfo is the per-chain configuration surface: RPC endpoint, the
// EntryPoint and paymaster contracts, and an optional dedicated bundler URL.
type ChainInfo struct {
	ChainID    ChainId
	RPCURL     string
	EntryPoint Address
	Paymaster  Address
	BundlerURL string // empty means "use RPCURL"
}

// XLPFilterFunc is a pluggable predicate over a candidate XLP; absence is
// the identity filter (always true).
type XLPFilterFunc func(chainID ChainId, xlp Address, token Address, availableDeposit, balance *big.Int) bool

// XLPSelectionConfig controls how candidate cross-chain liquidity providers
// are filtered and bounded for a voucher.
type XLPSelectionConfig struct {
	DepositReserveFactor float64
	IncludeBalance       bool
	MinXLPs              int
	MaxXLPs              int
	CustomFilter         XLPFilterFunc // nil means identity filter
}

// DefaultXLPSelectionConfig matches the reference defaults exactly.
func DefaultXLPSelectionConfig() XLPSelectionConfig {
	return XLPSelectionConfig{
		DepositReserveFactor: 1.0,
		IncludeBalance:       false,
		MinXLPs:              1,
		MaxXLPs:              5,
	}
}

// FeeConfig is the voucher fee-rule schedule, all fields percentages in
// [0,1] that get converted to fee numerators at translation time.
type FeeConfig struct {
	StartFeePercent          float64
	MaxFeePercent            float64
	FeeIncreasePerSecond     float64
	UnspentVoucherFeePercent float64
}

// DefaultFeeConfig matches the reference defaults exactly.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		StartFeePercent:          0.001,
		MaxFeePercent:            0.05,
		FeeIncreasePerSecond:     0.0001,
		UnspentVoucherFeePercent: 0.001,
	}
}

// Config is the cross-chain builder's top-level configuration. Construct via
// NewConfig with ConfigOptions, mirroring the functional-options pattern
// used throughout this SDK's client/server configuration surfaces.
type Config struct {
	ExpireTimeSeconds  uint64
	ExecTimeoutSeconds uint64
	XLPSelectionConfig XLPSelectionConfig
	FeeConfig          FeeConfig
	ChainInfos         []ChainInfo
	SourcePaymaster    SourcePaymaster // nil if every chain has a voucher-funded paymaster
}

// ConfigOption customizes a Config at construction time.
type ConfigOption func(*Config)

// WithXLPSelectionConfig overrides the default XLP selection policy.
func WithXLPSelectionConfig(c XLPSelectionConfig) ConfigOption {
	return func(cfg *Config) { cfg.XLPSelectionConfig = c }
}

// WithFeeConfig overrides the default fee schedule.
func WithFeeConfig(c FeeConfig) ConfigOption {
	return func(cfg *Config) { cfg.FeeConfig = c }
}

// WithExpireTime overrides the voucher expiry window, in seconds.
func WithExpireTime(seconds uint64) ConfigOption {
	return func(cfg *Config) { cfg.ExpireTimeSeconds = seconds }
}

// WithExecTimeoutSeconds overrides the executor's wall-clock budget.
func WithExecTimeoutSeconds(seconds uint64) ConfigOption {
	return func(cfg *Config) { cfg.ExecTimeoutSeconds = seconds }
}

// WithSourcePaymaster registers a gas sponsor for chains without a
// voucher-funded paymaster.
func WithSourcePaymaster(p SourcePaymaster) ConfigOption {
	return func(cfg *Config) { cfg.SourcePaymaster = p }
}

// NewConfig builds a Config from the given per-chain infos plus any
// overriding options, applying defaults matching the reference
// implementation's (expire_time_seconds=60, exec_timeout_seconds=30, and the
// XLP/fee defaults above).
func NewConfig(chainInfos []ChainInfo, opts ...ConfigOption) *Config {
	cfg := &Config{
		ExpireTimeSeconds:  60,
		ExecTimeoutSeconds: 30,
		XLPSelectionConfig: DefaultXLPSelectionConfig(),
		FeeConfig:          DefaultFeeConfig(),
		ChainInfos:         chainInfos,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ChainInfoFor returns the configuration for chainID, or false if absent.
func (c *Config) ChainInfoFor(chainID ChainId) (ChainInfo, bool) {
	info, ok := findFirst(c.ChainInfos, func(ci ChainInfo) bool { return ci.ChainID == chainID })
	return info, ok
}
