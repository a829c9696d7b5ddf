package eil

// EilSdk is this package's top-level entry point, grounded on
// original_source/src/lib.rs's EilSdk struct: it owns a Config and the
// NetworkEnvironment derived from it, and hands out builders and
// MultiChainEntity constructors bound to that environment.
type EilSdk struct {
	config     *Config
	networkEnv *NetworkEnvironment
}

// NewEilSdk builds an SDK instance from config, deriving its
// NetworkEnvironment once up front.
func NewEilSdk(config *Config) *EilSdk {
	return &EilSdk{
		config:     config,
		networkEnv: NewNetworkEnvironment(config),
	}
}

// NetworkEnv returns the SDK's bound network environment.
func (s *EilSdk) NetworkEnv() *NetworkEnvironment {
	return s.networkEnv
}

// CreateBuilder returns a fresh CrossChainBuilder bound to this SDK's
// network environment.
func (s *EilSdk) CreateBuilder(opts ...BuilderOption) *CrossChainBuilder {
	return NewCrossChainBuilder(s.networkEnv, opts...)
}

// CreateToken builds a MultichainToken with the given per-chain deployment
// addresses.
func (s *EilSdk) CreateToken(name string, deployments AddressPerChain) *MultichainToken {
	return NewMultichainToken(name, deployments)
}

// CreateContract builds a MultichainContract from an ABI JSON document and
// per-chain deployment addresses.
func (s *EilSdk) CreateContract(abiJSON string, deployments AddressPerChain) (*MultichainContract, error) {
	return NewMultichainContract(abiJSON, deployments)
}
