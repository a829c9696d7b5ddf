package eil

// NetworkEnvironment resolves chain-specific endpoints and contract
// addresses from a Config. Provider construction (the actual RPC client) is
// an external collaborator's concern; this type only resolves configuration.
type NetworkEnvironment struct {
	config  *Config
	rpcURLs map[ChainId]string
}

// NewNetworkEnvironment builds an environment from config, indexing RPC URLs
// by chain id for O(1) lookup.
func NewNetworkEnvironment(config *Config) *NetworkEnvironment {
	rpcURLs := make(map[ChainId]string, len(config.ChainInfos))
	for _, ci := range config.ChainInfos {
		rpcURLs[ci.ChainID] = ci.RPCURL
	}
	return &NetworkEnvironment{config: config, rpcURLs: rpcURLs}
}

// RPCURL returns the RPC endpoint for chainID.
func (n *NetworkEnvironment) RPCURL(chainID ChainId) (string, error) {
	url, ok := n.rpcURLs[chainID]
	if !ok {
		return "", errUnsupportedChain(chainID)
	}
	return url, nil
}

// ChainIDs returns every chain id this environment knows about, in no
// particular order.
func (n *NetworkEnvironment) ChainIDs() []ChainId {
	ids := make([]ChainId, 0, len(n.rpcURLs))
	for id := range n.rpcURLs {
		ids = append(ids, id)
	}
	return ids
}

// Config returns the environment's backing configuration.
func (n *NetworkEnvironment) Config() *Config {
	return n.config
}

// EntryPoint returns the EntryPoint contract address for chainID.
func (n *NetworkEnvironment) EntryPoint(chainID ChainId) (Address, error) {
	info, ok := n.config.ChainInfoFor(chainID)
	if !ok {
		return Address{}, errUnsupportedChain(chainID)
	}
	return info.EntryPoint, nil
}

// Paymaster returns the cross-chain paymaster contract address for chainID.
func (n *NetworkEnvironment) Paymaster(chainID ChainId) (Address, error) {
	info, ok := n.config.ChainInfoFor(chainID)
	if !ok {
		return Address{}, errUnsupportedChain(chainID)
	}
	return info.Paymaster, nil
}
