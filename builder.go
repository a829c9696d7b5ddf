package eil

import (
	"context"
	"math/big"
)

// builderPhase is the runtime substitute for the reference implementation's
// compile-time type states (Building/ReadyToBuild/Signed): Go has no ergonomic
// phantom-type story the rest of this codebase otherwise uses, so invalid
// transitions are rejected dynamically instead, with the same error kinds
// the type-state design calls for.
type builderPhase int

const (
	phaseBuilding builderPhase = iota
	phaseReadyToBuild
	phaseSigned
)

// batchDef is one StartBatch/EndBatch cycle's accumulated definition, owned
// by the parent CrossChainBuilder from the moment EndBatch re-attaches it.
type batchDef struct {
	chainID        ChainId
	actions        []Action
	inputVouchers  []SdkVoucherRequest
	outputVouchers []SdkVoucherRequest
}

// BuilderOption customizes a CrossChainBuilder at construction time.
type BuilderOption func(*CrossChainBuilder)

// WithXLPSource registers the collaborator used to discover candidate
// cross-chain liquidity providers. Without one, any voucher requiring at
// least one XLP fails NoXlpsFound.
func WithXLPSource(source XLPSource) BuilderOption {
	return func(c *CrossChainBuilder) { c.xlpSource = source }
}

// WithClock overrides the builder's wall-clock source (used for
// expires_at computation); nil means time.Now.
func WithClock(clock Clock) BuilderOption {
	return func(c *CrossChainBuilder) { c.clock = clock }
}

// WithUserOpHasher overrides the digest function used for
// SingleChainBatch.UserOpHash. Defaults to a chain/entry-point-bound
// fallback. The EIP-712 digest is signers/evm.ComputeUserOpHash; it returns
// a common.Hash rather than Hex, so it is injected through a small wrapper.
func WithUserOpHasher(hasher UserOpHasher) BuilderOption {
	return func(c *CrossChainBuilder) { c.hasher = hasher }
}

// CrossChainBuilder accumulates per-chain batches of actions and voucher
// flows into a sealed, signed set of SingleChainBatches. It is the dynamic
// analogue of the reference CrossChainBuilder<State> type-state: new
// builders start in Building, UseAccount advances to ReadyToBuild, and
// BuildAndSign consumes it into Signed, after which StartBatch, EndBatch,
// BuildSingleChainBatches and BuildAndSign fail BuilderAlreadyBuilt and
// UseAccount fails AccountAlreadySet. A BatchBuilder opened before sealing
// is not checked: its UseVoucher still updates the shared coordinator.
type CrossChainBuilder struct {
	network     *NetworkEnvironment
	coordinator *VoucherCoordinator
	account     MultiChainSmartAccount
	phase       builderPhase
	batches     []batchDef
	xlpSource   XLPSource
	clock       Clock
	hasher      UserOpHasher
}

// NewCrossChainBuilder starts a fresh builder against network, in the
// Building phase (no account bound yet).
func NewCrossChainBuilder(network *NetworkEnvironment, opts ...BuilderOption) *CrossChainBuilder {
	c := &CrossChainBuilder{
		network:     network,
		coordinator: NewVoucherCoordinator(),
		phase:       phaseBuilding,
		hasher:      defaultUserOpHash,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseAccount binds the smart account this builder signs and submits
// operations through, advancing Building -> ReadyToBuild. Fails
// AccountAlreadySet if called twice.
func (c *CrossChainBuilder) UseAccount(account MultiChainSmartAccount) (*CrossChainBuilder, error) {
	if c.account != nil {
		return nil, NewError(ErrAccountAlreadySet, "account already bound to this builder")
	}
	c.account = account
	c.phase = phaseReadyToBuild
	return c, nil
}

// BatchCount reports the number of batches closed with EndBatch so far.
func (c *CrossChainBuilder) BatchCount() int {
	return len(c.batches)
}

// StartBatch opens a new batch on chainID. The chain need not yet be known
// to the network environment; an unknown chain only fails once BuildAndSign
// reaches it. Requires an account to already be bound.
func (c *CrossChainBuilder) StartBatch(chainID ChainId) (*BatchBuilder, error) {
	if c.phase == phaseSigned {
		return nil, NewError(ErrBuilderAlreadyBuilt, "builder already built")
	}
	if c.account == nil {
		return nil, NewError(ErrAccountNotSet, "call UseAccount before starting a batch")
	}
	return &BatchBuilder{
		chainID:     chainID,
		batchIndex:  len(c.batches),
		coordinator: c.coordinator,
		network:     c.network,
	}, nil
}

// EndBatch re-attaches a finished BatchBuilder's definition, registering its
// output vouchers with the coordinator under its batch index. This is the Go
// analogue of the reference implementation's "moved in and out" batch
// ownership: BatchBuilder never holds a pointer back to this builder, so
// EndBatch is the one place that hands control back.
func (c *CrossChainBuilder) EndBatch(b *BatchBuilder) (*CrossChainBuilder, error) {
	if c.phase == phaseSigned {
		return nil, NewError(ErrBuilderAlreadyBuilt, "builder already built")
	}
	for _, v := range b.outputVouchers {
		if err := c.coordinator.Register(v, b.batchIndex); err != nil {
			return nil, err
		}
	}
	c.batches = append(c.batches, batchDef{
		chainID:        b.chainID,
		actions:        b.actions,
		inputVouchers:  b.inputVouchers,
		outputVouchers: b.outputVouchers,
	})
	return c, nil
}

// BuildSingleChainBatches runs XLP selection, voucher translation, and
// per-batch UserOperation assembly, without signing. Exposed separately from
// BuildAndSign for testability, mirroring the reference implementation's
// split between build_single_chain_batches and build_and_sign.
func (c *CrossChainBuilder) BuildSingleChainBatches(ctx context.Context) ([]SingleChainBatch, error) {
	if c.phase == phaseSigned {
		return nil, NewError(ErrBuilderAlreadyBuilt, "builder already built")
	}
	if c.account == nil {
		return nil, NewError(ErrAccountNotSet, "no account bound")
	}

	cfg := c.network.Config()
	if err := collectXLPsPerVoucher(ctx, c.coordinator, c.xlpSource, cfg.XLPSelectionConfig); err != nil {
		return nil, err
	}
	if err := buildVouchers(ctx, c.account, c.network, c.coordinator, cfg.FeeConfig, cfg.ExpireTimeSeconds, c.clock); err != nil {
		return nil, err
	}
	if err := c.coordinator.ValidateAllConsumed(); err != nil {
		return nil, err
	}

	batches := make([]SingleChainBatch, 0, len(c.batches))
	for _, bd := range c.batches {
		sb, err := c.buildSingleChainBatch(ctx, bd)
		if err != nil {
			return nil, err
		}
		batches = append(batches, sb)
	}
	return batches, nil
}

func (c *CrossChainBuilder) buildSingleChainBatch(ctx context.Context, bd batchDef) (SingleChainBatch, error) {
	batchCtx := BatchContext{ChainID: bd.chainID, Coordinator: c.coordinator}
	var calls []RawCall
	for _, action := range bd.actions {
		encoded, err := action.Encode(batchCtx)
		if err != nil {
			return SingleChainBatch{}, err
		}
		calls = append(calls, encoded...)
	}

	sender, err := resolveAddress(c.account, bd.chainID, "account")
	if err != nil {
		return SingleChainBatch{}, err
	}
	callData, err := c.account.EncodeCalls(bd.chainID, calls)
	if err != nil {
		return SingleChainBatch{}, err
	}
	nonce, err := c.account.GetNonce(ctx, bd.chainID)
	if err != nil {
		return SingleChainBatch{}, err
	}
	entryPoint, err := c.network.EntryPoint(bd.chainID)
	if err != nil {
		return SingleChainBatch{}, err
	}
	factory, factoryData, err := c.account.GetFactoryArgs(bd.chainID)
	if err != nil {
		return SingleChainBatch{}, err
	}

	op := UserOperation{
		Sender:               sender,
		Nonce:                nonce,
		Factory:              factory,
		FactoryData:          factoryData,
		CallData:             callData,
		CallGasLimit:         new(big.Int).Set(DefaultCallGasLimit),
		VerificationGasLimit: new(big.Int).Set(DefaultVerificationGasLimit),
		PreVerificationGas:   new(big.Int).Set(DefaultPreVerificationGas),
		MaxFeePerGas:         new(big.Int).Set(DefaultMaxFeePerGas),
		MaxPriorityFeePerGas: new(big.Int).Set(DefaultMaxPriorityFeePerGas),
		Signature:            []byte{},
		ChainID:              bd.chainID,
		EntryPointAddress:    entryPoint,
	}

	hash, err := c.hasher(op)
	if err != nil {
		return SingleChainBatch{}, WrapError(ErrSerialization, err, "computing user-op hash for chain %d", bd.chainID)
	}

	return SingleChainBatch{
		UserOp:               op,
		UserOpHash:           hash,
		ChainID:              bd.chainID,
		InputVoucherRequests: bd.inputVouchers,
		OutVoucherRequests:   bd.outputVouchers,
	}, nil
}

// BuildAndSign runs BuildSingleChainBatches, signs every resulting
// UserOperation through the bound account, and seals the builder
// (ReadyToBuild -> Signed). A second call fails BuilderAlreadyBuilt.
func (c *CrossChainBuilder) BuildAndSign(ctx context.Context) (*CrossChainExecutor, error) {
	batches, err := c.BuildSingleChainBatches(ctx)
	if err != nil {
		return nil, err
	}

	ops := make([]UserOperation, len(batches))
	for i, b := range batches {
		ops[i] = b.UserOp
	}
	signedOps, err := c.account.SignUserOps(ctx, ops)
	if err != nil {
		return nil, err
	}
	if len(signedOps) != len(batches) {
		return nil, NewError(ErrUserOpNotSigned, "signer returned %d ops for %d batches", len(signedOps), len(batches))
	}
	for i := range batches {
		batches[i].UserOp = signedOps[i]
	}

	c.phase = phaseSigned
	return NewCrossChainExecutor(c.network, c.account, batches), nil
}

// BatchBuilder accumulates one chain's actions and voucher traffic. It holds
// a pointer to the coordinator and network environment directly rather than
// to its parent CrossChainBuilder, so no reference cycle exists while it is
// detached; EndBatch is what reattaches its result.
type BatchBuilder struct {
	chainID        ChainId
	batchIndex     int
	coordinator    *VoucherCoordinator
	network        *NetworkEnvironment
	actions        []Action
	inputVouchers  []SdkVoucherRequest
	outputVouchers []SdkVoucherRequest
}

// ChainID returns the chain this batch targets.
func (b *BatchBuilder) ChainID() ChainId {
	return b.chainID
}

// AddAction appends action to this batch's ordered call sequence.
func (b *BatchBuilder) AddAction(action Action) *BatchBuilder {
	b.actions = append(b.actions, action)
	return b
}

// AddVoucherRequest declares req as one of this batch's output vouchers,
// setting its SourceChainID to this batch's chain, and queues the implied
// VoucherRequestAction alongside any other actions.
func (b *BatchBuilder) AddVoucherRequest(req SdkVoucherRequest) *BatchBuilder {
	chainID := b.chainID
	req.SourceChainID = &chainID
	b.outputVouchers = append(b.outputVouchers, req)
	b.actions = append(b.actions, VoucherRequestAction{Request: req})
	return b
}

// UseVoucher marks refID as consumed by this batch, propagating
// VoucherNotFound/VoucherAlreadyUsed from the coordinator.
func (b *BatchBuilder) UseVoucher(refID string) (*BatchBuilder, error) {
	if err := b.coordinator.MarkConsumed(refID, b.batchIndex); err != nil {
		return nil, err
	}
	entry, err := b.coordinator.Get(refID)
	if err != nil {
		return nil, err
	}
	b.inputVouchers = append(b.inputVouchers, entry.Voucher)
	return b, nil
}
