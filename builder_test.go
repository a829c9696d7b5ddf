package eil

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// mockAccount is a minimal MultiChainSmartAccount, grounded on
// original_source/src/test_utils.rs's MockAccount: fixed per-chain
// addresses, a dummy signature on every sign, and a recording send.
type mockAccount struct {
	addresses map[ChainId]Address
	nonce     *big.Int
	sent      []UserOperation
	sendErr   error
}

func newMockAccount(chainIDs ...ChainId) *mockAccount {
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrs := make(map[ChainId]Address, len(chainIDs))
	for _, id := range chainIDs {
		addrs[id] = addr
	}
	return &mockAccount{addresses: addrs, nonce: big.NewInt(0)}
}

func (m *mockAccount) AddressOn(chainID ChainId) (Address, bool) {
	addr, ok := m.addresses[chainID]
	return addr, ok
}

func (m *mockAccount) SignUserOps(ctx context.Context, ops []UserOperation) ([]UserOperation, error) {
	signed := make([]UserOperation, len(ops))
	for i, op := range ops {
		op.Signature = make([]byte, 65)
		op.Signature[64] = 27
		signed[i] = op
	}
	return signed, nil
}

func (m *mockAccount) EncodeCalls(chainID ChainId, calls []RawCall) (Hex, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	return []byte{byte(len(calls))}, nil
}

func (m *mockAccount) EncodeStaticCalls(chainID ChainId, calls []RawCall) (Hex, error) {
	return m.EncodeCalls(chainID, calls)
}

func (m *mockAccount) SendUserOperation(ctx context.Context, chainID ChainId, op UserOperation) (Hex, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, op)
	return []byte{0xab}, nil
}

func (m *mockAccount) VerifyBundlerConfig(chainID ChainId, entryPoint Address) error {
	return nil
}

func (m *mockAccount) GetNonce(ctx context.Context, chainID ChainId) (*big.Int, error) {
	return m.nonce, nil
}

func (m *mockAccount) GetFactoryArgs(chainID ChainId) (*Address, Hex, error) {
	return nil, nil, nil
}

type fakeXLPSource struct {
	candidate Address
}

func (f fakeXLPSource) CandidateXLPs(ctx context.Context, chainID ChainId, token Address) ([]XLPCandidate, error) {
	return []XLPCandidate{{
		Address:          f.candidate,
		AvailableDeposit: big.NewInt(1_000_000_000),
		Balance:          big.NewInt(1_000_000_000),
	}}, nil
}

func testNetwork(chainIDs ...ChainId) *NetworkEnvironment {
	infos := make([]ChainInfo, len(chainIDs))
	for i, id := range chainIDs {
		infos[i] = ChainInfo{
			ChainID:    id,
			RPCURL:     "https://test-rpc.example.com",
			EntryPoint: common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"),
			Paymaster:  common.HexToAddress("0x0000000000000000000000000000000000000001"),
		}
	}
	return NewNetworkEnvironment(NewConfig(infos))
}

func testToken(name string, chainIDs ...ChainId) *MultichainToken {
	deployments := make(AddressPerChain, len(chainIDs))
	for i, id := range chainIDs {
		deployments[id] = common.BigToAddress(big.NewInt(int64(i + 1)))
	}
	return NewMultichainToken(name, deployments)
}

// Scenario 1: single-chain single-action.
func TestBuilder_SingleChainSingleAction(t *testing.T) {
	net := testNetwork(1)
	account := newMockAccount(1)
	token := testToken("T", 1)

	builder, err := NewCrossChainBuilder(net).UseAccount(account)
	if err != nil {
		t.Fatalf("UseAccount: %v", err)
	}

	bb, err := builder.StartBatch(1)
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	bb.AddAction(Transfer{
		Token:     token,
		Recipient: common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Amount:    NewFixedAmount(100),
	})
	builder, err = builder.EndBatch(bb)
	if err != nil {
		t.Fatalf("EndBatch: %v", err)
	}

	exec, err := builder.BuildAndSign(context.Background())
	if err != nil {
		t.Fatalf("BuildAndSign: %v", err)
	}

	batches := exec.Batches()
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if batches[0].ChainID != 1 {
		t.Errorf("expected chain id 1, got %d", batches[0].ChainID)
	}
	if len(batches[0].UserOp.Signature) == 0 {
		t.Error("expected signature to be filled")
	}
	if len(builder.coordinator.AllVouchers()) != 0 {
		t.Errorf("expected zero vouchers, got %d", len(builder.coordinator.AllVouchers()))
	}
}

// Scenario 2: two-batch voucher pair.
func TestBuilder_TwoBatchVoucherPair(t *testing.T) {
	net := testNetwork(1, 10)
	account := newMockAccount(1, 10)
	token := testToken("T", 1, 10)
	xlp := fakeXLPSource{candidate: common.HexToAddress("0x9999999999999999999999999999999999999999")}

	builder, err := NewCrossChainBuilder(net, WithXLPSource(xlp)).UseAccount(account)
	if err != nil {
		t.Fatalf("UseAccount: %v", err)
	}

	bb0, err := builder.StartBatch(1)
	if err != nil {
		t.Fatalf("StartBatch(1): %v", err)
	}
	bb0.AddVoucherRequest(SdkVoucherRequest{
		RefID:              "v1",
		DestinationChainID: 10,
		Tokens:             []TokenAmount{{Token: token, Amount: NewFixedAmount(100)}},
	})
	builder, err = builder.EndBatch(bb0)
	if err != nil {
		t.Fatalf("EndBatch(0): %v", err)
	}

	bb1, err := builder.StartBatch(10)
	if err != nil {
		t.Fatalf("StartBatch(10): %v", err)
	}
	bb1, err = bb1.UseVoucher("v1")
	if err != nil {
		t.Fatalf("UseVoucher: %v", err)
	}
	builder, err = builder.EndBatch(bb1)
	if err != nil {
		t.Fatalf("EndBatch(1): %v", err)
	}

	batches, err := builder.BuildSingleChainBatches(context.Background())
	if err != nil {
		t.Fatalf("BuildSingleChainBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}

	entry, err := builder.coordinator.Get("v1")
	if err != nil {
		t.Fatalf("Get(v1): %v", err)
	}
	if entry.SourceBatchIndex != 0 {
		t.Errorf("expected source batch index 0, got %d", entry.SourceBatchIndex)
	}
	if entry.DestBatchIndex == nil || *entry.DestBatchIndex != 1 {
		t.Errorf("expected dest batch index 1, got %v", entry.DestBatchIndex)
	}
}

// Scenario 3: unconsumed voucher fails the build.
func TestBuilder_UnconsumedVoucherFailsBuild(t *testing.T) {
	net := testNetwork(1, 10)
	account := newMockAccount(1, 10)
	token := testToken("T", 1, 10)
	xlp := fakeXLPSource{candidate: common.HexToAddress("0x9999999999999999999999999999999999999999")}

	builder, _ := NewCrossChainBuilder(net, WithXLPSource(xlp)).UseAccount(account)

	bb0, _ := builder.StartBatch(1)
	bb0.AddVoucherRequest(SdkVoucherRequest{
		RefID:              "v1",
		DestinationChainID: 10,
		Tokens:             []TokenAmount{{Token: token, Amount: NewFixedAmount(100)}},
	})
	builder, _ = builder.EndBatch(bb0)

	bb1, _ := builder.StartBatch(10)
	builder, _ = builder.EndBatch(bb1)

	_, err := builder.BuildSingleChainBatches(context.Background())
	if !IsKind(err, ErrVoucherNotConsumed) {
		t.Fatalf("expected VoucherNotConsumed, got %v", err)
	}
}

// Scenario 4: duplicate ref_id across batches fails at EndBatch.
func TestBuilder_DuplicateRefIDFails(t *testing.T) {
	net := testNetwork(1, 10)
	account := newMockAccount(1, 10)
	token := testToken("T", 1, 10)

	builder, _ := NewCrossChainBuilder(net).UseAccount(account)

	bb0, _ := builder.StartBatch(1)
	bb0.AddVoucherRequest(SdkVoucherRequest{RefID: "v1", DestinationChainID: 10, Tokens: []TokenAmount{{Token: token, Amount: NewFixedAmount(100)}}})
	builder, _ = builder.EndBatch(bb0)

	bb1, _ := builder.StartBatch(1)
	bb1.AddVoucherRequest(SdkVoucherRequest{RefID: "v1", DestinationChainID: 10, Tokens: []TokenAmount{{Token: token, Amount: NewFixedAmount(100)}}})
	_, err := builder.EndBatch(bb1)
	if !IsKind(err, ErrDuplicateVoucher) {
		t.Fatalf("expected DuplicateVoucher, got %v", err)
	}
}

// Scenario 5: a voucher consumed twice fails on the second UseVoucher.
func TestBuilder_DoubleConsumptionFails(t *testing.T) {
	net := testNetwork(1, 10)
	account := newMockAccount(1, 10)
	token := testToken("T", 1, 10)

	builder, _ := NewCrossChainBuilder(net).UseAccount(account)

	bb0, _ := builder.StartBatch(1)
	bb0.AddVoucherRequest(SdkVoucherRequest{RefID: "v1", DestinationChainID: 10, Tokens: []TokenAmount{{Token: token, Amount: NewFixedAmount(100)}}})
	builder, _ = builder.EndBatch(bb0)

	bb1, _ := builder.StartBatch(10)
	bb1, err := bb1.UseVoucher("v1")
	if err != nil {
		t.Fatalf("first UseVoucher: %v", err)
	}
	builder, _ = builder.EndBatch(bb1)

	bb2, _ := builder.StartBatch(10)
	_, err = bb2.UseVoucher("v1")
	if !IsKind(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("expected VoucherAlreadyUsed, got %v", err)
	}
}

// Scenario 6: using an unknown voucher ref fails.
func TestBuilder_UnknownVoucherFails(t *testing.T) {
	net := testNetwork(1)
	account := newMockAccount(1)

	builder, _ := NewCrossChainBuilder(net).UseAccount(account)
	bb, _ := builder.StartBatch(1)
	_, err := bb.UseVoucher("ghost")
	if !IsKind(err, ErrVoucherNotFound) {
		t.Fatalf("expected VoucherNotFound, got %v", err)
	}
}

func TestBuilder_UseAccountTwiceFails(t *testing.T) {
	net := testNetwork(1)
	builder, err := NewCrossChainBuilder(net).UseAccount(newMockAccount(1))
	if err != nil {
		t.Fatalf("UseAccount: %v", err)
	}
	_, err = builder.UseAccount(newMockAccount(1))
	if !IsKind(err, ErrAccountAlreadySet) {
		t.Fatalf("expected AccountAlreadySet, got %v", err)
	}
}

func TestBuilder_BuildAndSignTwiceFails(t *testing.T) {
	net := testNetwork(1)
	builder, _ := NewCrossChainBuilder(net).UseAccount(newMockAccount(1))
	bb, _ := builder.StartBatch(1)
	builder, _ = builder.EndBatch(bb)

	_, err := builder.BuildAndSign(context.Background())
	if err != nil {
		t.Fatalf("first BuildAndSign: %v", err)
	}
	_, err = builder.BuildAndSign(context.Background())
	if !IsKind(err, ErrBuilderAlreadyBuilt) {
		t.Fatalf("expected BuilderAlreadyBuilt, got %v", err)
	}
}

func TestBuilder_StartBatchWithoutAccountFails(t *testing.T) {
	net := testNetwork(1)
	builder := NewCrossChainBuilder(net)
	_, err := builder.StartBatch(1)
	if !IsKind(err, ErrAccountNotSet) {
		t.Fatalf("expected AccountNotSet, got %v", err)
	}
}
