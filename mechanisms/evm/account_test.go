package evm

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eil-sdk/eil"
)

const testOwnerKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690"

func newTestUserOp(chainID eil.ChainId, sender common.Address) eil.UserOperation {
	return eil.UserOperation{
		Sender:               sender,
		Nonce:                big.NewInt(0),
		CallData:             []byte{0x01, 0x02},
		CallGasLimit:         big.NewInt(100000),
		VerificationGasLimit: big.NewInt(150000),
		PreVerificationGas:   big.NewInt(50000),
		MaxFeePerGas:         big.NewInt(10000000000),
		MaxPriorityFeePerGas: big.NewInt(1000000000),
		ChainID:              chainID,
		EntryPointAddress:    common.HexToAddress(EntryPointV07Address),
	}
}

func TestNewSafeAccountDerivesStableAddress(t *testing.T) {
	account, err := NewSafeAccount(testOwnerKey, common.HexToAddress(EntryPointV07Address), map[eil.ChainId]string{
		eil.ChainId(10): "http://example.invalid",
	})
	if err != nil {
		t.Fatalf("NewSafeAccount: %v", err)
	}

	addr1, ok := account.AddressOn(10)
	if !ok {
		t.Fatalf("expected chain 10 to be configured")
	}
	if addr1 == (common.Address{}) {
		t.Fatalf("derived address is zero")
	}

	// Counterfactual address derivation must be chain-independent: the same
	// owner/salt/threshold yields the same address regardless of which
	// bundler it's reached through.
	other, err := NewSafeAccount(testOwnerKey, common.HexToAddress(EntryPointV07Address), map[eil.ChainId]string{
		eil.ChainId(42161): "http://example.invalid",
	})
	if err != nil {
		t.Fatalf("NewSafeAccount (second): %v", err)
	}
	addr2, _ := other.AddressOn(42161)
	if addr1 != addr2 {
		t.Fatalf("expected chain-independent address, got %s vs %s", addr1.Hex(), addr2.Hex())
	}

	if _, ok := account.AddressOn(999); ok {
		t.Fatalf("expected unconfigured chain to report not-ok")
	}
}

func TestSafeAccountSignUserOps(t *testing.T) {
	account, err := NewSafeAccount(testOwnerKey, common.HexToAddress(EntryPointV07Address), map[eil.ChainId]string{
		eil.ChainId(10): "http://example.invalid",
	})
	if err != nil {
		t.Fatalf("NewSafeAccount: %v", err)
	}
	addr, _ := account.AddressOn(10)

	op := newTestUserOp(10, addr)
	signed, err := account.SignUserOps(context.Background(), []eil.UserOperation{op})
	if err != nil {
		t.Fatalf("SignUserOps: %v", err)
	}
	if len(signed[0].Signature) != 65 {
		t.Fatalf("expected a 65-byte r||s||v signature, got %d bytes", len(signed[0].Signature))
	}
}

func TestSafeAccountSendUserOperationAndAwaitReceipt(t *testing.T) {
	const userOpHash = "0x" + "ab"
	var sawMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		sawMethod = req.Method

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "eth_sendUserOperation":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0", "id": req.ID, "result": userOpHash,
			})
		case "eth_getUserOperationReceipt":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0", "id": req.ID, "result": map[string]interface{}{
					"userOpHash":    userOpHash,
					"success":       true,
					"actualGasCost": "0x64",
					"actualGasUsed": "0x32",
					"receipt": map[string]interface{}{
						"transactionHash": "0x" + "cd",
					},
				},
			})
		}
	}))
	defer server.Close()

	account, err := NewSafeAccount(testOwnerKey, common.HexToAddress(EntryPointV07Address), map[eil.ChainId]string{
		eil.ChainId(10): server.URL,
	})
	if err != nil {
		t.Fatalf("NewSafeAccount: %v", err)
	}
	addr, _ := account.AddressOn(10)

	signed, err := account.SignUserOps(context.Background(), []eil.UserOperation{newTestUserOp(10, addr)})
	if err != nil {
		t.Fatalf("SignUserOps: %v", err)
	}

	hash, err := account.SendUserOperation(context.Background(), 10, signed[0])
	if err != nil {
		t.Fatalf("SendUserOperation: %v", err)
	}
	if sawMethod != "eth_sendUserOperation" {
		t.Fatalf("expected eth_sendUserOperation to be called, got %q", sawMethod)
	}

	receipt, err := account.AwaitReceipt(context.Background(), 10, hash, time.Second)
	if err != nil {
		t.Fatalf("AwaitReceipt: %v", err)
	}
	if !receipt.Success {
		t.Fatalf("expected successful receipt")
	}
	if receipt.ActualGasCost.Cmp(big.NewInt(0x64)) != 0 {
		t.Fatalf("actualGasCost mismatch: got %v", receipt.ActualGasCost)
	}

	if _, err := account.SendUserOperation(context.Background(), 999, signed[0]); err == nil {
		t.Fatalf("expected error submitting to an unconfigured chain")
	}
}

func TestSafeAccountVerifyBundlerConfig(t *testing.T) {
	entryPoint := common.HexToAddress(EntryPointV07Address)
	account, err := NewSafeAccount(testOwnerKey, entryPoint, map[eil.ChainId]string{
		eil.ChainId(10): "http://example.invalid",
	})
	if err != nil {
		t.Fatalf("NewSafeAccount: %v", err)
	}

	if err := account.VerifyBundlerConfig(10, entryPoint); err != nil {
		t.Fatalf("VerifyBundlerConfig: %v", err)
	}
	if err := account.VerifyBundlerConfig(999, entryPoint); err == nil {
		t.Fatalf("expected error for unconfigured chain")
	}
	if err := account.VerifyBundlerConfig(10, common.HexToAddress(EntryPointV06Address)); err == nil {
		t.Fatalf("expected error for mismatched entry point")
	}
}
