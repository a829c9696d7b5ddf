package evm

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eil-sdk/eil"
)

// UserOperationReceipt is the bundler's confirmation that a submitted
// UserOperation landed on chain.
type UserOperationReceipt struct {
	UserOpHash    common.Hash
	Success       bool
	Reason        string
	ActualGasCost *big.Int
	ActualGasUsed *big.Int
	TxHash        common.Hash
}

// bundlerClient talks to one chain's ERC-4337 bundler over JSON-RPC.
type bundlerClient struct {
	url        string
	entryPoint eil.Address
	chainID    eil.ChainId
	requestID  int
	httpClient *http.Client
}

func newBundlerClient(url string, entryPoint eil.Address, chainID eil.ChainId) *bundlerClient {
	return &bundlerClient{
		url:        url,
		entryPoint: entryPoint,
		chainID:    chainID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// sendUserOperation submits op, packed into the EntryPoint's on-chain shape,
// and returns the bundler-assigned user-op hash.
func (c *bundlerClient) sendUserOperation(op eil.UserOperation) (common.Hash, error) {
	var result string
	err := c.rpcCall(bundlerMethods.SendUserOperation, []interface{}{packUserOp(op), c.entryPoint.Hex()}, &result)
	if err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(result), nil
}

// getUserOperationReceipt fetches the receipt for hash, or nil if the
// operation has not yet landed.
func (c *bundlerClient) getUserOperationReceipt(hash common.Hash) (*UserOperationReceipt, error) {
	var result struct {
		UserOpHash    string `json:"userOpHash"`
		ActualGasCost string `json:"actualGasCost"`
		ActualGasUsed string `json:"actualGasUsed"`
		Success       bool   `json:"success"`
		Reason        string `json:"reason,omitempty"`
		Receipt       struct {
			TransactionHash string `json:"transactionHash"`
		} `json:"receipt"`
	}

	if err := c.rpcCall(bundlerMethods.GetUserOperationReceipt, []interface{}{hash.Hex()}, &result); err != nil {
		return nil, err
	}
	if result.UserOpHash == "" {
		return nil, nil
	}

	return &UserOperationReceipt{
		UserOpHash:    common.HexToHash(result.UserOpHash),
		Success:       result.Success,
		Reason:        result.Reason,
		ActualGasCost: hexToBigInt(result.ActualGasCost),
		ActualGasUsed: hexToBigInt(result.ActualGasUsed),
		TxHash:        common.HexToHash(result.Receipt.TransactionHash),
	}, nil
}

// waitForReceipt polls getUserOperationReceipt until it lands or timeout
// elapses.
func (c *bundlerClient) waitForReceipt(hash common.Hash, timeout, pollingInterval time.Duration) (*UserOperationReceipt, error) {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if pollingInterval == 0 {
		pollingInterval = 2 * time.Second
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		receipt, err := c.getUserOperationReceipt(hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		time.Sleep(pollingInterval)
	}
	return nil, fmt.Errorf("timeout waiting for user operation receipt: %s", hash.Hex())
}

func (c *bundlerClient) rpcCall(method string, params []interface{}, result interface{}) error {
	c.requestID++
	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      c.requestID,
		"method":  method,
		"params":  params,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshaling bundler request: %w", err)
	}

	resp, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bundler request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bundler returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decoding bundler response: %w", err)
	}
	if response.Error != nil {
		return fmt.Errorf("bundler RPC error %d: %s", response.Error.Code, response.Error.Message)
	}
	if result != nil && len(response.Result) > 0 {
		if err := json.Unmarshal(response.Result, result); err != nil {
			return fmt.Errorf("unmarshaling bundler result: %w", err)
		}
	}
	return nil
}

// packUserOp assembles the EntryPoint's packed RPC representation of op
// directly from this SDK's split Factory/FactoryData and
// Paymaster/PaymasterData fields — there is no intermediate wire type.
func packUserOp(op eil.UserOperation) map[string]interface{} {
	accountGasLimits := PackAccountGasLimits(op.VerificationGasLimit, op.CallGasLimit)
	gasFees := PackGasFees(op.MaxPriorityFeePerGas, op.MaxFeePerGas)

	return map[string]interface{}{
		"sender":             op.Sender.Hex(),
		"nonce":              bigIntToHex(op.Nonce),
		"initCode":           bytesToHex(initCodeOf(op)),
		"callData":           bytesToHex(op.CallData),
		"accountGasLimits":   bytesToHex(accountGasLimits[:]),
		"preVerificationGas": bigIntToHex(op.PreVerificationGas),
		"gasFees":            bytesToHex(gasFees[:]),
		"paymasterAndData":   bytesToHex(paymasterAndDataOf(op)),
		"signature":          bytesToHex(op.Signature),
	}
}

// initCodeOf concatenates op's factory address and factory call data into
// the single blob the EntryPoint expects, or nil if the account is already
// deployed.
func initCodeOf(op eil.UserOperation) []byte {
	if op.Factory == nil {
		return nil
	}
	out := make([]byte, 0, 20+len(op.FactoryData))
	out = append(out, op.Factory.Bytes()...)
	return append(out, op.FactoryData...)
}

// paymasterAndDataOf concatenates op's paymaster address and its data into
// the single blob the EntryPoint expects, or nil for a self-paying account.
func paymasterAndDataOf(op eil.UserOperation) []byte {
	if op.Paymaster == nil {
		return nil
	}
	out := make([]byte, 0, 20+len(op.PaymasterData))
	out = append(out, op.Paymaster.Bytes()...)
	return append(out, op.PaymasterData...)
}

func bigIntToHex(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return "0x" + n.Text(16)
}

func bytesToHex(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + hex.EncodeToString(b)
}

func hexToBigInt(s string) *big.Int {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0)
	}
	n := new(big.Int)
	n.SetString(s, 16)
	return n
}
