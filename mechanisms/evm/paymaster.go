package evm

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eil-sdk/eil"
)

// PimlicoPaymaster sponsors UserOperations through Pimlico's
// pm_sponsorUserOperation RPC method, satisfying eil.SourcePaymaster.
type PimlicoPaymaster struct {
	chainID             eil.ChainId
	paymasterURL        string
	entryPoint          eil.Address
	sponsorshipPolicyID string
	httpClient          *http.Client
	requestID           int
}

// NewPimlicoPaymaster builds a Pimlico paymaster client for one chain's
// sponsorship endpoint. apiKey and network together form the default
// paymaster URL; pass paymasterURL to override it.
func NewPimlicoPaymaster(chainID eil.ChainId, network, apiKey string, entryPoint eil.Address, paymasterURL, sponsorshipPolicyID string) *PimlicoPaymaster {
	if paymasterURL == "" {
		paymasterURL = fmt.Sprintf("https://api.pimlico.io/v2/%s/rpc?apikey=%s", network, apiKey)
	}
	return &PimlicoPaymaster{
		chainID:             chainID,
		paymasterURL:        paymasterURL,
		entryPoint:          entryPoint,
		sponsorshipPolicyID: sponsorshipPolicyID,
		httpClient:          &http.Client{Timeout: 30 * time.Second},
	}
}

// GetPaymasterStubData implements eil.SourcePaymaster by asking Pimlico to
// sponsor op and translating its response directly into eil.PaymasterData —
// there is no intermediate wire type.
func (p *PimlicoPaymaster) GetPaymasterStubData(ctx context.Context, op eil.UserOperation) (eil.PaymasterData, error) {
	if op.ChainID != p.chainID {
		return eil.PaymasterData{}, fmt.Errorf("pimlico paymaster configured for chain %d, got op for chain %d", p.chainID, op.ChainID)
	}

	params := []interface{}{packUserOp(op), p.entryPoint.Hex()}
	if p.sponsorshipPolicyID != "" {
		params = append(params, map[string]string{"sponsorshipPolicyId": p.sponsorshipPolicyID})
	}

	var result struct {
		PaymasterAndData              string `json:"paymasterAndData"`
		Paymaster                     string `json:"paymaster,omitempty"`
		PaymasterVerificationGasLimit string `json:"paymasterVerificationGasLimit,omitempty"`
		PaymasterPostOpGasLimit       string `json:"paymasterPostOpGasLimit,omitempty"`
		PaymasterData                 string `json:"paymasterData,omitempty"`
	}
	if err := p.rpcCall("pm_sponsorUserOperation", params, &result); err != nil {
		return eil.PaymasterData{}, fmt.Errorf("pimlico sponsorship failed: %w", err)
	}

	var out eil.PaymasterData
	switch {
	case result.Paymaster != "":
		addr := common.HexToAddress(result.Paymaster)
		out.Paymaster = &addr
		if result.PaymasterVerificationGasLimit != "" {
			out.PaymasterVerificationGasLimit = hexToBigInt(result.PaymasterVerificationGasLimit)
		}
		if result.PaymasterPostOpGasLimit != "" {
			out.PaymasterPostOpGasLimit = hexToBigInt(result.PaymasterPostOpGasLimit)
		}
		if result.PaymasterData != "" {
			out.PaymasterData = decodeHex(result.PaymasterData)
		}
	case result.PaymasterAndData != "" && result.PaymasterAndData != "0x":
		data := decodeHex(result.PaymasterAndData)
		if len(data) >= 20 {
			addr := common.BytesToAddress(data[:20])
			out.Paymaster = &addr
		}
		if len(data) > 20 {
			out.PaymasterData = data[20:]
		}
	}
	return out, nil
}

func (p *PimlicoPaymaster) rpcCall(method string, params []interface{}, result interface{}) error {
	p.requestID++
	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      p.requestID,
		"method":  method,
		"params":  params,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshaling paymaster request: %w", err)
	}

	resp, err := p.httpClient.Post(p.paymasterURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("paymaster request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paymaster returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decoding paymaster response: %w", err)
	}
	if response.Error != nil {
		return fmt.Errorf("paymaster RPC error %d: %s", response.Error.Code, response.Error.Message)
	}
	if result != nil && len(response.Result) > 0 {
		if err := json.Unmarshal(response.Result, result); err != nil {
			return fmt.Errorf("unmarshaling paymaster result: %w", err)
		}
	}
	return nil
}

func decodeHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
