// Package xlp provides an HTTP-backed eil.XLPSource, grounded on the
// JSON-over-HTTP client pattern used for this SDK's other off-chain
// collaborator integrations.
package xlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eil-sdk/eil"
)

// DefaultXLPDirectoryURL is the default public XLP directory endpoint.
const DefaultXLPDirectoryURL = "https://xlp.eil.sdk/directory"

// Client queries a remote XLP directory service for candidate liquidity
// providers on a given chain/token pair.
type Client struct {
	url        string
	httpClient *http.Client
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the base URL of the XLP directory service.
	URL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 10s).
	Timeout time.Duration
}

// NewClient builds a Client from config, defaulting URL and HTTPClient when
// absent.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	url := config.URL
	if url == "" {
		url = DefaultXLPDirectoryURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{url: url, httpClient: httpClient}
}

// candidateResponse mirrors the directory service's JSON candidate shape.
type candidateResponse struct {
	Address          string `json:"address"`
	AvailableDeposit string `json:"availableDeposit"`
	Balance          string `json:"balance"`
}

// CandidateXLPs implements eil.XLPSource by querying the directory service
// for chainID/token's registered liquidity providers.
func (c *Client) CandidateXLPs(ctx context.Context, chainID eil.ChainId, token eil.Address) ([]eil.XLPCandidate, error) {
	reqBody := map[string]interface{}{
		"chainId": chainID,
		"token":   token.Hex(),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidates request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/candidates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create candidates request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candidates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("xlp directory candidates failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed []candidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode candidates response: %w", err)
	}

	candidates := make([]eil.XLPCandidate, 0, len(parsed))
	for _, p := range parsed {
		deposit, ok := new(big.Int).SetString(p.AvailableDeposit, 10)
		if !ok {
			return nil, fmt.Errorf("xlp directory returned malformed availableDeposit %q", p.AvailableDeposit)
		}
		balance, ok := new(big.Int).SetString(p.Balance, 10)
		if !ok {
			return nil, fmt.Errorf("xlp directory returned malformed balance %q", p.Balance)
		}
		candidates = append(candidates, eil.XLPCandidate{
			Address:          common.HexToAddress(p.Address),
			AvailableDeposit: deposit,
			Balance:          balance,
		})
	}
	return candidates, nil
}
