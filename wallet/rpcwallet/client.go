package rpcwallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/atomic"

	"github.com/babylonchain/btc-staking-signer/wallet/api"
)

const (
	// codes of EIP-1193 style provider errors
	codeUserRejected = 4001
	codeUnauthorized = 4100
	codeUnsupported  = 4200
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("bridge error %d: %s", e.Code, e.Message)
}

// bridgeClient sends requests to the wallet bridge.
type bridgeClient struct {
	cfg    *Config
	client *http.Client
	nextID atomic.Int64
}

func newBridgeClient(cfg *Config) *bridgeClient {
	return &bridgeClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// call invokes a bridge method and decodes its result into result. Transport
// failures map to ErrWalletNotFound, refusals map to ErrUnauthorized.
func (c *bridgeClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Inc(),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.User != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", api.ErrWalletNotFound, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", api.ErrUnauthorized, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("decode response (HTTP %d): %v %s", resp.StatusCode, err, respBody)
	}
	if rpcResp.Error != nil {
		return classifyError(rpcResp.Error)
	}
	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("response ID mismatch: expected %d, got %d", reqBody.ID, rpcResp.ID)
	}

	if result != nil {
		if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
			return fmt.Errorf("empty result of %s", method)
		}
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result of %s: %w", method, err)
		}
	}

	return nil
}

func classifyError(e *rpcError) error {
	switch e.Code {
	case codeUserRejected, codeUnauthorized:
		return fmt.Errorf("%w: %w", api.ErrUnauthorized, e)
	case codeUnsupported:
		return fmt.Errorf("%w: %w", api.ErrUnsupported, e)
	default:
		return e
	}
}
