package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/rpcclient"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/types"
)

var _ NetworkDataSource = (*MempoolClient)(nil)

// MempoolClient reads chain data from a mempool.space compatible REST API.
// PSBTs are decoded by a bitcoind node over JSON-RPC.
type MempoolClient struct {
	baseURL   string
	client    *http.Client
	rpcClient *rpcclient.Client
	logger    *zap.Logger
}

type addressStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
}

type addressInfo struct {
	Address      string       `json:"address"`
	ChainStats   addressStats `json:"chain_stats"`
	MempoolStats addressStats `json:"mempool_stats"`
}

type utxoStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height"`
}

type mempoolUtxo struct {
	TxID   string     `json:"txid"`
	Vout   uint32     `json:"vout"`
	Value  int64      `json:"value"`
	Status utxoStatus `json:"status"`
}

type addressValidation struct {
	IsValid      bool   `json:"isvalid"`
	Address      string `json:"address"`
	ScriptPubKey string `json:"scriptPubKey"`
}

func NewMempoolClient(cfg *Config, logger *zap.Logger) (*MempoolClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &MempoolClient{
		baseURL: strings.TrimSuffix(cfg.APIURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}

	if cfg.RPCHost != "" {
		rpcClient, err := rpcclient.New(&rpcclient.ConnConfig{
			Host:         cfg.RPCHost,
			User:         cfg.RPCUser,
			Pass:         cfg.RPCPass,
			DisableTLS:   cfg.RPCDisableTLS,
			HTTPPostMode: true,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create the node RPC client: %w", err)
		}
		c.rpcClient = rpcClient
	}

	return c, nil
}

func (c *MempoolClient) GetAddressBalance(ctx context.Context, address string) (btcutil.Amount, error) {
	var info addressInfo
	if err := c.getJSON(ctx, "/api/address/"+url.PathEscape(address), &info); err != nil {
		return 0, err
	}
	return btcutil.Amount(info.ChainStats.FundedTxoSum - info.ChainStats.SpentTxoSum), nil
}

func (c *MempoolClient) GetNetworkFees(ctx context.Context) (*types.FeeEstimate, error) {
	var fees types.FeeEstimate
	if err := c.getJSON(ctx, "/api/v1/fees/recommended", &fees); err != nil {
		return nil, err
	}
	return &fees, nil
}

func (c *MempoolClient) GetTipHeight(ctx context.Context) (uint64, error) {
	body, err := c.get(ctx, "/api/blocks/tip/height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: tip height %q: %v", ErrInvalidResponse, body, err)
	}
	return height, nil
}

func (c *MempoolClient) PushTx(ctx context.Context, txHex string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tx", strings.NewReader(txHex))
	if err != nil {
		return "", fmt.Errorf("indexer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrBroadcastRejected, resp.StatusCode, string(body))
	}

	txID := strings.TrimSpace(string(body))
	c.logger.Info("pushed transaction", zap.String("tx_hash", txID))

	return txID, nil
}

// DecodePsbt calls decodepsbt on the configured node. The rpc client does not
// take a context, the call is abandoned when ctx is done.
func (c *MempoolClient) DecodePsbt(ctx context.Context, psbtB64 string) (*DecodedPsbt, error) {
	if c.rpcClient == nil {
		return nil, ErrRPCNotConfigured
	}

	param, err := json.Marshal(psbtB64)
	if err != nil {
		return nil, err
	}

	type result struct {
		raw json.RawMessage
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		raw, err := c.rpcClient.RawRequest("decodepsbt", []json.RawMessage{param})
		resCh <- result{raw: raw, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-resCh:
	}
	if res.err != nil {
		return nil, fmt.Errorf("indexer: decodepsbt: %w", res.err)
	}

	var decoded DecodedPsbt
	if err := json.Unmarshal(res.raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decodepsbt result: %v", ErrInvalidResponse, err)
	}

	return &decoded, nil
}

// GetUtxos returns every confirmed UTXO of the address, largest first. The
// minTotal hint is ignored: the staking amount it carries does not cover the
// fee, and coin selection needs the full set to fund it.
func (c *MempoolClient) GetUtxos(ctx context.Context, address string, _ *btcutil.Amount) ([]*types.UTXO, error) {
	var utxos []mempoolUtxo
	if err := c.getJSON(ctx, "/api/address/"+url.PathEscape(address)+"/utxo", &utxos); err != nil {
		return nil, err
	}

	confirmed := make([]mempoolUtxo, 0, len(utxos))
	for _, u := range utxos {
		if u.Status.Confirmed {
			confirmed = append(confirmed, u)
		}
	}
	if len(confirmed) == 0 {
		return []*types.UTXO{}, nil
	}

	sort.SliceStable(confirmed, func(i, j int) bool {
		return confirmed[i].Value > confirmed[j].Value
	})

	// the UTXO listing carries no script, every UTXO of the address shares it
	var validation addressValidation
	if err := c.getJSON(ctx, "/api/v1/validate-address/"+url.PathEscape(address), &validation); err != nil {
		return nil, err
	}
	if !validation.IsValid || validation.ScriptPubKey == "" {
		return nil, fmt.Errorf("%w: address %s is not valid", ErrInvalidResponse, address)
	}

	res := make([]*types.UTXO, 0, len(confirmed))
	for _, u := range confirmed {
		res = append(res, &types.UTXO{
			TxID:         u.TxID,
			Vout:         u.Vout,
			Value:        btcutil.Amount(u.Value),
			ScriptPubKey: validation.ScriptPubKey,
		})
	}

	return res, nil
}

// Close shuts down the node RPC client if any.
func (c *MempoolClient) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Shutdown()
	}
}

func (c *MempoolClient) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

func (c *MempoolClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("indexer: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %s: HTTP %d: %s", ErrConnectionFailed, path, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return body, nil
}
