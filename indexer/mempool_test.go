package indexer_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
)

const (
	testAddress      = "tb1pqqqqp399et2xygdj5xreqhjjvcmzhxw4aywxecjdzew6hylgvsesf3hn0c"
	testScriptPubKey = "51200000000000000000000000000000000000000000000000000000000000000000"
)

func newMempoolServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/address/"+testAddress, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":"` + testAddress + `",
			"chain_stats":{"funded_txo_sum":150000,"spent_txo_sum":50000},
			"mempool_stats":{"funded_txo_sum":7,"spent_txo_sum":0}}`))
	})
	mux.HandleFunc("/api/address/"+testAddress+"/utxo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"txid":"aa00000000000000000000000000000000000000000000000000000000000000","vout":0,"value":1000,"status":{"confirmed":true,"block_height":10}},
			{"txid":"bb00000000000000000000000000000000000000000000000000000000000000","vout":1,"value":60000,"status":{"confirmed":true,"block_height":11}},
			{"txid":"cc00000000000000000000000000000000000000000000000000000000000000","vout":2,"value":90000,"status":{"confirmed":false}},
			{"txid":"dd00000000000000000000000000000000000000000000000000000000000000","vout":0,"value":40000,"status":{"confirmed":true,"block_height":12}}
		]`))
	})
	mux.HandleFunc("/api/v1/validate-address/"+testAddress, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"isvalid":true,"address":"` + testAddress + `","scriptPubKey":"` + testScriptPubKey + `"}`))
	})
	mux.HandleFunc("/api/v1/fees/recommended", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fastestFee":12,"halfHourFee":10,"hourFee":8,"economyFee":4,"minimumFee":1}`))
	})
	mux.HandleFunc("/api/blocks/tip/height", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("840000"))
	})
	mux.HandleFunc("/api/tx", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if string(body) == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("sendrawtransaction RPC error: TX decode failed"))
			return
		}
		_, _ = w.Write([]byte("ee00000000000000000000000000000000000000000000000000000000000000"))
	})

	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, apiURL, rpcHost string) *indexer.MempoolClient {
	cfg := indexer.DefaultConfig()
	cfg.APIURL = apiURL
	cfg.RPCHost = rpcHost
	cfg.Timeout = 5 * time.Second

	c, err := indexer.NewMempoolClient(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c
}

func TestMempoolClientQueries(t *testing.T) {
	server := newMempoolServer(t)
	defer server.Close()
	c := newTestClient(t, server.URL, "")
	ctx := context.Background()

	balance, err := c.GetAddressBalance(ctx, testAddress)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(100000), balance)

	fees, err := c.GetNetworkFees(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(12), fees.FastestFee)
	require.Equal(t, uint64(1), fees.MinimumFee)

	tip, err := c.GetTipHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(840000), tip)

	txID, err := c.PushTx(ctx, "0200")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(txID, "ee"))

	_, err = c.PushTx(ctx, "bad")
	require.ErrorIs(t, err, indexer.ErrBroadcastRejected)
	require.Contains(t, err.Error(), "TX decode failed")

	_, err = c.DecodePsbt(ctx, "cHNidP8=")
	require.ErrorIs(t, err, indexer.ErrRPCNotConfigured)
}

func TestMempoolClientGetUtxos(t *testing.T) {
	server := newMempoolServer(t)
	defer server.Close()
	c := newTestClient(t, server.URL, "")
	ctx := context.Background()

	// unconfirmed UTXOs are skipped and the rest is sorted largest first
	utxos, err := c.GetUtxos(ctx, testAddress, nil)
	require.NoError(t, err)
	require.Len(t, utxos, 3)
	require.Equal(t, btcutil.Amount(60000), utxos[0].Value)
	require.Equal(t, btcutil.Amount(40000), utxos[1].Value)
	require.Equal(t, btcutil.Amount(1000), utxos[2].Value)
	for _, u := range utxos {
		require.Equal(t, testScriptPubKey, u.ScriptPubKey)
	}

	// the amount hint never trims the set, the UTXOs past it pay the fee
	for _, minTotal := range []btcutil.Amount{60000, 70000, 1000000} {
		minTotal := minTotal
		utxos, err = c.GetUtxos(ctx, testAddress, &minTotal)
		require.NoError(t, err)
		require.Len(t, utxos, 3)
	}
}

func TestMempoolClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/blocks/tip/height" {
			_, _ = w.Write([]byte("not-a-number"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	c := newTestClient(t, server.URL, "")
	ctx := context.Background()

	_, err := c.GetNetworkFees(ctx)
	require.ErrorIs(t, err, indexer.ErrConnectionFailed)

	_, err = c.GetTipHeight(ctx)
	require.ErrorIs(t, err, indexer.ErrInvalidResponse)

	unreachable := newTestClient(t, "http://127.0.0.1:1", "")
	_, err = unreachable.GetAddressBalance(ctx, testAddress)
	require.ErrorIs(t, err, indexer.ErrConnectionFailed)
}

func TestMempoolClientDecodePsbt(t *testing.T) {
	rpcServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "decodepsbt", req.Method)
		require.Len(t, req.Params, 1)

		_, _ = w.Write([]byte(`{"id":` + string(req.ID) + `,"error":null,"result":{
			"tx":{"txid":"ff00000000000000000000000000000000000000000000000000000000000000",
				"hash":"ff00000000000000000000000000000000000000000000000000000000000000",
				"version":2,"size":150,"vsize":150,"weight":600,"locktime":499,"vin":[],"vout":[]},
			"unknown":{},"fee":0.00001}}`))
	}))
	defer rpcServer.Close()

	c := newTestClient(t, "http://127.0.0.1:1", strings.TrimPrefix(rpcServer.URL, "http://"))

	decoded, err := c.DecodePsbt(context.Background(), "cHNidP8=")
	require.NoError(t, err)
	require.Equal(t, uint32(499), decoded.Tx.LockTime)
	require.True(t, strings.HasPrefix(decoded.Tx.Txid, "ff"))
	require.Equal(t, 0.00001, decoded.Fee)
}

func TestConfigValidate(t *testing.T) {
	cfg := indexer.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.APIURL = "ftp://example.com"
	require.Error(t, cfg.Validate())

	cfg = indexer.DefaultConfig()
	cfg.Timeout = 0
	require.Error(t, cfg.Validate())
}
