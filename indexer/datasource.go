package indexer

import (
	"context"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/babylonchain/btc-staking-signer/types"
)

// NetworkDataSource provides chain data that wallet backends do not serve
// themselves.
type NetworkDataSource interface {
	// GetAddressBalance returns the confirmed balance of the address.
	GetAddressBalance(ctx context.Context, address string) (btcutil.Amount, error)
	GetNetworkFees(ctx context.Context) (*types.FeeEstimate, error)
	GetTipHeight(ctx context.Context) (uint64, error)
	// PushTx broadcasts a raw transaction and returns its txid.
	PushTx(ctx context.Context, txHex string) (string, error)
	// DecodePsbt asks a node to decode a base64 encoded PSBT.
	DecodePsbt(ctx context.Context, psbtB64 string) (*DecodedPsbt, error)
	// GetUtxos returns the confirmed UTXOs of the address, largest first.
	// minTotal is a hint only, implementations may filter on it but the
	// caller must check the sum of what is returned.
	GetUtxos(ctx context.Context, address string, minTotal *btcutil.Amount) ([]*types.UTXO, error)
}

// DecodedPsbt is the node's view of a PSBT.
type DecodedPsbt struct {
	Tx      btcjson.TxRawResult `json:"tx"`
	Unknown map[string]string   `json:"unknown,omitempty"`
	// Fee is in BTC, set when every input carries its previous output
	Fee float64 `json:"fee,omitempty"`
}
