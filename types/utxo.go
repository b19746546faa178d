package types

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UTXO is an unspent output owned by the connected wallet address. A set of
// UTXOs is a point-in-time snapshot and must be fetched again for every
// signing attempt.
type UTXO struct {
	TxID         string         `json:"txid"`
	Vout         uint32         `json:"vout"`
	Value        btcutil.Amount `json:"value"`
	ScriptPubKey string         `json:"scriptPubKey"`
}

func (u *UTXO) OutPoint() (*wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(u.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid txid %s: %v", ErrInvalidUtxo, u.TxID, err)
	}
	return wire.NewOutPoint(hash, u.Vout), nil
}

func (u *UTXO) PkScript() ([]byte, error) {
	script, err := hex.DecodeString(u.ScriptPubKey)
	if err != nil || len(script) == 0 {
		return nil, fmt.Errorf("%w: invalid script of %s:%d", ErrInvalidUtxo, u.TxID, u.Vout)
	}
	return script, nil
}

// TotalValue sums the values of the given UTXOs.
func TotalValue(utxos []*UTXO) btcutil.Amount {
	var total btcutil.Amount
	for _, u := range utxos {
		total += u.Value
	}
	return total
}

// FeeEstimate holds recommended fee rates in sat/vbyte.
type FeeEstimate struct {
	FastestFee  uint64 `json:"fastestFee"`
	HalfHourFee uint64 `json:"halfHourFee"`
	HourFee     uint64 `json:"hourFee"`
	EconomyFee  uint64 `json:"economyFee"`
	MinimumFee  uint64 `json:"minimumFee"`
}
