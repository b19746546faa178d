package types

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// WalletIdentity is the account exposed by a connected wallet backend.
type WalletIdentity struct {
	Address      string `json:"address"`
	PublicKeyHex string `json:"publicKeyHex"`
}

// SignedStakingTransaction is the final product of the signing pipeline.
type SignedStakingTransaction struct {
	Tx     *wire.MsgTx
	TxHash chainhash.Hash
	// Hex is the canonical serialization of Tx
	Hex string
	Fee btcutil.Amount
	// Signature is the first witness element of the first input
	Signature []byte
}
