package types

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// FinalityProvider identifies the delegate a stake is bound to.
type FinalityProvider struct {
	// BtcPk is the BIP-340 x-only key of the finality provider in hex
	BtcPk       string `json:"btc_pk"`
	Description string `json:"description,omitempty"`
}

func (fp *FinalityProvider) BtcPK() (*btcec.PublicKey, error) {
	if fp == nil || fp.BtcPk == "" {
		return nil, ErrNoFinalityProvider
	}
	return ParsePubKeyHex(fp.BtcPk)
}
