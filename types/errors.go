package types

import (
	"errors"
)

var (
	ErrInvalidParams        = errors.New("the staking parameters are invalid")
	ErrInvalidPublicKey     = errors.New("the public key is invalid")
	ErrInvalidUtxo          = errors.New("the UTXO is malformed")
	ErrUnsupportedNetwork   = errors.New("the bitcoin network is not supported")
	ErrUnsupportedAddress   = errors.New("the address type is not supported for staking")
	ErrNoFinalityProvider   = errors.New("the finality provider is not specified")
	ErrParamsVersionMissing = errors.New("no global params version is active at the given height")
)
