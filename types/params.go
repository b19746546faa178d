package types

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// GlobalParams is one version of the global staking policy. A version is
// immutable once loaded and becomes effective from its ActivationHeight.
type GlobalParams struct {
	Version          uint64 `json:"version"`
	ActivationHeight uint64 `json:"activation_height"`

	// StakingCapSat is the total value cap of active stakes, zero if uncapped
	StakingCapSat btcutil.Amount `json:"staking_cap"`

	// Tag is the hex encoded magic bytes embedded in the data output
	Tag string `json:"tag"`

	// CovenantPks are hex encoded public keys of the covenant committee
	CovenantPks    []string `json:"covenant_pks"`
	CovenantQuorum uint32   `json:"covenant_quorum"`

	UnbondingTime   uint64         `json:"unbonding_time"`
	UnbondingFeeSat btcutil.Amount `json:"unbonding_fee"`

	MinStakingAmountSat  btcutil.Amount `json:"min_staking_amount"`
	MaxStakingAmountSat  btcutil.Amount `json:"max_staking_amount"`
	MinStakingTimeBlocks uint64         `json:"min_staking_time"`
	MaxStakingTimeBlocks uint64         `json:"max_staking_time"`

	ConfirmationDepth uint64 `json:"confirmation_depth"`
}

// Validate checks the internal consistency of the params version.
func (p *GlobalParams) Validate() error {
	if p.MinStakingAmountSat <= 0 {
		return fmt.Errorf("%w: min staking amount must be positive", ErrInvalidParams)
	}
	if p.MinStakingAmountSat > p.MaxStakingAmountSat {
		return fmt.Errorf("%w: min staking amount %d is larger than max staking amount %d",
			ErrInvalidParams, p.MinStakingAmountSat, p.MaxStakingAmountSat)
	}
	if p.MinStakingTimeBlocks == 0 {
		return fmt.Errorf("%w: min staking time must be positive", ErrInvalidParams)
	}
	if p.MinStakingTimeBlocks > p.MaxStakingTimeBlocks {
		return fmt.Errorf("%w: min staking time %d is larger than max staking time %d",
			ErrInvalidParams, p.MinStakingTimeBlocks, p.MaxStakingTimeBlocks)
	}
	// the staking time is encoded as a 16-bit CSV value in the scripts
	if p.MaxStakingTimeBlocks > math.MaxUint16 {
		return fmt.Errorf("%w: max staking time %d exceeds %d",
			ErrInvalidParams, p.MaxStakingTimeBlocks, math.MaxUint16)
	}
	if p.ActivationHeight > math.MaxUint32 {
		return fmt.Errorf("%w: activation height %d does not fit a locktime",
			ErrInvalidParams, p.ActivationHeight)
	}
	if p.Tag != "" {
		if _, err := p.TagBytes(); err != nil {
			return err
		}
	}
	if int(p.CovenantQuorum) > len(p.CovenantPks) {
		return fmt.Errorf("%w: covenant quorum %d is larger than the committee size %d",
			ErrInvalidParams, p.CovenantQuorum, len(p.CovenantPks))
	}
	if _, err := p.CovenantPubKeys(); err != nil {
		return err
	}

	return nil
}

// TagBytes returns the decoded magic bytes.
func (p *GlobalParams) TagBytes() ([]byte, error) {
	tag, err := hex.DecodeString(p.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tag %s: %v", ErrInvalidParams, p.Tag, err)
	}
	if len(tag) != 4 {
		return nil, fmt.Errorf("%w: tag must be 4 bytes, got %d", ErrInvalidParams, len(tag))
	}
	return tag, nil
}

// CovenantPubKeys parses the covenant committee keys. Both x-only and
// compressed encodings are accepted.
func (p *GlobalParams) CovenantPubKeys() ([]*btcec.PublicKey, error) {
	keys := make([]*btcec.PublicKey, 0, len(p.CovenantPks))
	for _, pkHex := range p.CovenantPks {
		pk, err := ParsePubKeyHex(pkHex)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid covenant key %s: %v", ErrInvalidParams, pkHex, err)
		}
		keys = append(keys, pk)
	}
	return keys, nil
}

func (p *GlobalParams) IsAmountInRange(amount btcutil.Amount) bool {
	return amount >= p.MinStakingAmountSat && amount <= p.MaxStakingAmountSat
}

func (p *GlobalParams) IsTermInRange(termBlocks uint64) bool {
	return termBlocks >= p.MinStakingTimeBlocks && termBlocks <= p.MaxStakingTimeBlocks
}

// LockHeight is the locktime of a staking transaction built under this
// version. A stored locktime X makes the transaction includable from X+1, so
// the value is one below the activation height.
func (p *GlobalParams) LockHeight() uint32 {
	if p.ActivationHeight == 0 {
		return 0
	}
	return uint32(p.ActivationHeight - 1)
}
