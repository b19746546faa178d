package stakingtx

import "errors"

var (
	ErrNoUtxos           = errors.New("no UTXOs are given to fund the staking transaction")
	ErrInvalidFeeRate    = errors.New("the fee rate must be positive")
	ErrInvalidAmount     = errors.New("the staking amount must be positive")
	ErrDustStakingOutput = errors.New("the staking output is dust")
	ErrInvalidScript     = errors.New("the staking scripts are malformed")
	ErrInsufficientFunds = errors.New("the UTXOs cannot cover the staking amount and fee")
	ErrEncoding          = errors.New("failed to encode the staking transaction")

	// ErrArtifactConsumed is returned when an unsigned artifact is handed out
	// for signing more than once
	ErrArtifactConsumed = errors.New("the unsigned staking transaction has already been used for signing")
	// ErrArtifactMutated is returned when the inputs or outputs of an unsigned
	// artifact changed after it was built
	ErrArtifactMutated = errors.New("the unsigned staking transaction has been modified after construction")
)
