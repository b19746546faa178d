package stakerdb

import "errors"

var (
	// ErrCorruptedStakingTxDb the on-disk representation of a record cannot be decoded
	ErrCorruptedStakingTxDb = errors.New("staking transaction db is corrupted")

	// ErrStakingTxNotFound the staking transaction is not found in db
	ErrStakingTxNotFound = errors.New("staking transaction not found")

	// ErrDuplicateStakingTx the staking transaction we try to add already exists in db
	ErrDuplicateStakingTx = errors.New("staking transaction already exists")
)
