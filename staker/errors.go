package staker

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a staking pipeline failed.
type FailureKind int

const (
	InvalidStakingData FailureKind = iota + 1
	UtxoFetchError
	InsufficientBalance
	ScriptBuildError
	FeeFetchError
	TransactionBuildError
	SigningError
	Unsupported
)

var (
	ErrInvalidStakingData  = errors.New("invalid staking data")
	ErrUtxoFetch           = errors.New("failed to fetch UTXOs")
	ErrInsufficientBalance = errors.New("not enough usable balance")
	ErrScriptBuild         = errors.New("failed to build the staking scripts")
	ErrFeeFetch            = errors.New("failed to fetch the network fees")
	ErrTransactionBuild    = errors.New("failed to build the staking transaction")
	ErrSigning             = errors.New("failed to sign the staking transaction")
	ErrUnsupported         = errors.New("the operation is not supported by the wallet")
)

var kindErrors = map[FailureKind]error{
	InvalidStakingData:    ErrInvalidStakingData,
	UtxoFetchError:        ErrUtxoFetch,
	InsufficientBalance:   ErrInsufficientBalance,
	ScriptBuildError:      ErrScriptBuild,
	FeeFetchError:         ErrFeeFetch,
	TransactionBuildError: ErrTransactionBuild,
	SigningError:          ErrSigning,
	Unsupported:           ErrUnsupported,
}

func (k FailureKind) String() string {
	switch k {
	case InvalidStakingData:
		return "InvalidStakingData"
	case UtxoFetchError:
		return "UtxoFetchError"
	case InsufficientBalance:
		return "InsufficientBalance"
	case ScriptBuildError:
		return "ScriptBuildError"
	case FeeFetchError:
		return "FeeFetchError"
	case TransactionBuildError:
		return "TransactionBuildError"
	case SigningError:
		return "SigningError"
	case Unsupported:
		return "Unsupported"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Sentinel returns the error matched by errors.Is for the kind.
func (k FailureKind) Sentinel() error {
	return kindErrors[k]
}

// PipelineError is the error of a failed staking pipeline. It records the
// state the pipeline failed in and the underlying cause.
type PipelineError struct {
	Kind  FailureKind
	State State
	Cause error
}

func newPipelineError(kind FailureKind, state State, cause error) *PipelineError {
	if cause == nil {
		cause = kind.Sentinel()
	}
	return &PipelineError{
		Kind:  kind,
		State: state,
		Cause: cause,
	}
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s in state %s: %v", e.Kind, e.State, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is adds support for matching the kind sentinels with errors.Is
func (e *PipelineError) Is(target error) bool {
	sentinel := e.Kind.Sentinel()
	return sentinel != nil && target == sentinel
}

// UserMessage is a message for the person staking. Only signing failures
// carry the cause, since it usually comes from the wallet itself.
func (e *PipelineError) UserMessage() string {
	switch e.Kind {
	case InvalidStakingData:
		return "Invalid staking data"
	case UtxoFetchError:
		return "Failed to fetch the UTXOs of the wallet, please try again"
	case InsufficientBalance:
		return "Not enough usable balance"
	case ScriptBuildError:
		return "Failed to build the staking scripts"
	case FeeFetchError:
		return "Failed to fetch the network fees, please try again"
	case TransactionBuildError:
		return "Failed to build the staking transaction"
	case SigningError:
		return fmt.Sprintf("Failed to sign the staking transaction: %v", e.Cause)
	case Unsupported:
		return "The wallet does not support this operation"
	default:
		return e.Error()
	}
}

// KindOf returns the failure kind of a pipeline error, zero for any other
// error.
func KindOf(err error) FailureKind {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}
	return 0
}

// IsRetryable returns true for failures caused by transient network
// conditions. Re-running the whole pipeline may succeed.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case UtxoFetchError, FeeFetchError:
		return true
	default:
		return false
	}
}
