package staker

import "fmt"

// State is a step of the staking pipeline.
type State int

const (
	StateValidating State = iota
	StateFetchingUtxos
	StateBuildingScripts
	StateEstimatingFee
	StateBuildingTransaction
	StateAwaitingSignature
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "Validating"
	case StateFetchingUtxos:
		return "FetchingUtxos"
	case StateBuildingScripts:
		return "BuildingScripts"
	case StateEstimatingFee:
		return "EstimatingFee"
	case StateBuildingTransaction:
		return "BuildingTransaction"
	case StateAwaitingSignature:
		return "AwaitingSignature"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
