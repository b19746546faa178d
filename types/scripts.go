package types

// StakingScripts are the spend paths of a staking output. They are produced
// once per build and consumed by the transaction builder only.
type StakingScripts struct {
	TimelockScript  []byte
	UnbondingScript []byte
	SlashingScript  []byte
	// StakingPkScript is the taproot output script committing to the three
	// paths under an unspendable internal key
	StakingPkScript []byte
	// DataEmbedScript is the OP_RETURN script identifying the stake, nil if the
	// params version does not carry a tag
	DataEmbedScript []byte
}
