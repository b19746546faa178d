package stakingtx

import (
	"bytes"
	"fmt"
	"math"

	"github.com/babylonchain/babylon/btcstaking"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/babylonchain/btc-staking-signer/types"
)

const (
	// dataEmbedVersion is the version byte of the identifiable staking output
	dataEmbedVersion = byte(0)
	dataEmbedTagLen  = 4
	// tag || version || staker pk || fp pk || staking time
	dataEmbedPayloadLen = dataEmbedTagLen + 1 + schnorr.PubKeyBytesLen*2 + 2
)

// ScriptBuilder derives the staking scripts from the finality provider key,
// the staking term, the params version and the x-only staker key. It must be
// deterministic.
type ScriptBuilder func(
	fpPkHex string,
	stakingTermBlocks uint64,
	params *types.GlobalParams,
	stakerPkNoCoordHex string,
) (*types.StakingScripts, error)

// NewBabylonScriptBuilder returns a ScriptBuilder deriving the timelock,
// unbonding and slashing paths with the Babylon staking library.
func NewBabylonScriptBuilder(net *chaincfg.Params) ScriptBuilder {
	return func(fpPkHex string, stakingTermBlocks uint64, params *types.GlobalParams, stakerPkNoCoordHex string) (*types.StakingScripts, error) {
		if params == nil {
			return nil, types.ErrInvalidParams
		}
		if stakingTermBlocks == 0 || stakingTermBlocks > math.MaxUint16 {
			return nil, fmt.Errorf("staking term %d is not a valid CSV value", stakingTermBlocks)
		}
		stakingTime := uint16(stakingTermBlocks)

		fpPk, err := types.ParsePubKeyHex(fpPkHex)
		if err != nil {
			return nil, fmt.Errorf("invalid finality provider key: %w", err)
		}
		stakerPk, err := types.ParsePubKeyHex(stakerPkNoCoordHex)
		if err != nil {
			return nil, fmt.Errorf("invalid staker key: %w", err)
		}
		covenantPks, err := params.CovenantPubKeys()
		if err != nil {
			return nil, err
		}

		// the amount does not affect the scripts
		stakingInfo, err := btcstaking.BuildStakingInfo(
			stakerPk,
			[]*btcec.PublicKey{fpPk},
			covenantPks,
			params.CovenantQuorum,
			stakingTime,
			params.MinStakingAmountSat,
			net,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build staking info: %w", err)
		}

		timeLockPathInfo, err := stakingInfo.TimeLockPathSpendInfo()
		if err != nil {
			return nil, err
		}
		unbondingPathInfo, err := stakingInfo.UnbondingPathSpendInfo()
		if err != nil {
			return nil, err
		}
		slashingPathInfo, err := stakingInfo.SlashingPathSpendInfo()
		if err != nil {
			return nil, err
		}

		scripts := &types.StakingScripts{
			TimelockScript:  timeLockPathInfo.RevealedLeaf.Script,
			UnbondingScript: unbondingPathInfo.RevealedLeaf.Script,
			SlashingScript:  slashingPathInfo.RevealedLeaf.Script,
			StakingPkScript: stakingInfo.StakingOutput.PkScript,
		}

		if params.Tag != "" {
			tag, err := params.TagBytes()
			if err != nil {
				return nil, err
			}
			scripts.DataEmbedScript, err = BuildDataEmbedScript(tag, stakerPk, fpPk, stakingTime)
			if err != nil {
				return nil, err
			}
		}

		return scripts, nil
	}
}

// BuildDataEmbedScript builds the OP_RETURN script that identifies a staking
// transaction: tag || version || staker pk || fp pk || staking time.
func BuildDataEmbedScript(tag []byte, stakerPk, fpPk *btcec.PublicKey, stakingTime uint16) ([]byte, error) {
	if len(tag) != dataEmbedTagLen {
		return nil, fmt.Errorf("%w: tag must be %d bytes", ErrInvalidScript, dataEmbedTagLen)
	}

	var payload bytes.Buffer
	payload.Grow(dataEmbedPayloadLen)
	payload.Write(tag)
	payload.WriteByte(dataEmbedVersion)
	payload.Write(schnorr.SerializePubKey(stakerPk))
	payload.Write(schnorr.SerializePubKey(fpPk))
	payload.WriteByte(byte(stakingTime >> 8))
	payload.WriteByte(byte(stakingTime))

	return txscript.NullDataScript(payload.Bytes())
}

// ValidateScripts checks that the mandatory spend paths are present and
// that every script parses.
func ValidateScripts(scripts *types.StakingScripts) error {
	if scripts == nil {
		return fmt.Errorf("%w: no scripts", ErrInvalidScript)
	}

	paths := []struct {
		name   string
		script []byte
	}{
		{"timelock", scripts.TimelockScript},
		{"unbonding", scripts.UnbondingScript},
		{"slashing", scripts.SlashingScript},
	}
	for _, p := range paths {
		if len(p.script) == 0 {
			return fmt.Errorf("%w: empty %s script", ErrInvalidScript, p.name)
		}
		if err := checkScriptParses(p.script); err != nil {
			return fmt.Errorf("%w: %s script: %v", ErrInvalidScript, p.name, err)
		}
	}

	if scripts.DataEmbedScript != nil &&
		txscript.GetScriptClass(scripts.DataEmbedScript) != txscript.NullDataTy {
		return fmt.Errorf("%w: the data embed script is not a null data script", ErrInvalidScript)
	}

	return nil
}

func checkScriptParses(script []byte) error {
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
	}
	return tokenizer.Err()
}
