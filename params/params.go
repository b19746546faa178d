package params

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/babylonchain/btc-staking-signer/types"
)

// ParamsVersions is the versioned list of global staking params, ordered by
// version and activation height.
type ParamsVersions struct {
	Versions []*types.GlobalParams `json:"versions"`
}

// LoadGlobalParams reads and validates the global params file.
func LoadGlobalParams(path string) (*ParamsVersions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the global params file %s: %w", path, err)
	}
	return ParseGlobalParams(data)
}

func ParseGlobalParams(data []byte) (*ParamsVersions, error) {
	var versions ParamsVersions
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidParams, err)
	}
	if err := versions.Validate(); err != nil {
		return nil, err
	}
	return &versions, nil
}

// Validate checks every version and that both the version numbers and the
// activation heights are strictly increasing.
func (pv *ParamsVersions) Validate() error {
	if len(pv.Versions) == 0 {
		return fmt.Errorf("%w: no params version", types.ErrInvalidParams)
	}
	for i, p := range pv.Versions {
		if p == nil {
			return fmt.Errorf("%w: params version at index %d is empty", types.ErrInvalidParams, i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("params version %d: %w", p.Version, err)
		}
		if i == 0 {
			continue
		}
		prev := pv.Versions[i-1]
		if p.Version <= prev.Version {
			return fmt.Errorf("%w: version %d follows version %d",
				types.ErrInvalidParams, p.Version, prev.Version)
		}
		if p.ActivationHeight <= prev.ActivationHeight {
			return fmt.Errorf("%w: activation height %d of version %d is not above %d",
				types.ErrInvalidParams, p.ActivationHeight, p.Version, prev.ActivationHeight)
		}
	}
	return nil
}

// VersionForHeight returns the version a transaction built at the given tip
// height falls under. The transaction is included in the next block at the
// earliest, hence the newest version activated at height+1 is picked.
func (pv *ParamsVersions) VersionForHeight(height uint64) (*types.GlobalParams, error) {
	return VersionForHeight(pv.Versions, height)
}

func VersionForHeight(versions []*types.GlobalParams, height uint64) (*types.GlobalParams, error) {
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].ActivationHeight <= height+1 {
			return versions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: height %d", types.ErrParamsVersionMissing, height)
}

// Latest returns the version with the highest activation height.
func (pv *ParamsVersions) Latest() *types.GlobalParams {
	return pv.Versions[len(pv.Versions)-1]
}
