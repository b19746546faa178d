package localwallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	AddressTypeTaproot      = "taproot"
	AddressTypeNativeSegwit = "native-segwit"
)

// Config is the config of the software key wallet. It is meant for test
// networks and automation.
type Config struct {
	WIF         string `long:"wif" description:"The WIF encoded private key of the staker"`
	AddressType string `long:"addresstype" description:"The address type derived from the key" choice:"taproot" choice:"native-segwit"`
}

func DefaultConfig() *Config {
	return &Config{
		AddressType: AddressTypeTaproot,
	}
}

func (cfg *Config) Validate() error {
	if cfg.WIF == "" {
		return fmt.Errorf("the private key is not specified")
	}
	if _, err := btcutil.DecodeWIF(cfg.WIF); err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	switch cfg.AddressType {
	case AddressTypeTaproot, AddressTypeNativeSegwit:
	default:
		return fmt.Errorf("unsupported address type %s", cfg.AddressType)
	}
	return nil
}
