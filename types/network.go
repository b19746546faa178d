package types

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkSignet  Network = "signet"
	NetworkRegtest Network = "regtest"
	NetworkSimnet  Network = "simnet"
)

func (n Network) Params() (*chaincfg.Params, error) {
	switch n {
	case NetworkMainnet:
		return &chaincfg.MainNetParams, nil
	case NetworkTestnet:
		return &chaincfg.TestNet3Params, nil
	case NetworkSignet:
		return &chaincfg.SigNetParams, nil
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams, nil
	case NetworkSimnet:
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, n)
	}
}

// NetworkFromParams maps chain params back to the network name.
func NetworkFromParams(net *chaincfg.Params) (Network, error) {
	switch net.Name {
	case chaincfg.MainNetParams.Name:
		return NetworkMainnet, nil
	case chaincfg.TestNet3Params.Name:
		return NetworkTestnet, nil
	case chaincfg.SigNetParams.Name:
		return NetworkSignet, nil
	case chaincfg.RegressionNetParams.Name:
		return NetworkRegtest, nil
	case chaincfg.SimNetParams.Name:
		return NetworkSimnet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedNetwork, net.Name)
	}
}

// ParseNetwork maps the network names reported by wallets and configs.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "livenet", "bitcoin":
		return NetworkMainnet, nil
	case "testnet", "testnet3":
		return NetworkTestnet, nil
	case "signet":
		return NetworkSignet, nil
	case "regtest":
		return NetworkRegtest, nil
	case "simnet":
		return NetworkSimnet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedNetwork, name)
	}
}
