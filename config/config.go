package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/metrics"
	"github.com/babylonchain/btc-staking-signer/util"
	"github.com/babylonchain/btc-staking-signer/wallet"
)

const (
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "stakercli.log"
	defaultConfigFileName = "stakercli.conf"
	defaultParamsFileName = "global-params.json"
	defaultBitcoinNetwork = "signet"
	defaultMaxRetries     = 3
	defaultRetryInterval  = 2 * time.Second
)

var (
	//   C:\Users\<username>\AppData\Local\ on Windows
	//   ~/.stakercli on Linux
	//   ~/Users/<username>/Library/Application Support/Stakercli on MacOS
	DefaultStakerDir = btcutil.AppDataDir("stakercli", false)

	defaultBTCNetParams = chaincfg.SigNetParams
)

// Config is the main config for the stakercli command
type Config struct {
	LogLevel       string `long:"loglevel" description:"Logging level for all subsystems" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	BitcoinNetwork string `long:"bitcoinnetwork" description:"Bitcoin network to run on" choice:"mainnet" choice:"regtest" choice:"testnet" choice:"simnet" choice:"signet"`
	ParamsFile     string `long:"paramsfile" description:"The path to the JSON file of the versioned global staking params"`

	// MaxRetries and RetryInterval apply to whole staking attempts failing
	// for transient reasons
	MaxRetries    uint          `long:"maxretries" description:"The maximum number of staking attempts after a transient failure"`
	RetryInterval time.Duration `long:"retryinterval" description:"The interval between staking attempts"`

	BTCNetParams chaincfg.Params

	Indexer *indexer.Config `group:"indexer" namespace:"indexer"`

	Wallet *wallet.Config `group:"wallet" namespace:"wallet"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) Config {
	cfg := Config{
		LogLevel:       defaultLogLevel,
		BitcoinNetwork: defaultBitcoinNetwork,
		ParamsFile:     ParamsFile(homePath),
		MaxRetries:     defaultMaxRetries,
		RetryInterval:  defaultRetryInterval,
		BTCNetParams:   defaultBTCNetParams,
		Indexer:        indexer.DefaultConfig(),
		Wallet:         wallet.DefaultConfig(),
		DatabaseConfig: DefaultDBConfigWithHomePath(homePath),
		Metrics:        metrics.DefaultStakerConfig(),
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() Config {
	return DefaultConfigWithHome(DefaultStakerDir)
}

func ConfigFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func ParamsFile(homePath string) string {
	return filepath.Join(homePath, defaultParamsFileName)
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Load configuration file overwriting defaults with any specified options
//  3. Validate the result
func LoadConfig(homePath string) (*Config, error) {
	// The home directory is required to have a configuration file with a specific name
	// under it.
	cfgFile := ConfigFile(homePath)
	if !util.FileExists(cfgFile) {
		return nil, fmt.Errorf("specified config file does "+
			"not exist in %s", cfgFile)
	}

	// Next, load any additional configuration options from the file.
	cfg := DefaultConfigWithHome(homePath)
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(cfgFile)
	if err != nil {
		return nil, err
	}

	// Make sure everything we just loaded makes sense.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WriteConfigFile writes the config to the config file of the home path,
// including the descriptions of every option.
func WriteConfigFile(homePath string, cfg *Config) error {
	fileParser := flags.NewParser(cfg, flags.Default)

	return flags.NewIniParser(fileParser).WriteFile(ConfigFile(homePath), flags.IniIncludeComments|flags.IniIncludeDefaults)
}

// Validate checks the given configuration to be sane. This makes sure no
// illegal values or combination of values are set.
func (cfg *Config) Validate() error {
	switch cfg.BitcoinNetwork {
	case "mainnet":
		cfg.BTCNetParams = chaincfg.MainNetParams
	case "testnet":
		cfg.BTCNetParams = chaincfg.TestNet3Params
	case "regtest":
		cfg.BTCNetParams = chaincfg.RegressionNetParams
	case "simnet":
		cfg.BTCNetParams = chaincfg.SimNetParams
	case "signet":
		cfg.BTCNetParams = chaincfg.SigNetParams
	default:
		return fmt.Errorf("invalid network: %v", cfg.BitcoinNetwork)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %v", cfg.LogLevel)
	}

	if cfg.ParamsFile == "" {
		return fmt.Errorf("the global params file is not specified")
	}
	cfg.ParamsFile = util.CleanAndExpandPath(cfg.ParamsFile)

	if cfg.Indexer == nil {
		return fmt.Errorf("the indexer config is missing")
	}
	if err := cfg.Indexer.Validate(); err != nil {
		return fmt.Errorf("invalid indexer config: %w", err)
	}

	if cfg.Wallet == nil {
		return fmt.Errorf("the wallet config is missing")
	}
	if err := cfg.Wallet.Validate(); err != nil {
		return fmt.Errorf("invalid wallet config: %w", err)
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("the database config is missing")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("the metrics config is missing")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}
