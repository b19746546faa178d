package config

import (
	"fmt"
	"path/filepath"

	"github.com/babylonchain/btc-staking-signer/store"
	"github.com/babylonchain/btc-staking-signer/store/bbolt"
	"github.com/babylonchain/btc-staking-signer/util"
)

const (
	DefaultBackend    = "bbolt"
	DefaultDBName     = "staking-txs"
	defaultDBFileName = "stakercli.db"
	defaultDataDir    = "data"
)

type DBConfig struct {
	DBPath     string `long:"dbpath" description:"The directory of the database file"`
	DBFileName string `long:"dbfilename" description:"The file name of the database"`
	Backend    string `long:"backend" description:"Possible database to choose as backend" choice:"bbolt"`
	Name       string `long:"name" description:"The name of the database bucket"`
}

func DefaultDBConfigWithHomePath(homePath string) *DBConfig {
	return &DBConfig{
		DBPath:     filepath.Join(homePath, defaultDataDir),
		DBFileName: defaultDBFileName,
		Backend:    DefaultBackend,
		Name:       DefaultDBName,
	}
}

func (cfg *DBConfig) Validate() error {
	// TODO: add more supported DB types, currently we only support bbolt
	if cfg.Backend != DefaultBackend {
		return fmt.Errorf("unsupported DB backend %s", cfg.Backend)
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("DB path should not be empty")
	}
	if cfg.DBFileName == "" {
		return fmt.Errorf("DB file name should not be empty")
	}
	if cfg.Name == "" {
		return fmt.Errorf("bucket name should not be empty")
	}
	return nil
}

func (cfg *DBConfig) FilePath() string {
	return filepath.Join(cfg.DBPath, cfg.DBFileName)
}

// OpenStore returns a Store of the configured backend.
func (cfg *DBConfig) OpenStore() (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := util.MakeDirectory(cfg.DBPath); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case DefaultBackend:
		return bbolt.NewBboltStore(bbolt.Options{
			BucketName: cfg.Name,
			Path:       cfg.FilePath(),
		})
	default:
		return nil, fmt.Errorf("unsupported database type %s", cfg.Backend)
	}
}
