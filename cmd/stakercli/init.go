package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/babylonchain/btc-staking-signer/config"
	"github.com/babylonchain/btc-staking-signer/util"
)

var initCommand = cli.Command{
	Name:  "init",
	Usage: "Initialize a stakercli home directory.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  homeFlag,
			Usage: "Path to where the home directory will be initialized",
			Value: config.DefaultStakerDir,
		},
		cli.BoolFlag{
			Name:     forceFlag,
			Usage:    "Override existing configuration",
			Required: false,
		},
	},
	Action: initHome,
}

func initHome(c *cli.Context) error {
	homePath, err := filepath.Abs(c.String(homeFlag))
	if err != nil {
		return err
	}
	force := c.Bool(forceFlag)

	if util.FileExists(homePath) && !force {
		return fmt.Errorf("home path %s already exists", homePath)
	}

	// ensure the directory exists
	homePath = util.CleanAndExpandPath(homePath)
	if err := util.MakeDirectory(homePath); err != nil {
		return err
	}
	// Create log directory
	logDir := config.LogDir(homePath)
	if err := util.MakeDirectory(logDir); err != nil {
		return err
	}

	defaultConfig := config.DefaultConfigWithHome(homePath)

	return config.WriteConfigFile(homePath, &defaultConfig)
}
