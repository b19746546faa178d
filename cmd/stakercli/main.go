package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[stakercli] %v\n", err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "stakercli"
	app.Usage = "Build, sign and broadcast BTC staking transactions."
	app.Commands = append(app.Commands, initCommand, stakeCommand, broadcastCommand)
	app.Commands = append(app.Commands, queryCommands...)

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}
