package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"
)

func main() {
	var version = getVersion()

	cliApp := &cli.App{
		Name:    "timevault",
		Usage:   "Hold value in time-locked vaults and release it to the owner once the unlock time has passed.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "The directory where config and the embedded store live (default: $HOME/.timevault)",
			},
		},
		Commands: []*cli.Command{
			newVaultCreateCommand(),
			newDepositCommand(),
			newSendCommand(),
			newExtendCommand(),
			newWithdrawCommand(),
			newBalanceCommand(),
			newStatusCommand(),
			newListCommand(),
			newListEventsCommand(),
			newExportCommand(),
			newVerifyReceiptCommand(),
			newAccountCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
