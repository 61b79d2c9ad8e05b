package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
)

var WalletCmds = &cli.Command{
	Name:        "wallet",
	Usage:       "wallet session cmds",
	Subcommands: []*cli.Command{sessionStateCmds, connectCmds, disconnectCmds, restoreCmds},
}

var sessionStateCmds = &cli.Command{
	Name:  "state",
	Usage: "show the current wallet session",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		session, err := api.WalletSession(cctx.Context)
		if err != nil {
			return err
		}
		sessionBytes, err := json.MarshalIndent(session, " ", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(sessionBytes))
		return nil
	},
}

var connectCmds = &cli.Command{
	Name:      "connect",
	Usage:     "connect to a named wallet provider",
	Flags:     []cli.Flag{},
	ArgsUsage: "provider-name",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		session, err := api.RequestConnect(cctx.Context, cctx.Args().Get(0))
		if err != nil {
			return err
		}
		fmt.Printf("connected %s via %s\n", session.Account, session.ProviderName)
		return nil
	},
}

var disconnectCmds = &cli.Command{
	Name:  "disconnect",
	Usage: "tear down the current wallet session",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		if err := api.RequestDisconnect(cctx.Context); err != nil {
			return err
		}
		fmt.Println("disconnected")
		return nil
	},
}

var restoreCmds = &cli.Command{
	Name:  "restore",
	Usage: "silently reconnect to the last used provider",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		session, err := api.TryRestore(cctx.Context)
		if err != nil {
			return err
		}
		sessionBytes, err := json.MarshalIndent(session, " ", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(sessionBytes))
		return nil
	},
}
