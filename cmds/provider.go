package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
)

var ProviderCmds = &cli.Command{
	Name:        "provider",
	Usage:       "wallet provider cmds",
	Subcommands: []*cli.Command{listProviderCmds},
}

var listProviderCmds = &cli.Command{
	Name:  "list",
	Usage: "list reachable wallet providers",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		providers, err := api.DiscoverProviders(cctx.Context)
		if err != nil {
			return err
		}
		providerBytes, err := json.MarshalIndent(providers, " ", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(providerBytes))
		return nil
	},
}
