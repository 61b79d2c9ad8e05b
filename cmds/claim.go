package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/urfave/cli/v2"
)

var EventCmds = &cli.Command{
	Name:        "event",
	Usage:       "event catalog cmds",
	Subcommands: []*cli.Command{listEventCmds},
}

var listEventCmds = &cli.Command{
	Name:  "list",
	Usage: "list the event catalog",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		events, err := api.ListEvents(cctx.Context)
		if err != nil {
			return err
		}
		eventBytes, err := json.MarshalIndent(events, " ", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(eventBytes))
		return nil
	},
}

var ClaimCmds = &cli.Command{
	Name:        "claim",
	Usage:       "participation claim cmds",
	Subcommands: []*cli.Command{requestClaimCmds, checkClaimCmds, listClaimCmds, claimCostCmds},
}

var requestClaimCmds = &cli.Command{
	Name:      "request",
	Usage:     "claim an event for the connected wallet",
	Flags:     []cli.Flag{},
	ArgsUsage: "event-id",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		rec, err := api.RequestClaim(cctx.Context, cctx.Args().Get(0))
		if err != nil {
			return err
		}
		recBytes, err := json.MarshalIndent(rec, " ", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(recBytes))
		return nil
	},
}

var checkClaimCmds = &cli.Command{
	Name:      "check",
	Usage:     "check whether the connected wallet already claimed an event",
	Flags:     []cli.Flag{},
	ArgsUsage: "event-id",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		eventID := cctx.Args().Get(0)
		claimed, err := api.HasClaimed(cctx.Context, eventID)
		if err != nil {
			return err
		}
		if !claimed {
			fmt.Printf("event %s: not claimed\n", eventID)
			return nil
		}
		ref, err := api.ClaimRef(cctx.Context, eventID)
		if err != nil {
			return err
		}
		fmt.Printf("event %s: claimed, proof %s\n", eventID, ref)
		return nil
	},
}

var listClaimCmds = &cli.Command{
	Name:      "list",
	Usage:     "list claims held by an account",
	Flags:     []cli.Flag{},
	ArgsUsage: "owner-address",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		owner, err := address.NewFromString(cctx.Args().Get(0))
		if err != nil {
			return err
		}
		records, err := api.ClaimsByOwner(cctx.Context, owner)
		if err != nil {
			return err
		}
		recordBytes, err := json.MarshalIndent(records, " ", "\t")
		if err != nil {
			return err
		}
		fmt.Println(string(recordBytes))
		return nil
	},
}

var claimCostCmds = &cli.Command{
	Name:  "cost",
	Usage: "estimate the claim network fee",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewPopClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		fee, err := api.EstimateClaimCost(cctx.Context)
		if err != nil {
			return err
		}
		fmt.Println(fee.String())
		return nil
	},
}
