package cmds

import (
	"context"
	"net/http"
	"net/url"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"

	"github.com/sachinacharyaa/popChain/types"
	"github.com/sachinacharyaa/popChain/version"
)

type PopAPI struct {
	Version func(ctx context.Context) (version.Version, error)

	DiscoverProviders func(ctx context.Context) ([]types.ProviderDescriptor, error)
	WalletSession     func(ctx context.Context) (types.WalletSession, error)
	RequestConnect    func(ctx context.Context, providerName string) (types.WalletSession, error)
	RequestDisconnect func(ctx context.Context) error
	TryRestore        func(ctx context.Context) (types.WalletSession, error)

	ListEvents        func(ctx context.Context) ([]types.EventRecord, error)
	HasClaimed        func(ctx context.Context, eventID string) (bool, error)
	ClaimRef          func(ctx context.Context, eventID string) (cid.Cid, error)
	ClaimsByOwner     func(ctx context.Context, owner address.Address) ([]*types.ClaimRecord, error)
	RequestClaim      func(ctx context.Context, eventID string) (*types.ClaimRecord, error)
	EstimateClaimCost func(ctx context.Context) (abi.TokenAmount, error)
}

func NewPopClient(ctx *cli.Context) (*PopAPI, jsonrpc.ClientCloser, error) {
	var popAPI = &PopAPI{}
	addr, err := DialArgs(ctx.String("listen"))
	if err != nil {
		return nil, nil, err
	}

	closer, err := jsonrpc.NewMergeClient(ctx.Context, addr,
		"Pop", []interface{}{popAPI}, http.Header{})
	if err != nil {
		return nil, nil, err
	}
	return popAPI, closer, nil
}

func DialArgs(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return "ws://" + addr + "/rpc/v1", nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", err
	}
	return addr + "/rpc/v1", nil
}
