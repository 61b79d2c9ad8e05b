package api

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"

	"github.com/sachinacharyaa/popChain/types"
	"github.com/sachinacharyaa/popChain/version"
)

// IPopAPI is the API surface served over JSON-RPC under the "Pop" namespace.
type IPopAPI interface {
	Version(ctx context.Context) (version.Version, error)

	DiscoverProviders(ctx context.Context) ([]types.ProviderDescriptor, error)
	WalletSession(ctx context.Context) (types.WalletSession, error)
	RequestConnect(ctx context.Context, providerName string) (types.WalletSession, error)
	RequestDisconnect(ctx context.Context) error
	TryRestore(ctx context.Context) (types.WalletSession, error)

	ListEvents(ctx context.Context) ([]types.EventRecord, error)
	HasClaimed(ctx context.Context, eventID string) (bool, error)
	ClaimRef(ctx context.Context, eventID string) (cid.Cid, error)
	ClaimsByOwner(ctx context.Context, owner address.Address) ([]*types.ClaimRecord, error)
	RequestClaim(ctx context.Context, eventID string) (*types.ClaimRecord, error)
	EstimateClaimCost(ctx context.Context) (abi.TokenAmount, error)
}
