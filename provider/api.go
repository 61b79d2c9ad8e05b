// Package provider defines the capability surface of an injected wallet
// provider and its JSON-RPC adapter. Concrete wallets differ, but every one
// the gateway can use exposes connect, disconnect, sign and subscribe.
package provider

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/crypto"

	"github.com/sachinacharyaa/popChain/types"
)

// ConnectPolicy shapes an authorization request. OnlyIfTrusted asks the
// provider for a silent reauthorization: it must succeed without user
// interaction or fail.
type ConnectPolicy struct {
	OnlyIfTrusted bool
}

type ConnectResult struct {
	Account address.Address
}

// Describe reports the provider's self-declared identity; it doubles as the
// discovery liveness probe.
type IProvider interface {
	Describe(ctx context.Context) (*types.ProviderDescriptor, error)
	Connect(ctx context.Context, policy ConnectPolicy) (*ConnectResult, error)
	Disconnect(ctx context.Context) error
	Sign(ctx context.Context, signer address.Address, toSign []byte, meta types.MsgMeta) (*crypto.Signature, error)
	SubscribeNotify(ctx context.Context) (<-chan *types.ProviderNotify, error)
}
