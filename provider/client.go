package provider

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-state-types/crypto"

	"github.com/sachinacharyaa/popChain/types"
)

type providerStruct struct {
	Internal struct {
		Describe        func(ctx context.Context) (*types.ProviderDescriptor, error)
		Connect         func(ctx context.Context, policy ConnectPolicy) (*ConnectResult, error)
		Disconnect      func(ctx context.Context) error
		Sign            func(ctx context.Context, signer address.Address, toSign []byte, meta types.MsgMeta) (*crypto.Signature, error)
		SubscribeNotify func(ctx context.Context) (<-chan *types.ProviderNotify, error)
	}
}

var _ IProvider = (*providerStruct)(nil)

func (p *providerStruct) Describe(ctx context.Context) (*types.ProviderDescriptor, error) {
	return p.Internal.Describe(ctx)
}

func (p *providerStruct) Connect(ctx context.Context, policy ConnectPolicy) (*ConnectResult, error) {
	return p.Internal.Connect(ctx, policy)
}

func (p *providerStruct) Disconnect(ctx context.Context) error {
	return p.Internal.Disconnect(ctx)
}

func (p *providerStruct) Sign(ctx context.Context, signer address.Address, toSign []byte, meta types.MsgMeta) (*crypto.Signature, error) {
	return p.Internal.Sign(ctx, signer, toSign, meta)
}

func (p *providerStruct) SubscribeNotify(ctx context.Context) (<-chan *types.ProviderNotify, error) {
	return p.Internal.SubscribeNotify(ctx)
}

// Dial connects to a wallet provider endpoint. The returned closer must be
// called once the provider is no longer active.
func Dial(ctx context.Context, desc types.ProviderDescriptor) (IProvider, jsonrpc.ClientCloser, error) {
	headers := http.Header{}
	if desc.Token != "" {
		headers.Add("Authorization", "Bearer "+desc.Token)
	}
	var res providerStruct
	closer, err := jsonrpc.NewMergeClient(ctx, desc.URL, "Provider", []interface{}{&res.Internal}, headers)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}
