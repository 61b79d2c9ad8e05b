package chain

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"

	"github.com/sachinacharyaa/popChain/types"
)

type ledgerStruct struct {
	Internal struct {
		WalletBalance func(ctx context.Context, addr address.Address) (abi.TokenAmount, error)
		MessageNonce  func(ctx context.Context, addr address.Address) (uint64, error)
		EstimateFee   func(ctx context.Context) (abi.TokenAmount, error)
		SubmitMessage func(ctx context.Context, smsg *types.SignedProofMessage) (cid.Cid, error)
		WaitMessage   func(ctx context.Context, ref cid.Cid) error
	}
}

var _ ILedger = (*ledgerStruct)(nil)

func (l *ledgerStruct) WalletBalance(ctx context.Context, addr address.Address) (abi.TokenAmount, error) {
	return l.Internal.WalletBalance(ctx, addr)
}

func (l *ledgerStruct) MessageNonce(ctx context.Context, addr address.Address) (uint64, error) {
	return l.Internal.MessageNonce(ctx, addr)
}

func (l *ledgerStruct) EstimateFee(ctx context.Context) (abi.TokenAmount, error) {
	return l.Internal.EstimateFee(ctx)
}

func (l *ledgerStruct) SubmitMessage(ctx context.Context, smsg *types.SignedProofMessage) (cid.Cid, error) {
	return l.Internal.SubmitMessage(ctx, smsg)
}

func (l *ledgerStruct) WaitMessage(ctx context.Context, ref cid.Cid) error {
	return l.Internal.WaitMessage(ctx, ref)
}

// NewLedgerClient dials the configured ledger node.
func NewLedgerClient(ctx context.Context, url, token string) (ILedger, jsonrpc.ClientCloser, error) {
	headers := http.Header{}
	if token != "" {
		headers.Add("Authorization", "Bearer "+token)
	}
	var res ledgerStruct
	closer, err := jsonrpc.NewMergeClient(ctx, url, "Ledger", []interface{}{&res.Internal}, headers)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}
