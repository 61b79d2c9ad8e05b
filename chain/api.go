// Package chain is the gateway's client of the ledger network node.
package chain

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"

	"github.com/sachinacharyaa/popChain/types"
)

type ILedger interface {
	// WalletBalance reports the spendable balance of an account.
	WalletBalance(ctx context.Context, addr address.Address) (abi.TokenAmount, error)
	// MessageNonce returns the next nonce for an account.
	MessageNonce(ctx context.Context, addr address.Address) (uint64, error)
	// EstimateFee estimates the network fee for a proof transfer.
	EstimateFee(ctx context.Context) (abi.TokenAmount, error)
	// SubmitMessage pushes a signed proof message and returns its reference.
	SubmitMessage(ctx context.Context, smsg *types.SignedProofMessage) (cid.Cid, error)
	// WaitMessage blocks until the referenced message is confirmed or the
	// context expires.
	WaitMessage(ctx context.Context, ref cid.Cid) error
}
